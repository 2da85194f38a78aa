package models

import (
	"time"

	"gorm.io/datatypes"
)

// Bank is the immutable-per-session question catalog. It is replaced
// wholesale on load and extended only by merge-append.
type Bank struct {
	Title     string     `json:"title"`
	Source    string     `json:"source,omitempty"`
	Version   string     `json:"version,omitempty"`
	Questions []Question `json:"questions"`
}

// QuestionByID returns the question with the given id, or nil.
func (b *Bank) QuestionByID(id string) *Question {
	for i := range b.Questions {
		if b.Questions[i].ID == id {
			return &b.Questions[i]
		}
	}
	return nil
}

// HasQuestion reports whether a question id is present in the bank.
func (b *Bank) HasQuestion(id string) bool {
	return b.QuestionByID(id) != nil
}

// BankRecord is the persisted form of a loaded bank. Question payloads are
// stored as a single JSONB document; the bank is read back wholesale, never
// row-by-row, matching the replace/merge lifecycle.
type BankRecord struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	Title         string         `json:"title" gorm:"size:255;not null"`
	Source        string         `json:"source" gorm:"size:255"`
	Version       string         `json:"version" gorm:"size:50"`
	QuestionCount int            `json:"question_count" gorm:"not null"`
	Questions     datatypes.JSON `json:"questions" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
