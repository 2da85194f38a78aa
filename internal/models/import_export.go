package models

import "time"

// BankFile is the object form of the bank import format. The import path
// also accepts a bare array of questions.
type BankFile struct {
	Title     string     `json:"title,omitempty"`
	Source    string     `json:"source,omitempty"`
	Version   string     `json:"version,omitempty"`
	Questions []Question `json:"questions"`
}

// SessionExport is the portable session format: enough to fully resume a
// session elsewhere.
type SessionExport struct {
	Bank               *Bank              `json:"bank"`
	TestType           TestType           `json:"test_type"`
	Seed               string             `json:"seed,omitempty"`
	RandomizeQuestions bool               `json:"randomize_questions"`
	RandomizeChoices   bool               `json:"randomize_choices"`
	DurationMinutes    *int               `json:"duration_minutes,omitempty"`
	Started            time.Time          `json:"started"`
	QuestionOrder      []string           `json:"question_order"`
	CurrentIndex       int                `json:"current_index"`
	Answers            map[string]*Answer `json:"answers"`
}

// ImportValidationError describes one rejected row of a CSV/Excel import.
type ImportValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportResult summarizes a spreadsheet import run.
type ImportResult struct {
	TotalRows    int                     `json:"total_rows"`
	SuccessCount int                     `json:"success_count"`
	ErrorCount   int                     `json:"error_count"`
	Errors       []ImportValidationError `json:"errors,omitempty"`
	Bank         *Bank                   `json:"bank,omitempty"`
}
