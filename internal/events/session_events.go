package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of session lifecycle events
type EventType string

const (
	EventSessionStarted  EventType = "session.started"
	EventAnswerCommitted EventType = "session.answer_committed"
	EventTimerExpired    EventType = "session.timer_expired"
	EventSessionFinished EventType = "session.finished"
	EventBankImported    EventType = "bank.imported"
)

// SessionEvent is the base event structure published to the session topic
type SessionEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewSessionEvent builds an event envelope with the service identity filled in.
func NewSessionEvent(eventType EventType, data interface{}) *SessionEvent {
	return &SessionEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "trainer-service",
		Version:   "1.0",
		Data:      data,
	}
}

// Session event payloads

type SessionStartedEvent struct {
	BankTitle     string    `json:"bank_title"`
	QuestionCount int       `json:"question_count"`
	Seed          string    `json:"seed,omitempty"`
	StartedAt     time.Time `json:"started_at"`
}

type AnswerCommittedEvent struct {
	QuestionID   string  `json:"question_id"`
	IsCorrect    bool    `json:"is_correct"`
	Points       float64 `json:"points"`
	TimeSpentSec int     `json:"time_spent_sec"`
}

type TimerExpiredEvent struct {
	QuestionID string `json:"question_id"`
	Index      int    `json:"index"`
}

type SessionFinishedEvent struct {
	Answered       int     `json:"answered"`
	CorrectCount   int     `json:"correct_count"`
	GainedPoints   float64 `json:"gained_points"`
	PossiblePoints float64 `json:"possible_points"`
}

type BankImportedEvent struct {
	Title         string `json:"title"`
	QuestionCount int    `json:"question_count"`
	Format        string `json:"format"` // json, csv, xlsx
}
