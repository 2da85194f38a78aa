package models

import "time"

type TestType string

const (
	TestTypePractice TestType = "practice"
	TestTypeExam     TestType = "exam"
)

// Settings governs session construction. Editable whenever a timed exam is
// not actively running; persisted across restarts.
type Settings struct {
	TestType         TestType        `json:"test_type" validate:"omitempty,oneof=practice exam"`
	QuestionCount    int             `json:"question_count" validate:"omitempty,question_count"` // 0 means every matching question
	Difficulty       DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	TimerSec         *int            `json:"timer_sec,omitempty" validate:"omitempty,timer_seconds"` // per-question timer
	DurationMinutes  *int            `json:"duration_minutes,omitempty" validate:"omitempty,min=1,max=600"`
	ShuffleQuestions bool            `json:"randomize_questions"`
	ShuffleChoices   bool            `json:"randomize_choices"`
	Seed             string          `json:"seed,omitempty"` // empty means non-reproducible entropy
}

// Session is one run through a filtered/shuffled/truncated subset of the
// bank. QuestionOrder is fixed at session start; restarting draws a fresh
// permutation into a brand-new Session rather than mutating this one.
type Session struct {
	QuestionOrder []string           `json:"question_order"`
	Answers       map[string]*Answer `json:"answers"`
	CurrentIndex  int                `json:"current_index"`
	StartedAt     time.Time          `json:"started_at"`
	Finished      bool               `json:"finished"`
}

// CurrentQuestionID returns the id under the cursor, or "" when the session
// holds no questions.
func (s *Session) CurrentQuestionID() string {
	if len(s.QuestionOrder) == 0 {
		return ""
	}
	return s.QuestionOrder[s.CurrentIndex]
}

// ScoreSummary aggregates committed answers into a running score.
type ScoreSummary struct {
	Answered       int     `json:"answered"`
	CorrectCount   int     `json:"correct_count"`
	GainedPoints   float64 `json:"gained_points"`
	PossiblePoints float64 `json:"possible_points"`
}

// Snapshot is the unit the persistence gateway reads and writes: everything
// needed to resume after a restart. Large banks may be excluded, in which
// case BankID references the stored catalog entry to reload from.
type Snapshot struct {
	Settings Settings `json:"settings"`
	Session  *Session `json:"session,omitempty"`
	Bank     *Bank    `json:"bank,omitempty"`
	BankID   *uint    `json:"bank_id,omitempty"`
}
