package services

import (
	"context"
	"io"
	"time"

	"github.com/quiz-trainer/trainer-service/internal/models"
)

// ===== SCORING =====

// ScoreResult is the outcome of scoring one answer: a pass/fail flag and the
// points awarded. Under partial scoring the two are deliberately decoupled.
type ScoreResult struct {
	Correct bool    `json:"correct"`
	Points  float64 `json:"points"`
}

// ScoringService is the pure scoring engine: deterministic, side-effect
// free, exhaustive over question types.
type ScoringService interface {
	Score(question *models.Question, answer *models.Answer) (ScoreResult, error)
}

// ===== BANK =====

// BankService loads, merges, validates and catalogs question banks.
type BankService interface {
	// Parse decodes the JSON import format (bare array or {questions: []})
	// without persisting; fails with ErrInvalidBankFormat.
	Parse(raw []byte) (*models.Bank, error)

	// Merge appends incoming questions whose ids are absent from existing;
	// first-loaded wins on conflicts. Neither input is mutated.
	Merge(existing, incoming *models.Bank) *models.Bank

	// Import parses, validates, stores and announces a new bank.
	Import(ctx context.Context, raw []byte) (*models.BankRecord, *models.Bank, error)

	// Store validates and catalogs an already-parsed bank.
	Store(ctx context.Context, bank *models.Bank) (*models.BankRecord, error)

	// MergeStored merges a raw import into the stored bank with the given id.
	MergeStored(ctx context.Context, id uint, raw []byte) (*models.BankRecord, *models.Bank, error)

	Get(ctx context.Context, id uint) (*models.Bank, *models.BankRecord, error)
	List(ctx context.Context) ([]*models.BankRecord, error)
	Delete(ctx context.Context, id uint) error
}

// ===== SESSION =====

// ResponseUpdate is one draft mutation for the current question. Exactly one
// group of fields applies, matching the question's type.
type ResponseUpdate struct {
	// single choice: replaces the selection; multi choice: toggles membership
	ChoiceID string `json:"choice_id,omitempty"`

	// matching: assign (or clear, with empty right id) one left item
	MatchLeftID  string `json:"match_left_id,omitempty"`
	MatchRightID string `json:"match_right_id,omitempty"`

	// ordering: replace the full sequence
	Ordering []string `json:"ordering,omitempty"`

	// matrix: assign one row to a column
	MatrixRowID string `json:"matrix_row_id,omitempty"`
	MatrixColID string `json:"matrix_col_id,omitempty"`

	// case: apply a nested update to one part
	PartID string          `json:"part_id,omitempty"`
	Part   *ResponseUpdate `json:"part,omitempty"`
}

// NavigateRequest moves the cursor. Either Direction ("next"/"prev") or
// Index is set; out-of-range targets clamp to the valid range.
type NavigateRequest struct {
	Direction string `json:"direction,omitempty" validate:"omitempty,oneof=next prev"`
	Index     *int   `json:"index,omitempty"`
}

// QuestionView is the presentation-facing projection of the current
// question: choice order already permuted per settings, correctness markers
// stripped.
type QuestionView struct {
	ID      string              `json:"id"`
	Type    models.QuestionType `json:"type"`
	Prompt  string              `json:"prompt"`
	Choices []models.Choice     `json:"choices,omitempty"`
	Right   []models.Choice     `json:"right_choices,omitempty"`
	Rows    []models.Choice     `json:"rows,omitempty"`
	Cols    []models.Choice     `json:"cols,omitempty"`
	Parts   []QuestionView      `json:"parts,omitempty"`
}

// SessionView is the full state the presentation layer renders from.
type SessionView struct {
	State           string              `json:"state"` // not_started, in_progress, finished
	BankTitle       string              `json:"bank_title,omitempty"`
	Settings        models.Settings     `json:"settings"`
	CurrentIndex    int                 `json:"current_index"`
	TotalQuestions  int                 `json:"total_questions"`
	Question        *QuestionView       `json:"question,omitempty"`
	Draft           *models.Answer      `json:"draft,omitempty"`
	MarkedForReview bool                `json:"marked_for_review"`
	StartedAt       time.Time           `json:"started_at,omitzero"`
	Finished        bool                `json:"finished"`
	Summary         models.ScoreSummary `json:"summary"`
}

// SessionService is the session controller: it exclusively owns the Session
// and serializes all events against it.
type SessionService interface {
	Start(ctx context.Context, bank *models.Bank, settings models.Settings) error
	StartFromStored(ctx context.Context, bankID uint, settings models.Settings) error
	Restart(ctx context.Context) error
	Respond(ctx context.Context, update ResponseUpdate) error
	Commit(ctx context.Context) error
	Navigate(ctx context.Context, req NavigateRequest) error
	ToggleReviewFlag(ctx context.Context) error
	Finish(ctx context.Context) error
	ExpireTimer(ctx context.Context) error

	View(ctx context.Context) (*SessionView, error)
	Export(ctx context.Context) (*models.SessionExport, error)
	ImportSession(ctx context.Context, export *models.SessionExport) error
	Restore(ctx context.Context) error
	Close()
}

// ===== IMPORT / EXPORT =====

// ImportExportService handles non-JSON bank sources and the results report.
type ImportExportService interface {
	ImportBankFromFile(ctx context.Context, reader io.Reader, filename string) (*models.ImportResult, error)
	ImportBankFromCSV(ctx context.Context, reader io.Reader) (*models.ImportResult, error)
	ImportBankFromExcel(ctx context.Context, reader io.Reader) (*models.ImportResult, error)

	ResultsReport(bank *models.Bank, settings models.Settings, session *models.Session) string
}
