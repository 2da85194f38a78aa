package models

// QuestionType discriminates the tagged union of question shapes. Every
// consumer that dispatches on it must handle all six variants; unknown tags
// are rejected at load time and surface as unscorable at grading time.
type QuestionType string

const (
	SingleChoice QuestionType = "single_choice"
	MultiChoice  QuestionType = "multi_choice"
	Matching     QuestionType = "matching"
	Ordering     QuestionType = "ordering"
	Matrix       QuestionType = "matrix"
	CaseStudy    QuestionType = "case"
)

type DifficultyLevel string

const (
	DifficultyAny    DifficultyLevel = "any"
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

type ScoringMode string

const (
	AllOrNothing ScoringMode = "all_or_nothing"
	Partial      ScoringMode = "partial"
)

// ScoringPolicy declares how a question converts an answer into points.
type ScoringPolicy struct {
	Mode   ScoringMode `json:"mode" validate:"omitempty,scoring_mode"`
	Points float64     `json:"points" validate:"omitempty,gt=0"`
}

// Choice is a selectable item: an option for single/multi questions, a left
// or right item for matching, a sequence item for ordering, a row or column
// label for matrix questions.
type Choice struct {
	ID        string `json:"id" validate:"required"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct,omitempty"`
}

// Question is immutable once part of a Bank. Which of the shape fields are
// populated depends on Type:
//
//	single_choice, multi_choice: Choices (with IsCorrect markers)
//	matching:                    Choices (left), RightChoices, Pairs
//	ordering:                    Choices, CorrectOrder
//	matrix:                      Rows, Cols, CorrectCells
//	case:                        Parts (any type except case)
type Question struct {
	ID     string       `json:"id" validate:"required"`
	Type   QuestionType `json:"type" validate:"required,question_type"`
	Prompt string       `json:"prompt"`

	Choices      []Choice          `json:"choices,omitempty"`
	RightChoices []Choice          `json:"right_choices,omitempty"`
	Pairs        map[string]string `json:"pairs,omitempty"`   // left choice id -> correct right id
	CorrectOrder []string          `json:"order,omitempty"`   // correct sequence of choice ids
	Rows         []Choice          `json:"rows,omitempty"`
	Cols         []Choice          `json:"cols,omitempty"`
	CorrectCells map[string]string `json:"correct,omitempty"` // row id -> correct col id
	Parts        []Question        `json:"parts,omitempty"`

	Explanation string          `json:"explanation,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Difficulty  DifficultyLevel `json:"difficulty,omitempty"`
	Scoring     *ScoringPolicy  `json:"scoring,omitempty"`
}

// ScoringMode returns the declared mode, defaulting to all-or-nothing.
func (q *Question) ScoringMode() ScoringMode {
	if q.Scoring != nil && q.Scoring.Mode == Partial {
		return Partial
	}
	return AllOrNothing
}

// MaxPoints returns the question's point budget. Defaults to 1; for case
// questions an undeclared budget defaults to the sum of the part budgets.
func (q *Question) MaxPoints() float64 {
	if q.Scoring != nil && q.Scoring.Points > 0 {
		return q.Scoring.Points
	}
	if q.Type == CaseStudy {
		total := 0.0
		for i := range q.Parts {
			total += q.Parts[i].MaxPoints()
		}
		return total
	}
	return 1
}

// CorrectChoiceIDs returns the ids of choices marked correct, in declaration
// order. Only meaningful for single/multi choice questions.
func (q *Question) CorrectChoiceIDs() []string {
	var ids []string
	for _, c := range q.Choices {
		if c.IsCorrect {
			ids = append(ids, c.ID)
		}
	}
	return ids
}

// ChoiceText resolves a choice id to its display text across all shape
// fields; used by the results report.
func (q *Question) ChoiceText(id string) string {
	for _, set := range [][]Choice{q.Choices, q.RightChoices, q.Rows, q.Cols} {
		for _, c := range set {
			if c.ID == id {
				return c.Text
			}
		}
	}
	return id
}

func IsValidQuestionType(t QuestionType) bool {
	switch t {
	case SingleChoice, MultiChoice, Matching, Ordering, Matrix, CaseStudy:
		return true
	}
	return false
}
