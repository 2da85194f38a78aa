package models

// Answer holds the recorded response for one question. Which payload field
// is populated mirrors the question's type tag. IsCorrect stays nil until
// the answer has been scored at least once.
type Answer struct {
	QuestionID string `json:"question_id"`

	SelectedIDs []string           `json:"selected_ids,omitempty"` // single/multi choice
	MatchPairs  map[string]string  `json:"match_pairs,omitempty"`  // left id -> chosen right id
	Ordering    []string           `json:"ordering,omitempty"`     // chosen sequence of choice ids
	MatrixCells map[string]string  `json:"matrix_cells,omitempty"` // row id -> chosen col id
	PartAnswers map[string]*Answer `json:"part_answers,omitempty"` // case: part id -> answer

	IsCorrect       *bool   `json:"is_correct"`
	Score           float64 `json:"score"`
	TimeSpentSec    int     `json:"time_spent_sec"`
	MarkedForReview bool    `json:"marked_for_review"`
}

// NewAnswer creates an empty answer for a question.
func NewAnswer(questionID string) *Answer {
	return &Answer{QuestionID: questionID}
}

// Clone returns a deep copy so the committed record and the live draft never
// share mutable state.
func (a *Answer) Clone() *Answer {
	if a == nil {
		return nil
	}
	cp := *a
	if a.SelectedIDs != nil {
		cp.SelectedIDs = append([]string(nil), a.SelectedIDs...)
	}
	if a.Ordering != nil {
		cp.Ordering = append([]string(nil), a.Ordering...)
	}
	if a.MatchPairs != nil {
		cp.MatchPairs = make(map[string]string, len(a.MatchPairs))
		for k, v := range a.MatchPairs {
			cp.MatchPairs[k] = v
		}
	}
	if a.MatrixCells != nil {
		cp.MatrixCells = make(map[string]string, len(a.MatrixCells))
		for k, v := range a.MatrixCells {
			cp.MatrixCells[k] = v
		}
	}
	if a.IsCorrect != nil {
		v := *a.IsCorrect
		cp.IsCorrect = &v
	}
	if a.PartAnswers != nil {
		cp.PartAnswers = make(map[string]*Answer, len(a.PartAnswers))
		for k, v := range a.PartAnswers {
			cp.PartAnswers[k] = v.Clone()
		}
	}
	return &cp
}

// HasSelection reports whether the selected-id set contains the given id.
func (a *Answer) HasSelection(id string) bool {
	for _, s := range a.SelectedIDs {
		if s == id {
			return true
		}
	}
	return false
}
