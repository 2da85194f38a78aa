package services

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/quiz-trainer/trainer-service/internal/models"
)

type scoringService struct {
	logger *slog.Logger
}

func NewScoringService(logger *slog.Logger) ScoringService {
	return &scoringService{logger: logger}
}

// Score grades one answer against its question. Pure and deterministic: the
// same (question, answer) pair always yields the same result and neither
// input is mutated. A nil answer scores as an empty response.
func (s *scoringService) Score(question *models.Question, answer *models.Answer) (ScoreResult, error) {
	if answer == nil {
		answer = models.NewAnswer(question.ID)
	}

	switch question.Type {
	case models.SingleChoice:
		return s.scoreSingleChoice(question, answer), nil
	case models.MultiChoice:
		return s.scoreMultiChoice(question, answer), nil
	case models.Matching:
		return s.scoreMatching(question, answer), nil
	case models.Ordering:
		return s.scoreOrdering(question, answer), nil
	case models.Matrix:
		return s.scoreMatrix(question, answer), nil
	case models.CaseStudy:
		return s.scoreCase(question, answer)
	default:
		return ScoreResult{}, fmt.Errorf("%w: %s", ErrUnscorableQuestionType, question.Type)
	}
}

// scoreSingleChoice: correct iff exactly one choice is selected and it is
// the marked-correct one.
func (s *scoringService) scoreSingleChoice(q *models.Question, a *models.Answer) ScoreResult {
	if len(a.SelectedIDs) != 1 {
		return ScoreResult{Correct: false, Points: 0}
	}
	for _, c := range q.Choices {
		if c.ID == a.SelectedIDs[0] {
			if c.IsCorrect {
				return ScoreResult{Correct: true, Points: q.MaxPoints()}
			}
			break
		}
	}
	return ScoreResult{Correct: false, Points: 0}
}

// scoreMultiChoice: the pass/fail flag always requires exact set equality;
// under partial mode each correct selection is worth +1 and each incorrect
// one -1, with the raw sum clamped to [0, points]. Full partial points on a
// non-matching set still report correct=false.
func (s *scoringService) scoreMultiChoice(q *models.Question, a *models.Answer) ScoreResult {
	correctSet := make(map[string]bool)
	for _, id := range q.CorrectChoiceIDs() {
		correctSet[id] = true
	}
	// No marked-correct choice means nothing can be earned, not a free match
	// on the empty selection.
	if len(correctSet) == 0 {
		return ScoreResult{Correct: false, Points: 0}
	}

	selectedSet := make(map[string]bool, len(a.SelectedIDs))
	for _, id := range a.SelectedIDs {
		selectedSet[id] = true
	}

	exactMatch := len(selectedSet) == len(correctSet)
	if exactMatch {
		for id := range correctSet {
			if !selectedSet[id] {
				exactMatch = false
				break
			}
		}
	}

	if q.ScoringMode() == models.AllOrNothing {
		if exactMatch {
			return ScoreResult{Correct: true, Points: q.MaxPoints()}
		}
		return ScoreResult{Correct: false, Points: 0}
	}

	raw := 0.0
	for id := range selectedSet {
		if correctSet[id] {
			raw++
		} else {
			raw--
		}
	}
	points := math.Min(math.Max(raw, 0), q.MaxPoints())
	return ScoreResult{Correct: exactMatch, Points: points}
}

// scoreMatching: every left id must map to its correct right id; an
// unselected left counts as a mismatch.
func (s *scoringService) scoreMatching(q *models.Question, a *models.Answer) ScoreResult {
	if len(q.Pairs) == 0 {
		return ScoreResult{Correct: false, Points: 0}
	}
	for left, right := range q.Pairs {
		if a.MatchPairs[left] != right {
			return ScoreResult{Correct: false, Points: 0}
		}
	}
	return ScoreResult{Correct: true, Points: q.MaxPoints()}
}

// scoreOrdering: element-for-element equality with the defined order.
func (s *scoringService) scoreOrdering(q *models.Question, a *models.Answer) ScoreResult {
	if len(q.CorrectOrder) == 0 || len(a.Ordering) != len(q.CorrectOrder) {
		return ScoreResult{Correct: false, Points: 0}
	}
	for i, id := range q.CorrectOrder {
		if a.Ordering[i] != id {
			return ScoreResult{Correct: false, Points: 0}
		}
	}
	return ScoreResult{Correct: true, Points: q.MaxPoints()}
}

// scoreMatrix: every row id must map to its correct column id.
func (s *scoringService) scoreMatrix(q *models.Question, a *models.Answer) ScoreResult {
	if len(q.CorrectCells) == 0 {
		return ScoreResult{Correct: false, Points: 0}
	}
	for row, col := range q.CorrectCells {
		if a.MatrixCells[row] != col {
			return ScoreResult{Correct: false, Points: 0}
		}
	}
	return ScoreResult{Correct: true, Points: q.MaxPoints()}
}

// scoreCase: score every part recursively against its own point budget.
// Overall correct means the gained total reached the possible total; the
// reported points are the gained sum clamped to the case's declared cap.
func (s *scoringService) scoreCase(q *models.Question, a *models.Answer) (ScoreResult, error) {
	gained := 0.0
	possible := 0.0

	for i := range q.Parts {
		part := &q.Parts[i]
		possible += part.MaxPoints()

		partAnswer := a.PartAnswers[part.ID]
		result, err := s.Score(part, partAnswer)
		if err != nil {
			return ScoreResult{}, fmt.Errorf("part %q: %w", part.ID, err)
		}
		gained += result.Points
	}

	pointCap := possible
	if q.Scoring != nil && q.Scoring.Points > 0 {
		pointCap = q.Scoring.Points
	}

	return ScoreResult{
		Correct: possible > 0 && gained >= possible,
		Points:  math.Min(gained, pointCap),
	}, nil
}
