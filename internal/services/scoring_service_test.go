package services

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiz-trainer/trainer-service/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func singleChoiceQuestion() *models.Question {
	return &models.Question{
		ID:   "q1",
		Type: models.SingleChoice,
		Choices: []models.Choice{
			{ID: "a", Text: "wrong"},
			{ID: "b", Text: "right", IsCorrect: true},
		},
	}
}

func multiChoiceQuestion(mode models.ScoringMode, points float64) *models.Question {
	return &models.Question{
		ID:   "q2",
		Type: models.MultiChoice,
		Choices: []models.Choice{
			{ID: "a", IsCorrect: true},
			{ID: "b"},
			{ID: "c", IsCorrect: true},
			{ID: "d"},
		},
		Scoring: &models.ScoringPolicy{Mode: mode, Points: points},
	}
}

func TestScore_SingleChoice(t *testing.T) {
	scorer := NewScoringService(testLogger())
	q := singleChoiceQuestion()

	tests := []struct {
		name     string
		selected []string
		correct  bool
		points   float64
	}{
		{"correct choice", []string{"b"}, true, 1},
		{"wrong choice", []string{"a"}, false, 0},
		{"both choices", []string{"a", "b"}, false, 0},
		{"no selection", nil, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := scorer.Score(q, &models.Answer{QuestionID: q.ID, SelectedIDs: tt.selected})
			require.NoError(t, err)
			assert.Equal(t, ScoreResult{Correct: tt.correct, Points: tt.points}, result)
		})
	}
}

func TestScore_MultiChoiceAllOrNothing(t *testing.T) {
	scorer := NewScoringService(testLogger())
	q := multiChoiceQuestion(models.AllOrNothing, 0)

	tests := []struct {
		name     string
		selected []string
		correct  bool
	}{
		{"exact set", []string{"a", "c"}, true},
		{"exact set reordered", []string{"c", "a"}, true},
		{"subset", []string{"a"}, false},
		{"superset", []string{"a", "b", "c"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := scorer.Score(q, &models.Answer{QuestionID: q.ID, SelectedIDs: tt.selected})
			require.NoError(t, err)
			assert.Equal(t, tt.correct, result.Correct)
			if tt.correct {
				assert.Equal(t, 1.0, result.Points)
			} else {
				assert.Equal(t, 0.0, result.Points)
			}
		})
	}
}

func TestScore_MultiChoicePartial(t *testing.T) {
	scorer := NewScoringService(testLogger())
	q := multiChoiceQuestion(models.Partial, 3)

	tests := []struct {
		name     string
		selected []string
		correct  bool
		points   float64
	}{
		// +1 for a, -1 for b: clamped sum is 0
		{"one right one wrong", []string{"a", "b"}, false, 0},
		{"one right", []string{"a"}, false, 1},
		{"both right", []string{"a", "c"}, true, 2},
		// raw sum never goes negative
		{"all wrong", []string{"b", "d"}, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := scorer.Score(q, &models.Answer{QuestionID: q.ID, SelectedIDs: tt.selected})
			require.NoError(t, err)
			assert.Equal(t, ScoreResult{Correct: tt.correct, Points: tt.points}, result)
		})
	}
}

func TestScore_MultiChoicePartialClampsToCap(t *testing.T) {
	scorer := NewScoringService(testLogger())
	q := multiChoiceQuestion(models.Partial, 1)

	// Two correct selections but the declared cap is 1.
	result, err := scorer.Score(q, &models.Answer{QuestionID: q.ID, SelectedIDs: []string{"a", "c"}})
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Equal(t, 1.0, result.Points)
}

func TestScore_MultiChoiceNoCorrectChoicesNeverMatches(t *testing.T) {
	scorer := NewScoringService(testLogger())
	q := &models.Question{
		ID:      "q3",
		Type:    models.MultiChoice,
		Choices: []models.Choice{{ID: "a"}, {ID: "b"}},
	}

	empty, err := scorer.Score(q, models.NewAnswer(q.ID))
	require.NoError(t, err)
	assert.Equal(t, ScoreResult{Correct: false, Points: 0}, empty)

	selected, err := scorer.Score(q, &models.Answer{QuestionID: q.ID, SelectedIDs: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, ScoreResult{Correct: false, Points: 0}, selected)
}

func TestScore_Matching(t *testing.T) {
	scorer := NewScoringService(testLogger())
	q := &models.Question{
		ID:   "m1",
		Type: models.Matching,
		Choices: []models.Choice{
			{ID: "l1"}, {ID: "l2"},
		},
		RightChoices: []models.Choice{
			{ID: "r1"}, {ID: "r2"},
		},
		Pairs: map[string]string{"l1": "r1", "l2": "r2"},
	}

	t.Run("all pairs correct", func(t *testing.T) {
		result, err := scorer.Score(q, &models.Answer{
			QuestionID: q.ID,
			MatchPairs: map[string]string{"l1": "r1", "l2": "r2"},
		})
		require.NoError(t, err)
		assert.Equal(t, ScoreResult{Correct: true, Points: 1}, result)
	})

	t.Run("one pair wrong", func(t *testing.T) {
		result, err := scorer.Score(q, &models.Answer{
			QuestionID: q.ID,
			MatchPairs: map[string]string{"l1": "r1", "l2": "r1"},
		})
		require.NoError(t, err)
		assert.False(t, result.Correct)
		assert.Equal(t, 0.0, result.Points)
	})

	t.Run("unselected left counts as mismatch", func(t *testing.T) {
		result, err := scorer.Score(q, &models.Answer{
			QuestionID: q.ID,
			MatchPairs: map[string]string{"l1": "r1"},
		})
		require.NoError(t, err)
		assert.False(t, result.Correct)
	})
}

func TestScore_Ordering(t *testing.T) {
	scorer := NewScoringService(testLogger())
	q := &models.Question{
		ID:           "o1",
		Type:         models.Ordering,
		Choices:      []models.Choice{{ID: "s1"}, {ID: "s2"}, {ID: "s3"}},
		CorrectOrder: []string{"s2", "s1", "s3"},
	}

	exact, err := scorer.Score(q, &models.Answer{QuestionID: q.ID, Ordering: []string{"s2", "s1", "s3"}})
	require.NoError(t, err)
	assert.Equal(t, ScoreResult{Correct: true, Points: 1}, exact)

	swapped, err := scorer.Score(q, &models.Answer{QuestionID: q.ID, Ordering: []string{"s1", "s2", "s3"}})
	require.NoError(t, err)
	assert.False(t, swapped.Correct)

	short, err := scorer.Score(q, &models.Answer{QuestionID: q.ID, Ordering: []string{"s2", "s1"}})
	require.NoError(t, err)
	assert.False(t, short.Correct)
}

func TestScore_Matrix(t *testing.T) {
	scorer := NewScoringService(testLogger())
	q := &models.Question{
		ID:           "x1",
		Type:         models.Matrix,
		Rows:         []models.Choice{{ID: "row1"}, {ID: "row2"}},
		Cols:         []models.Choice{{ID: "yes"}, {ID: "no"}},
		CorrectCells: map[string]string{"row1": "yes", "row2": "no"},
	}

	full, err := scorer.Score(q, &models.Answer{
		QuestionID:  q.ID,
		MatrixCells: map[string]string{"row1": "yes", "row2": "no"},
	})
	require.NoError(t, err)
	assert.Equal(t, ScoreResult{Correct: true, Points: 1}, full)

	partial, err := scorer.Score(q, &models.Answer{
		QuestionID:  q.ID,
		MatrixCells: map[string]string{"row1": "yes"},
	})
	require.NoError(t, err)
	assert.False(t, partial.Correct)
	assert.Equal(t, 0.0, partial.Points)
}

func TestScore_CaseAggregatesParts(t *testing.T) {
	scorer := NewScoringService(testLogger())
	q := &models.Question{
		ID:   "c1",
		Type: models.CaseStudy,
		Parts: []models.Question{
			{
				ID:   "p1",
				Type: models.SingleChoice,
				Choices: []models.Choice{
					{ID: "a", IsCorrect: true},
					{ID: "b"},
				},
				Scoring: &models.ScoringPolicy{Points: 1},
			},
			{
				ID:   "p2",
				Type: models.MultiChoice,
				Choices: []models.Choice{
					{ID: "a", IsCorrect: true},
					{ID: "b", IsCorrect: true},
				},
				Scoring: &models.ScoringPolicy{Points: 2},
			},
		},
	}

	// part1 fully correct (1 point), part2 wrong (0 of 2): gained 1 of 3.
	answer := &models.Answer{
		QuestionID: q.ID,
		PartAnswers: map[string]*models.Answer{
			"p1": {QuestionID: "p1", SelectedIDs: []string{"a"}},
			"p2": {QuestionID: "p2", SelectedIDs: []string{"a", "c"}},
		},
	}

	result, err := scorer.Score(q, answer)
	require.NoError(t, err)
	assert.Equal(t, ScoreResult{Correct: false, Points: 1}, result)

	// All parts correct reaches the possible total.
	answer.PartAnswers["p2"] = &models.Answer{QuestionID: "p2", SelectedIDs: []string{"a", "b"}}
	result, err = scorer.Score(q, answer)
	require.NoError(t, err)
	assert.Equal(t, ScoreResult{Correct: true, Points: 3}, result)
}

func TestScore_CaseRespectsDeclaredCap(t *testing.T) {
	scorer := NewScoringService(testLogger())
	q := &models.Question{
		ID:      "c2",
		Type:    models.CaseStudy,
		Scoring: &models.ScoringPolicy{Points: 1},
		Parts: []models.Question{
			{ID: "p1", Type: models.SingleChoice, Choices: []models.Choice{{ID: "a", IsCorrect: true}}},
			{ID: "p2", Type: models.SingleChoice, Choices: []models.Choice{{ID: "a", IsCorrect: true}}},
		},
	}

	answer := &models.Answer{
		QuestionID: q.ID,
		PartAnswers: map[string]*models.Answer{
			"p1": {QuestionID: "p1", SelectedIDs: []string{"a"}},
			"p2": {QuestionID: "p2", SelectedIDs: []string{"a"}},
		},
	}

	result, err := scorer.Score(q, answer)
	require.NoError(t, err)
	assert.True(t, result.Correct)
	assert.Equal(t, 1.0, result.Points)
}

func TestScore_UnknownTypeFails(t *testing.T) {
	scorer := NewScoringService(testLogger())
	q := &models.Question{ID: "u1", Type: "essay"}

	_, err := scorer.Score(q, models.NewAnswer("u1"))
	assert.ErrorIs(t, err, ErrUnscorableQuestionType)
}

func TestScore_IsIdempotent(t *testing.T) {
	scorer := NewScoringService(testLogger())
	q := multiChoiceQuestion(models.Partial, 3)
	answer := &models.Answer{QuestionID: q.ID, SelectedIDs: []string{"a", "b"}}

	first, err := scorer.Score(q, answer)
	require.NoError(t, err)
	second, err := scorer.Score(q, answer)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"a", "b"}, answer.SelectedIDs)
}

func TestScore_NilAnswerScoresAsEmpty(t *testing.T) {
	scorer := NewScoringService(testLogger())

	result, err := scorer.Score(singleChoiceQuestion(), nil)
	require.NoError(t, err)
	assert.Equal(t, ScoreResult{Correct: false, Points: 0}, result)
}
