package validator

import (
	"fmt"

	apperrors "github.com/quiz-trainer/trainer-service/internal/errors"
	"github.com/quiz-trainer/trainer-service/internal/models"
)

// BankValidator enforces the structural rules a bank must satisfy before a
// session may be built from it.
type BankValidator struct{}

func NewBankValidator() *BankValidator {
	return &BankValidator{}
}

// Validate checks every question in the bank. Hard failures (duplicate ids,
// unknown types, case-in-case nesting) become ValidationErrors; a scoreable
// question with no marked-correct choice is only a warning.
func (bv *BankValidator) Validate(bank *models.Bank) ([]string, error) {
	var errs apperrors.ValidationErrors
	var warnings []string

	seen := make(map[string]bool, len(bank.Questions))
	for i := range bank.Questions {
		q := &bank.Questions[i]

		if q.ID == "" {
			errs = append(errs, *apperrors.NewValidationError(
				fmt.Sprintf("questions[%d].id", i), "is required", nil))
			continue
		}
		if seen[q.ID] {
			errs = append(errs, *apperrors.NewValidationError(
				fmt.Sprintf("questions[%d].id", i), "duplicate question id", q.ID))
		}
		seen[q.ID] = true

		bv.validateQuestion(q, fmt.Sprintf("questions[%d]", i), true, &errs, &warnings)
	}

	if len(errs) > 0 {
		return warnings, errs
	}
	return warnings, nil
}

func (bv *BankValidator) validateQuestion(q *models.Question, path string, allowCase bool, errs *apperrors.ValidationErrors, warnings *[]string) {
	if !models.IsValidQuestionType(q.Type) {
		*errs = append(*errs, *apperrors.NewValidationErrorWithRule(
			path+".type", "unknown question type", "question_type", string(q.Type)))
		return
	}

	switch q.Type {
	case models.SingleChoice, models.MultiChoice:
		bv.checkUniqueChoiceIDs(q.Choices, path+".choices", errs)
		if len(q.CorrectChoiceIDs()) == 0 {
			*warnings = append(*warnings,
				fmt.Sprintf("question %q has no choice marked correct and is unscoreable", q.ID))
		}

	case models.Matching:
		bv.checkUniqueChoiceIDs(q.Choices, path+".choices", errs)
		bv.checkUniqueChoiceIDs(q.RightChoices, path+".right_choices", errs)
		if len(q.Pairs) == 0 {
			*warnings = append(*warnings,
				fmt.Sprintf("matching question %q defines no correct pairs", q.ID))
		}

	case models.Ordering:
		bv.checkUniqueChoiceIDs(q.Choices, path+".choices", errs)
		if len(q.CorrectOrder) != len(q.Choices) {
			*errs = append(*errs, *apperrors.NewValidationError(
				path+".order", "correct order must list every choice exactly once", q.CorrectOrder))
		}

	case models.Matrix:
		bv.checkUniqueChoiceIDs(q.Rows, path+".rows", errs)
		bv.checkUniqueChoiceIDs(q.Cols, path+".cols", errs)
		if len(q.CorrectCells) == 0 {
			*warnings = append(*warnings,
				fmt.Sprintf("matrix question %q defines no correct cells", q.ID))
		}

	case models.CaseStudy:
		if !allowCase {
			*errs = append(*errs, *apperrors.NewValidationError(
				path+".type", "case questions cannot nest inside case questions", q.ID))
			return
		}
		if len(q.Parts) == 0 {
			*errs = append(*errs, *apperrors.NewValidationError(
				path+".parts", "case question needs at least one part", q.ID))
		}
		partIDs := make(map[string]bool, len(q.Parts))
		for j := range q.Parts {
			part := &q.Parts[j]
			partPath := fmt.Sprintf("%s.parts[%d]", path, j)
			if partIDs[part.ID] {
				*errs = append(*errs, *apperrors.NewValidationError(
					partPath+".id", "duplicate part id", part.ID))
			}
			partIDs[part.ID] = true
			bv.validateQuestion(part, partPath, false, errs, warnings)
		}
	}

	if q.Scoring != nil && q.Scoring.Points < 0 {
		*errs = append(*errs, *apperrors.NewValidationErrorWithRule(
			path+".scoring.points", "must be a positive number", "points_range", q.Scoring.Points))
	}
}

func (bv *BankValidator) checkUniqueChoiceIDs(choices []models.Choice, path string, errs *apperrors.ValidationErrors) {
	seen := make(map[string]bool, len(choices))
	for i, c := range choices {
		if c.ID == "" {
			*errs = append(*errs, *apperrors.NewValidationError(
				fmt.Sprintf("%s[%d].id", path, i), "is required", nil))
			continue
		}
		if seen[c.ID] {
			*errs = append(*errs, *apperrors.NewValidationError(
				fmt.Sprintf("%s[%d].id", path, i), "duplicate choice id", c.ID))
		}
		seen[c.ID] = true
	}
}
