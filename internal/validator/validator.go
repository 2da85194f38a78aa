package validator

import (
	"github.com/go-playground/validator/v10"

	apperrors "github.com/quiz-trainer/trainer-service/internal/errors"
	"github.com/quiz-trainer/trainer-service/internal/models"
)

// Validator combines struct-tag validation with bank business rules.
type Validator struct {
	structValidator *validator.Validate
	bankValidator   *BankValidator
}

// New creates a new centralized validator instance
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
		bankValidator:   NewBankValidator(),
	}
}

// ValidateStruct validates struct tags only
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if ve := apperrors.ToValidationErrors(err); len(ve) > 0 {
			return ve
		}
		return err
	}
	return nil
}

// ValidateBank performs struct plus business-rule validation of a bank.
// Soft problems (e.g. a choice question with no correct choice) come back as
// warnings rather than errors.
func (v *Validator) ValidateBank(bank *models.Bank) (warnings []string, err error) {
	return v.bankValidator.Validate(bank)
}

func registerCustomValidators(v *validator.Validate) {
	v.RegisterValidation("question_type", func(fl validator.FieldLevel) bool {
		return models.IsValidQuestionType(models.QuestionType(fl.Field().String()))
	})

	v.RegisterValidation("difficulty_level", func(fl validator.FieldLevel) bool {
		switch models.DifficultyLevel(fl.Field().String()) {
		case models.DifficultyAny, models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard, "":
			return true
		}
		return false
	})

	v.RegisterValidation("scoring_mode", func(fl validator.FieldLevel) bool {
		switch models.ScoringMode(fl.Field().String()) {
		case models.AllOrNothing, models.Partial, "":
			return true
		}
		return false
	})

	v.RegisterValidation("timer_seconds", func(fl validator.FieldLevel) bool {
		sec := fl.Field().Int()
		return sec >= 5 && sec <= 3600
	})

	v.RegisterValidation("question_count", func(fl validator.FieldLevel) bool {
		n := fl.Field().Int()
		return n >= 1 && n <= 500
	})
}
