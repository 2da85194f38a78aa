package services

import (
	"errors"

	apperrors "github.com/quiz-trainer/trainer-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Bank errors
	ErrInvalidBankFormat = errors.New("invalid bank format")
	ErrBankNotFound      = errors.New("bank not found")
	ErrBankEmpty         = errors.New("bank contains no questions")

	// Scoring errors
	ErrUnscorableQuestionType = errors.New("unscorable question type")

	// Session errors
	ErrSessionNotStarted    = errors.New("session not started")
	ErrEmptyQuestionPool    = errors.New("no questions match the session settings")
	ErrQuestionNotInBank    = errors.New("question not present in bank")
	ErrTimerNotConfigured   = errors.New("no per-question timer configured")
	ErrInvalidSessionExport = errors.New("invalid session export payload")

	// Settings errors
	ErrSettingsLocked = errors.New("settings cannot change while a timed exam is running")
)

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBankNotFound)
}

// IsRejectedImport checks if error means the import was refused and prior
// state retained.
func IsRejectedImport(err error) bool {
	return errors.Is(err, ErrInvalidBankFormat) || IsValidation(err)
}
