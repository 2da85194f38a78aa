package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quiz-trainer/trainer-service/internal/services"
	"github.com/quiz-trainer/trainer-service/internal/utils"
)

// ===== COMMON RESPONSE STRUCTURES =====

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ===== BASE HANDLER STRUCT =====

// BaseHandler provides common logging and response helpers for all handlers
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs incoming HTTP requests with context information
func (h *BaseHandler) LogRequest(c *gin.Context, message string, additionalFields ...interface{}) {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"remote_addr", c.ClientIP(),
		"request_id", c.GetHeader("X-Request-ID"),
	}
	fields = append(fields, additionalFields...)
	h.logger.Info(message, fields...)
}

// RespondWithError sends a consistent error response and logs it
func (h *BaseHandler) RespondWithError(c *gin.Context, statusCode int, message string, err error) {
	resp := ErrorResponse{Message: message}
	if err != nil {
		resp.Details = err.Error()
		h.logger.LogError(err, message,
			"status_code", statusCode,
			"path", c.Request.URL.Path)
	}
	c.JSON(statusCode, resp)
}

// handleServiceError maps service-level failures onto HTTP status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case services.IsValidation(err) || errors.Is(err, services.ErrInvalidBankFormat) ||
		errors.Is(err, services.ErrInvalidSessionExport) ||
		errors.Is(err, services.ErrBankEmpty):
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request", err)
	case services.IsNotFound(err):
		h.RespondWithError(c, http.StatusNotFound, "Not found", err)
	case errors.Is(err, services.ErrSessionNotStarted) ||
		errors.Is(err, services.ErrTimerNotConfigured) ||
		errors.Is(err, services.ErrSettingsLocked):
		h.RespondWithError(c, http.StatusConflict, "Operation not allowed in current state", err)
	case errors.Is(err, services.ErrEmptyQuestionPool):
		h.RespondWithError(c, http.StatusUnprocessableEntity, "No questions match the session settings", err)
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Internal server error", err)
	}
}
