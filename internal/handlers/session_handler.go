package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quiz-trainer/trainer-service/internal/models"
	"github.com/quiz-trainer/trainer-service/internal/services"
	"github.com/quiz-trainer/trainer-service/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
	importExport   services.ImportExportService
}

// StartSessionRequest starts a session from either a stored bank (BankID) or
// an inline bank payload.
type StartSessionRequest struct {
	BankID   *uint           `json:"bank_id,omitempty"`
	Bank     *models.Bank    `json:"bank,omitempty"`
	Settings models.Settings `json:"settings"`
}

func NewSessionHandler(
	sessionService services.SessionService,
	importExport services.ImportExportService,
	logger utils.Logger,
) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		importExport:   importExport,
	}
}

func (h *SessionHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	h.LogRequest(c, "Starting session",
		"test_type", req.Settings.TestType,
		"question_count", req.Settings.QuestionCount)

	var err error
	switch {
	case req.BankID != nil:
		err = h.sessionService.StartFromStored(c.Request.Context(), *req.BankID, req.Settings)
	case req.Bank != nil:
		err = h.sessionService.Start(c.Request.Context(), req.Bank, req.Settings)
	default:
		h.RespondWithError(c, http.StatusBadRequest, "Either bank_id or bank is required", nil)
		return
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondWithView(c)
}

func (h *SessionHandler) RestartSession(c *gin.Context) {
	h.LogRequest(c, "Restarting session")

	if err := h.sessionService.Restart(c.Request.Context()); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondWithView(c)
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	h.respondWithView(c)
}

func (h *SessionHandler) Respond(c *gin.Context) {
	var update services.ResponseUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	if err := h.sessionService.Respond(c.Request.Context(), update); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondWithView(c)
}

func (h *SessionHandler) Commit(c *gin.Context) {
	if err := h.sessionService.Commit(c.Request.Context()); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondWithView(c)
}

func (h *SessionHandler) Navigate(c *gin.Context) {
	var req services.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	if err := h.sessionService.Navigate(c.Request.Context(), req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondWithView(c)
}

func (h *SessionHandler) ToggleReviewFlag(c *gin.Context) {
	if err := h.sessionService.ToggleReviewFlag(c.Request.Context()); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondWithView(c)
}

func (h *SessionHandler) Finish(c *gin.Context) {
	h.LogRequest(c, "Finishing session")

	if err := h.sessionService.Finish(c.Request.Context()); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondWithView(c)
}

func (h *SessionHandler) ExpireTimer(c *gin.Context) {
	if err := h.sessionService.ExpireTimer(c.Request.Context()); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondWithView(c)
}

func (h *SessionHandler) ExportSession(c *gin.Context) {
	export, err := h.sessionService.Export(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, export)
}

func (h *SessionHandler) ImportSession(c *gin.Context) {
	var export models.SessionExport
	if err := c.ShouldBindJSON(&export); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err)
		return
	}

	h.LogRequest(c, "Importing session")

	if err := h.sessionService.ImportSession(c.Request.Context(), &export); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondWithView(c)
}

// Results renders the plain-text report of the current session.
func (h *SessionHandler) Results(c *gin.Context) {
	export, err := h.sessionService.Export(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	settings := models.Settings{
		TestType:         export.TestType,
		Seed:             export.Seed,
		ShuffleQuestions: export.RandomizeQuestions,
		ShuffleChoices:   export.RandomizeChoices,
		DurationMinutes:  export.DurationMinutes,
	}
	session := &models.Session{
		QuestionOrder: export.QuestionOrder,
		Answers:       export.Answers,
		CurrentIndex:  export.CurrentIndex,
		StartedAt:     export.Started,
	}

	report := h.importExport.ResultsReport(export.Bank, settings, session)
	c.String(http.StatusOK, report)
}

func (h *SessionHandler) respondWithView(c *gin.Context) {
	view, err := h.sessionService.View(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
