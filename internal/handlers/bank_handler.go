package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quiz-trainer/trainer-service/internal/services"
	"github.com/quiz-trainer/trainer-service/internal/utils"
)

type BankHandler struct {
	BaseHandler
	bankService  services.BankService
	importExport services.ImportExportService
}

func NewBankHandler(
	bankService services.BankService,
	importExport services.ImportExportService,
	logger utils.Logger,
) *BankHandler {
	return &BankHandler{
		BaseHandler:  NewBaseHandler(logger),
		bankService:  bankService,
		importExport: importExport,
	}
}

// ImportBank loads a JSON bank (bare array or {questions: []}) into the catalog.
func (h *BankHandler) ImportBank(c *gin.Context) {
	h.LogRequest(c, "Importing JSON bank")

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	record, bank, err := h.bankService.Import(c.Request.Context(), raw)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Bank imported",
		Data: gin.H{
			"bank_id":        record.ID,
			"title":          bank.Title,
			"question_count": len(bank.Questions),
		},
	})
}

// ImportBankFile loads a bank from an uploaded CSV or Excel file.
func (h *BankHandler) ImportBankFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing file upload", err)
		return
	}

	h.LogRequest(c, "Importing bank file", "filename", fileHeader.Filename)

	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Failed to open uploaded file", err)
		return
	}
	defer file.Close()

	result, err := h.importExport.ImportBankFromFile(c.Request.Context(), file, fileHeader.Filename)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if result.SuccessCount == 0 {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, SuccessResponse{
		Message: "File import completed",
		Data:    result,
	})
}

// MergeBank appends the uploaded bank's new questions to a stored bank.
func (h *BankHandler) MergeBank(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Merging bank", "bank_id", id)

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Failed to read request body", err)
		return
	}

	record, merged, err := h.bankService.MergeStored(c.Request.Context(), id, raw)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Bank merged",
		Data: gin.H{
			"bank_id":        record.ID,
			"title":          merged.Title,
			"question_count": len(merged.Questions),
		},
	})
}

func (h *BankHandler) ListBanks(c *gin.Context) {
	records, err := h.bankService.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Banks listed", Data: records})
}

func (h *BankHandler) GetBank(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}

	bank, record, err := h.bankService.Get(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Bank retrieved",
		Data: gin.H{
			"record": record,
			"bank":   bank,
		},
	})
}

func (h *BankHandler) DeleteBank(c *gin.Context) {
	id := parseUintParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting bank", "bank_id", id)

	if err := h.bankService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Bank deleted"})
}
