package handler

import (
	"github.com/gin-gonic/gin"

	"interviewgpt/internal/config"
	"interviewgpt/internal/service"
)

// ExtractHandler handles standalone resume text extraction.
type ExtractHandler struct {
	svc       service.InterviewService
	maxUpload int64
}

// NewExtractHandler creates a new ExtractHandler.
func NewExtractHandler(svc service.InterviewService, uploadCfg *config.UploadConfig) *ExtractHandler {
	return &ExtractHandler{svc: svc, maxUpload: uploadCfg.MaxBytes()}
}

// ExtractText handles POST /api/v1/extract-text
// @Summary Extract resume text
// @Description Extract the text of a PDF resume, falling back to OCR for scanned documents
// @Tags extract
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF resume"
// @Success 200 {object} ExtractTextResponse
// @Failure 400 {object} ErrorResponse "Missing file"
// @Failure 413 {object} ErrorResponse "File too large"
// @Failure 415 {object} ErrorResponse "Not a PDF"
// @Failure 422 {object} ErrorResponse "Unreadable or empty PDF"
// @Failure 429 {object} ErrorResponse "OCR provider rate limited"
// @Router /extract-text [post]
func (h *ExtractHandler) ExtractText(c *gin.Context) {
	input, cleanup, ok := readUpload(c, h.maxUpload)
	if !ok {
		return
	}
	defer cleanup()

	text, err := h.svc.ExtractText(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, ExtractTextResponse{
		Status:    statusOK,
		Text:      text.Text,
		Method:    text.Method,
		Pages:     text.PagesRead,
		PageCount: text.PageCount,
	})
}
