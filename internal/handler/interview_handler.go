package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"interviewgpt/internal/config"
	"interviewgpt/internal/domain"
	"interviewgpt/internal/service"
	"interviewgpt/internal/transcript"
)

// InterviewHandler handles interview session endpoints.
type InterviewHandler struct {
	svc       service.InterviewService
	maxUpload int64
}

// NewInterviewHandler creates a new InterviewHandler.
func NewInterviewHandler(svc service.InterviewService, uploadCfg *config.UploadConfig) *InterviewHandler {
	return &InterviewHandler{svc: svc, maxUpload: uploadCfg.MaxBytes()}
}

// Start handles POST /api/v1/interviews
// @Summary Start an interview
// @Description Upload a PDF resume, extract it and get the interviewer's opening question
// @Tags interviews
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF resume"
// @Success 201 {object} StartInterviewResponse
// @Failure 400 {object} ErrorResponse "Missing file"
// @Failure 413 {object} ErrorResponse "File too large"
// @Failure 415 {object} ErrorResponse "Not a PDF"
// @Failure 422 {object} ErrorResponse "Unreadable or empty PDF"
// @Failure 429 {object} ErrorResponse "Rate limited"
// @Failure 500 {object} ErrorResponse "Missing API key"
// @Failure 502 {object} ErrorResponse "Upstream error"
// @Failure 503 {object} ErrorResponse "Upstream unreachable"
// @Router /interviews [post]
func (h *InterviewHandler) Start(c *gin.Context) {
	input, cleanup, ok := readUpload(c, h.maxUpload)
	if !ok {
		return
	}
	defer cleanup()

	info, opening, err := h.svc.StartInterview(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, StartInterviewResponse{
		Status:    statusOK,
		SessionID: info.ID,
		Text:      opening,
		Turns:     info.Turns,
	})
}

// Get handles GET /api/v1/interviews/:id
// @Summary Get an interview
// @Description Return the visible turns of an interview
// @Tags interviews
// @Produce json
// @Param id path string true "Interview ID"
// @Success 200 {object} ConversationResponse
// @Failure 400 {object} ErrorResponse "Invalid ID"
// @Failure 404 {object} ErrorResponse "Not found or expired"
// @Router /interviews/{id} [get]
func (h *InterviewHandler) Get(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	info, err := h.svc.GetConversation(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, ConversationResponse{
		Status:    statusOK,
		SessionID: info.ID,
		State:     info.State,
		Turns:     info.Turns,
	})
}

// SendMessage handles POST /api/v1/interviews/:id/messages
// @Summary Answer the current question
// @Description Append the candidate's answer and get the next reply, as JSON or as an SSE stream
// @Tags interviews
// @Accept json
// @Produce json,text/event-stream
// @Param id path string true "Interview ID"
// @Param request body SendMessageRequest true "Answer"
// @Success 200 {object} ReplyResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 404 {object} ErrorResponse "Not found or expired"
// @Failure 409 {object} ErrorResponse "Busy or awaiting a retry"
// @Failure 422 {object} ErrorResponse "Conversation too long"
// @Failure 429 {object} ErrorResponse "Rate limited"
// @Failure 502 {object} ErrorResponse "Upstream error"
// @Router /interviews/{id}/messages [post]
func (h *InterviewHandler) SendMessage(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request: content is required")
		return
	}

	ctx := c.Request.Context()
	respondReply(c, req.Stream, func(onFragment func(string)) (string, error) {
		return h.svc.SendMessage(ctx, id, req.Content, onFragment)
	})
}

// Retry handles POST /api/v1/interviews/:id/retry
// @Summary Retry the last reply
// @Description Re-request the reply to an answer whose previous completion failed
// @Tags interviews
// @Accept json
// @Produce json,text/event-stream
// @Param id path string true "Interview ID"
// @Param request body RetryRequest false "Streaming option"
// @Success 200 {object} ReplyResponse
// @Failure 404 {object} ErrorResponse "Not found or expired"
// @Failure 409 {object} ErrorResponse "Nothing to retry"
// @Failure 429 {object} ErrorResponse "Rate limited"
// @Failure 502 {object} ErrorResponse "Upstream error"
// @Router /interviews/{id}/retry [post]
func (h *InterviewHandler) Retry(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	var req RetryRequest
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
			return
		}
	}

	ctx := c.Request.Context()
	respondReply(c, req.Stream, func(onFragment func(string)) (string, error) {
		return h.svc.RetryReply(ctx, id, onFragment)
	})
}

// Transcript handles GET /api/v1/interviews/:id/transcript
// @Summary Download the transcript
// @Description Download the visible turns as CSV or XLSX
// @Tags interviews
// @Produce text/csv,application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path string true "Interview ID"
// @Param format query string false "csv or xlsx" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse "Unsupported format"
// @Failure 404 {object} ErrorResponse "Not found or expired"
// @Router /interviews/{id}/transcript [get]
func (h *InterviewHandler) Transcript(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	format := domain.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(domain.ExportCSV))))

	data, err := h.svc.ExportTranscript(c.Request.Context(), id, format)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := transcript.BuildFilename(id, format, time.Now().UTC())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, transcript.ContentType(format), data)
}

// End handles DELETE /api/v1/interviews/:id
// @Summary End an interview
// @Description Discard the interview session and its resume text
// @Tags interviews
// @Produce json
// @Param id path string true "Interview ID"
// @Success 200 {object} StatusResponse
// @Failure 404 {object} ErrorResponse "Not found or expired"
// @Failure 409 {object} ErrorResponse "Busy"
// @Router /interviews/{id} [delete]
func (h *InterviewHandler) End(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	if err := h.svc.EndInterview(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, StatusResponse{Status: statusOK})
}
