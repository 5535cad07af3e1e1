package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"interviewgpt/internal/domain"
	"interviewgpt/internal/service"
)

// ChatHandler handles the stateless chat endpoint used by clients that keep their own history.
type ChatHandler struct {
	svc service.InterviewService
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(svc service.InterviewService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Chat handles POST /api/v1/chat
// @Summary Stateless interview chat
// @Description Send the full message history and get the interviewer's next reply. The system persona is added by the server.
// @Tags chat
// @Accept json
// @Produce json,text/event-stream
// @Param request body ChatRequest true "Message history"
// @Success 200 {object} ReplyResponse
// @Failure 400 {object} ErrorResponse "Invalid request or role"
// @Failure 422 {object} ErrorResponse "Conversation too long"
// @Failure 429 {object} ErrorResponse "Rate limited"
// @Failure 500 {object} ErrorResponse "Missing API key"
// @Failure 502 {object} ErrorResponse "Upstream error"
// @Router /chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Messages) == 0 {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request: messages array required")
		return
	}

	msgs := make([]domain.Message, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = domain.Message{Role: domain.Role(m.Role), Content: m.Content}
	}

	ctx := c.Request.Context()
	respondReply(c, req.Stream, func(onFragment func(string)) (string, error) {
		return h.svc.Chat(ctx, msgs, onFragment)
	})
}
