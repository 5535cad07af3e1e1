package handler

import (
	"github.com/google/uuid"

	"interviewgpt/internal/domain"
)

// Request and response bodies. swag reads these to generate the OpenAPI document.

// --- Request Types ---

// SendMessageRequest is the body of POST /interviews/{id}/messages.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required" example:"I led the migration of our billing service to Go."`
	Stream  bool   `json:"stream" example:"true"`
}

// RetryRequest is the optional body of POST /interviews/{id}/retry.
type RetryRequest struct {
	Stream bool `json:"stream" example:"false"`
}

// ChatMessage is one client-supplied chat entry.
type ChatMessage struct {
	Role    string `json:"role" example:"user"`
	Content string `json:"content" example:"Here is my resume..."`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages"`
	Stream   bool          `json:"stream" example:"false"`
}

// --- Response Types ---

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Status string `json:"status" example:"error"`
	Code   string `json:"code" example:"INVALID_FILE_TYPE"`
	Error  string `json:"error" example:"Invalid file type. Only PDF files are accepted."`
}

// StatusResponse is a bare success acknowledgement.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ExtractTextResponse is returned by POST /extract-text.
type ExtractTextResponse struct {
	Status    string                  `json:"status" example:"ok"`
	Text      string                  `json:"text" example:"Jane Doe\nSenior Software Engineer"`
	Method    domain.ExtractionMethod `json:"method" example:"text_layer"`
	Pages     int                     `json:"pages" example:"2"`
	PageCount int                     `json:"page_count" example:"2"`
}

// StartInterviewResponse is returned by POST /interviews. Text is the opening question.
type StartInterviewResponse struct {
	Status    string        `json:"status" example:"ok"`
	SessionID uuid.UUID     `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Text      string        `json:"text" example:"Tell me about a project you are proud of."`
	Turns     []domain.Turn `json:"turns"`
}

// ConversationResponse is returned by GET /interviews/{id}.
type ConversationResponse struct {
	Status    string                   `json:"status" example:"ok"`
	SessionID uuid.UUID                `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	State     domain.ConversationState `json:"state" example:"active"`
	Turns     []domain.Turn            `json:"turns"`
}

// ReplyResponse carries a complete assistant reply.
type ReplyResponse struct {
	Status   string `json:"status" example:"ok"`
	Response string `json:"response" example:"Thanks. What was the hardest trade-off you made?"`
}

// FragmentEvent is the data of an SSE "fragment" event.
type FragmentEvent struct {
	Text string `json:"text"`
}

// DoneEvent is the data of the final SSE "done" event.
type DoneEvent struct {
	Response string `json:"response"`
}
