package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document is a single uploaded file held in memory for the duration of extraction.
type Document struct {
	FileName    string
	ContentType string
	Size        int64
	Data        []byte
}

// ExtractedText is the resume content produced by the extractor. Text is never empty.
type ExtractedText struct {
	Text      string           `json:"text"`
	Method    ExtractionMethod `json:"method"`
	PageCount int              `json:"page_count"`
	PagesRead int              `json:"pages_read"`
}

// Message is a role-tagged chat entry exchanged with the completion provider.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Turn is one entry in a conversation. Seq is strictly increasing.
type Turn struct {
	Seq       int       `json:"seq"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Hidden    bool      `json:"hidden,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Message converts the turn to its wire representation.
func (t Turn) Message() Message {
	return Message{Role: t.Role, Content: t.Content}
}

// SessionInfo describes an interview session for API responses.
type SessionInfo struct {
	ID        uuid.UUID         `json:"session_id"`
	State     ConversationState `json:"state"`
	Turns     []Turn            `json:"turns"`
	Resume    *ExtractedText    `json:"resume,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
