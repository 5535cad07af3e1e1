package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"interviewgpt/internal/domain"
)

// SessionRecord is the persisted form of an interview session.
type SessionRecord struct {
	ID        uuid.UUID                `json:"id"`
	State     domain.ConversationState `json:"state"`
	Turns     []domain.Turn            `json:"turns"`
	Resume    *domain.ExtractedText    `json:"resume,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// SessionStore keeps interview sessions for a bounded time.
type SessionStore interface {
	Create(ctx context.Context, rec *SessionRecord) error
	Get(ctx context.Context, id uuid.UUID) (*SessionRecord, error)
	Save(ctx context.Context, rec *SessionRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// SessionLocker serialises operations on a single session.
type SessionLocker interface {
	TryLock(ctx context.Context, id uuid.UUID) (unlock func(), err error)
}
