package port

import (
	"context"

	"interviewgpt/internal/domain"
)

// CompletionRequest is one chat completion call. The first message is always the system persona.
type CompletionRequest struct {
	Messages    []domain.Message
	Model       string
	Temperature float64
	MaxTokens   int
	Stream      bool
}

// FragmentStream yields assistant text fragments in arrival order.
// Next returns io.EOF once the upstream signals completion. A stream is
// single-pass and must be closed by the consumer.
type FragmentStream interface {
	Next() (string, error)
	Close() error
}

// CompletionResult holds either the full assistant text or a fragment stream.
type CompletionResult struct {
	Text      string
	Fragments FragmentStream
	Model     string
}

// Streaming reports whether the result must be consumed through Fragments.
func (r *CompletionResult) Streaming() bool {
	return r.Fragments != nil
}

// CompletionClient abstracts a chat-completion provider.
type CompletionClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResult, error)
}

// ImageTranscriber turns a rendered page image into plain text.
type ImageTranscriber interface {
	Transcribe(ctx context.Context, image []byte, contentType string) (string, error)
}

// Provider is an LLM backend able to chat and read images.
type Provider interface {
	CompletionClient
	ImageTranscriber
}
