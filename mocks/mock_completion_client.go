package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"interviewgpt/internal/port"
)

// MockProvider is a mock implementation of port.Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Complete(ctx context.Context, req port.CompletionRequest) (*port.CompletionResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.CompletionResult), args.Error(1)
}

func (m *MockProvider) Transcribe(ctx context.Context, image []byte, contentType string) (string, error) {
	args := m.Called(ctx, image, contentType)
	return args.String(0), args.Error(1)
}

// MockTranscriber is a mock implementation of port.ImageTranscriber.
type MockTranscriber struct {
	mock.Mock
}

func (m *MockTranscriber) Transcribe(ctx context.Context, image []byte, contentType string) (string, error) {
	args := m.Called(ctx, image, contentType)
	return args.String(0), args.Error(1)
}

// FragmentStream is an in-memory port.FragmentStream. Err, when set, is returned after the fragments.
type FragmentStream struct {
	Fragments []string
	Err       error
	Closed    bool
	pos       int
}

// NewFragmentStream builds a stream that yields the given fragments then io.EOF.
func NewFragmentStream(fragments ...string) *FragmentStream {
	return &FragmentStream{Fragments: fragments}
}

func (s *FragmentStream) Next() (string, error) {
	if s.pos < len(s.Fragments) {
		frag := s.Fragments[s.pos]
		s.pos++
		return frag, nil
	}
	if s.Err != nil {
		return "", s.Err
	}
	return "", io.EOF
}

func (s *FragmentStream) Close() error {
	s.Closed = true
	return nil
}
