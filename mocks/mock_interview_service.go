package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"interviewgpt/internal/domain"
	"interviewgpt/internal/service"
)

// MockInterviewService is a mock implementation of service.InterviewService.
// An optional third Return value of type []string is replayed through onFragment.
type MockInterviewService struct {
	mock.Mock
}

func (m *MockInterviewService) ExtractText(ctx context.Context, input service.UploadInput) (*domain.ExtractedText, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractedText), args.Error(1)
}

func (m *MockInterviewService) StartInterview(ctx context.Context, input service.UploadInput) (*domain.SessionInfo, string, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*domain.SessionInfo), args.String(1), args.Error(2)
}

func (m *MockInterviewService) SendMessage(ctx context.Context, sessionID uuid.UUID, text string, onFragment func(string)) (string, error) {
	args := m.Called(ctx, sessionID, text, onFragment != nil)
	replay(args, onFragment)
	return args.String(0), args.Error(1)
}

func (m *MockInterviewService) RetryReply(ctx context.Context, sessionID uuid.UUID, onFragment func(string)) (string, error) {
	args := m.Called(ctx, sessionID, onFragment != nil)
	replay(args, onFragment)
	return args.String(0), args.Error(1)
}

func (m *MockInterviewService) Chat(ctx context.Context, messages []domain.Message, onFragment func(string)) (string, error) {
	args := m.Called(ctx, messages, onFragment != nil)
	replay(args, onFragment)
	return args.String(0), args.Error(1)
}

func (m *MockInterviewService) GetConversation(ctx context.Context, sessionID uuid.UUID) (*domain.SessionInfo, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionInfo), args.Error(1)
}

func (m *MockInterviewService) EndInterview(ctx context.Context, sessionID uuid.UUID) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockInterviewService) ExportTranscript(ctx context.Context, sessionID uuid.UUID, format domain.ExportFormat) ([]byte, error) {
	args := m.Called(ctx, sessionID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func replay(args mock.Arguments, onFragment func(string)) {
	if onFragment == nil || len(args) < 3 {
		return
	}
	frags, _ := args.Get(2).([]string)
	for _, f := range frags {
		onFragment(f)
	}
}
