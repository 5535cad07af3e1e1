package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"interviewgpt/internal/domain"
	"interviewgpt/internal/port"
)

// MockStager is a mock implementation of port.Stager.
type MockStager struct {
	mock.Mock
}

func (m *MockStager) Stage(ctx context.Context, doc *domain.Document) (port.StagedDocument, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(port.StagedDocument), args.Error(1)
}

// MockStagedDocument is a mock implementation of port.StagedDocument.
type MockStagedDocument struct {
	mock.Mock
}

func (m *MockStagedDocument) Key() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockStagedDocument) Bytes(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockStagedDocument) Release(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
