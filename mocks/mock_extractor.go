package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"interviewgpt/internal/domain"
	"interviewgpt/internal/port"
)

// MockTextExtractor is a mock implementation of port.TextExtractor.
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) Extract(ctx context.Context, data []byte) (*domain.ExtractedText, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractedText), args.Error(1)
}

// MockDocumentOpener is a mock implementation of port.DocumentOpener.
type MockDocumentOpener struct {
	mock.Mock
}

func (m *MockDocumentOpener) Open(data []byte) (port.PDFDocument, error) {
	args := m.Called(data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(port.PDFDocument), args.Error(1)
}

// MockPDFDocument is a mock implementation of port.PDFDocument.
type MockPDFDocument struct {
	mock.Mock
}

func (m *MockPDFDocument) NumPage() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockPDFDocument) Fragments(page int) ([]port.TextFragment, error) {
	args := m.Called(page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.TextFragment), args.Error(1)
}

func (m *MockPDFDocument) RenderPNG(page int) ([]byte, error) {
	args := m.Called(page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPDFDocument) Close() error {
	args := m.Called()
	return args.Error(0)
}
