package llm_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"interviewgpt/internal/domain"
	"interviewgpt/internal/llm"
	"interviewgpt/internal/port"
	"interviewgpt/mocks"
)

var pageImage = []byte("\x89PNG fake")

func TestFallbackTranscriber_FirstSucceeds(t *testing.T) {
	t1 := new(mocks.MockTranscriber)
	t2 := new(mocks.MockTranscriber)
	t1.On("Transcribe", mock.Anything, pageImage, "image/png").Return("Jane Doe", nil)

	ft := llm.NewFallbackTranscriber([]port.ImageTranscriber{t1, t2}, []string{"openai", "gemini"})

	text, err := ft.Transcribe(context.Background(), pageImage, "image/png")

	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", text)
	t2.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything, mock.Anything)
}

func TestFallbackTranscriber_FirstFails_SecondSucceeds(t *testing.T) {
	t1 := new(mocks.MockTranscriber)
	t2 := new(mocks.MockTranscriber)
	t1.On("Transcribe", mock.Anything, pageImage, "image/png").Return("", errors.New("generic error"))
	t2.On("Transcribe", mock.Anything, pageImage, "image/png").Return("from gemini", nil)

	ft := llm.NewFallbackTranscriber([]port.ImageTranscriber{t1, t2}, []string{"openai", "gemini"})

	text, err := ft.Transcribe(context.Background(), pageImage, "image/png")

	require.NoError(t, err)
	assert.Equal(t, "from gemini", text)
}

func TestFallbackTranscriber_RateLimitedProviderIsSkippedNextTime(t *testing.T) {
	t1 := new(mocks.MockTranscriber)
	t2 := new(mocks.MockTranscriber)
	t1.On("Transcribe", mock.Anything, pageImage, "image/png").
		Return("", llm.NewRateLimitError("openai", errors.New("429"), 60)).Once()
	t2.On("Transcribe", mock.Anything, pageImage, "image/png").Return("ok", nil)

	ft := llm.NewFallbackTranscriber([]port.ImageTranscriber{t1, t2}, []string{"openai", "gemini"})

	_, err := ft.Transcribe(context.Background(), pageImage, "image/png")
	require.NoError(t, err)
	_, err = ft.Transcribe(context.Background(), pageImage, "image/png")
	require.NoError(t, err)

	t1.AssertNumberOfCalls(t, "Transcribe", 1)
	t2.AssertNumberOfCalls(t, "Transcribe", 2)
}

func TestFallbackTranscriber_AllRateLimited(t *testing.T) {
	t1 := new(mocks.MockTranscriber)
	t2 := new(mocks.MockTranscriber)
	t1.On("Transcribe", mock.Anything, pageImage, "image/png").Return("", llm.NewRateLimitError("openai", errors.New("429"), 30))
	t2.On("Transcribe", mock.Anything, pageImage, "image/png").Return("", llm.NewRateLimitError("gemini", errors.New("429"), 10))

	ft := llm.NewFallbackTranscriber([]port.ImageTranscriber{t1, t2}, []string{"openai", "gemini"})

	_, err := ft.Transcribe(context.Background(), pageImage, "image/png")

	assert.ErrorIs(t, err, domain.ErrRateLimited)
	var rlErr *llm.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "all", rlErr.Provider)
	assert.LessOrEqual(t, rlErr.RetryAfter.Seconds(), float64(10))
}

func TestFallbackTranscriber_AllFailed(t *testing.T) {
	t1 := new(mocks.MockTranscriber)
	t2 := new(mocks.MockTranscriber)
	t1.On("Transcribe", mock.Anything, pageImage, "image/png").Return("", llm.NewRateLimitError("openai", errors.New("429"), 30))
	t2.On("Transcribe", mock.Anything, pageImage, "image/png").Return("", domain.ErrNetwork)

	ft := llm.NewFallbackTranscriber([]port.ImageTranscriber{t1, t2}, []string{"openai", "gemini"})

	_, err := ft.Transcribe(context.Background(), pageImage, "image/png")

	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Contains(t, err.Error(), "all transcribers failed")
}

func TestFallbackTranscriber_Empty(t *testing.T) {
	ft := llm.NewFallbackTranscriber(nil, nil)

	text, err := ft.Transcribe(context.Background(), pageImage, "image/png")

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestNoopTranscriber(t *testing.T) {
	text, err := llm.NoopTranscriber{}.Transcribe(context.Background(), pageImage, "image/png")
	require.NoError(t, err)
	assert.Empty(t, text)
}
