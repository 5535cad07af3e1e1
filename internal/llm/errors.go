package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"interviewgpt/internal/domain"
)

// RateLimitError indicates a provider returned HTTP 429.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// Is lets callers match any rate limit with errors.Is(err, domain.ErrRateLimited).
func (e *RateLimitError) Is(target error) bool {
	return target == domain.ErrRateLimited
}

// NewRateLimitError creates a RateLimitError. A zero retryAfterSecs means the provider gave no hint.
func NewRateLimitError(provider string, err error, retryAfterSecs int) *RateLimitError {
	if retryAfterSecs < 0 {
		retryAfterSecs = 0
	}
	return &RateLimitError{
		Err:        err,
		RetryAfter: time.Duration(retryAfterSecs) * time.Second,
		Provider:   provider,
	}
}

// ParseRetryAfterHeader parses a Retry-After header value into seconds.
// Returns 0 if the value is empty or not a valid integer.
func ParseRetryAfterHeader(val string) int {
	if val == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0
	}
	return secs
}

// UpstreamError is a non-success answer from a provider, or a client-side timeout (504).
type UpstreamError struct {
	Provider string
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Message)
}

// Is lets callers match with errors.Is(err, domain.ErrUpstream).
func (e *UpstreamError) Is(target error) bool {
	return target == domain.ErrUpstream
}

// MissingAPIKey is returned by every provider call made without credentials.
func MissingAPIKey(provider string) error {
	return fmt.Errorf("%s: missing API key: %w", provider, domain.ErrConfiguration)
}

// StatusError converts a non-2xx HTTP response into a typed error.
func StatusError(provider string, resp *http.Response, body []byte) error {
	msg := errorMessage(body)
	if resp.StatusCode == http.StatusTooManyRequests {
		baseErr := fmt.Errorf("%s API error (status %d): %s", provider, resp.StatusCode, msg)
		return NewRateLimitError(provider, baseErr, ParseRetryAfterHeader(resp.Header.Get("Retry-After")))
	}
	return &UpstreamError{Provider: provider, Status: resp.StatusCode, Message: msg}
}

// TransportError classifies a failed round trip. Caller cancellation is returned unchanged.
func TransportError(ctx context.Context, provider string, err error) error {
	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.Canceled) {
		return ctxErr
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &UpstreamError{Provider: provider, Status: http.StatusGatewayTimeout, Message: "request timed out"}
	}
	return fmt.Errorf("calling %s API: %w: %w", provider, domain.ErrNetwork, err)
}

// errorMessage pulls error.message out of a JSON error body, falling back to the raw text.
func errorMessage(body []byte) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return payload.Error.Message
	}
	return truncate(strings.TrimSpace(string(body)), 500)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
