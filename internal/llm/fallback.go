package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"interviewgpt/internal/port"
)

// defaultCooldown is how long a rate-limited transcriber is skipped when the provider gave no Retry-After.
const defaultCooldown = 60 * time.Second

// circuitState tracks rate-limit backoff for a single transcriber.
type circuitState struct {
	mu      sync.RWMutex
	resetAt time.Time // zero value = closed (healthy)
}

func (c *circuitState) isOpenWithReset(now time.Time) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resetAt, !c.resetAt.IsZero() && now.Before(c.resetAt)
}

func (c *circuitState) open(resetAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetAt = resetAt
}

// FallbackTranscriber tries transcribers in order, skipping those with open circuits.
// It implements port.ImageTranscriber.
type FallbackTranscriber struct {
	transcribers []port.ImageTranscriber
	circuits     []*circuitState
	names        []string
	now          func() time.Time
}

// NewFallbackTranscriber creates a FallbackTranscriber from an ordered list of transcribers and their names.
func NewFallbackTranscriber(transcribers []port.ImageTranscriber, names []string) *FallbackTranscriber {
	circuits := make([]*circuitState, len(transcribers))
	for i := range circuits {
		circuits[i] = &circuitState{}
	}
	return &FallbackTranscriber{
		transcribers: transcribers,
		circuits:     circuits,
		names:        names,
		now:          time.Now,
	}
}

func (f *FallbackTranscriber) Transcribe(ctx context.Context, image []byte, contentType string) (string, error) {
	if len(f.transcribers) == 0 {
		return "", nil
	}
	now := f.now()
	var lastErr error
	allRateLimited := true
	var earliestReset time.Time

	for i, t := range f.transcribers {
		if resetAt, open := f.circuits[i].isOpenWithReset(now); open {
			log.Debug().Str("provider", f.names[i]).Time("reset_at", resetAt).
				Msg("llm.FallbackTranscriber: skipping, circuit open")
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
			continue
		}

		text, err := t.Transcribe(ctx, image, contentType)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", err
		}

		log.Warn().Err(err).Str("provider", f.names[i]).Msg("llm.FallbackTranscriber: transcriber failed")
		lastErr = err

		var rlErr *RateLimitError
		if errors.As(err, &rlErr) {
			cooldown := rlErr.RetryAfter
			if cooldown <= 0 {
				cooldown = defaultCooldown
			}
			resetAt := now.Add(cooldown)
			f.circuits[i].open(resetAt)
			if earliestReset.IsZero() || resetAt.Before(earliestReset) {
				earliestReset = resetAt
			}
		} else {
			allRateLimited = false
		}
	}

	if lastErr == nil || allRateLimited {
		retryAfter := earliestReset.Sub(now)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return "", NewRateLimitError("all", fmt.Errorf("all transcribers rate limited"), int(retryAfter.Seconds()))
	}

	return "", fmt.Errorf("all transcribers failed: %w", lastErr)
}

// NoopTranscriber is used when OCR is disabled; it recognizes nothing.
type NoopTranscriber struct{}

func (NoopTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return "", nil
}
