// Package retry runs operations with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/spherical/textgrab/internal/observability"
)

const (
	maxRetries     = 2
	initialBackoff = 100 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// Config holds retry configuration
type Config struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultConfig returns the default retry configuration
func DefaultConfig() Config {
	return Config{
		MaxRetries:     maxRetries,
		InitialBackoff: initialBackoff,
		MaxBackoff:     maxBackoff,
	}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Backoff calculates the exponential backoff before the given retry
// attempt (0-based), capped at MaxBackoff.
func Backoff(attempt int, cfg Config) time.Duration {
	backoff := float64(cfg.InitialBackoff) * math.Pow(2, float64(attempt))
	if backoff > float64(cfg.MaxBackoff) {
		backoff = float64(cfg.MaxBackoff)
	}
	return time.Duration(backoff)
}

// Do calls fn until it succeeds, returns a Permanent error, the retries are
// used up or ctx is done.
func Do(ctx context.Context, cfg Config, logger *observability.Logger, op string, fn func(ctx context.Context) error) error {
	if logger == nil {
		logger = observability.Nop()
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}

		// Don't wait after last attempt
		if attempt == cfg.MaxRetries {
			break
		}

		backoff := Backoff(attempt, cfg)
		logger.Warn().
			Str("operation", op).
			Int("attempt", attempt+1).
			Int("max_retries", cfg.MaxRetries).
			Dur("backoff", backoff).
			Err(lastErr).
			Msg("Operation failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("%s failed after %d retries: %w", op, cfg.MaxRetries, lastErr)
}
