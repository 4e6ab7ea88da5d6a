package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRetriesExhausted wraps the last error once every attempt has failed
var ErrRetriesExhausted = errors.New("retries exhausted")

// RetryConfig controls Retry's exponential backoff
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// Retryable reports whether err deserves another attempt. Nil retries every error.
	Retryable func(error) bool
	// OnRetry runs after a failed attempt, before waiting
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultRetryConfig is tuned for dependencies that come up after the service,
// such as MongoDB in a local stack
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  5,
		InitialDelay: 200 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
	}
}

// Retry calls fn until it succeeds, returns a non-retryable error, the context
// ends or attempts run out
func Retry(ctx context.Context, config *RetryConfig, fn func() error) error {
	wait := config.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if config.Retryable != nil && !config.Retryable(lastErr) {
			return lastErr
		}
		if attempt == config.MaxAttempts {
			break
		}

		if config.OnRetry != nil {
			config.OnRetry(attempt, lastErr, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		wait = time.Duration(float64(wait) * config.Multiplier)
		if wait > config.MaxDelay {
			wait = config.MaxDelay
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, config.MaxAttempts, lastErr)
}
