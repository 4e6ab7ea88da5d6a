// Package testing holds helpers shared by the unit and integration tests.
package testing

import (
	"context"
	stdtesting "testing"
	"time"
)

// Context returns a context that ends after timeout or when tb finishes.
func Context(tb stdtesting.TB, timeout time.Duration) context.Context {
	tb.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	tb.Cleanup(cancel)
	return ctx
}

// WaitForCondition checks condition immediately and then every interval
// until it holds. It returns ctx.Err() if ctx ends first.
func WaitForCondition(ctx context.Context, condition func() bool, interval time.Duration) error {
	if condition() {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if condition() {
				return nil
			}
		}
	}
}
