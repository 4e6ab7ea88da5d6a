package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// ErrCircuitOpen is returned while a breaker rejects calls
var ErrCircuitOpen = errors.New("circuit breaker is open")

// StateObserver receives state changes, typically a metrics recorder
type StateObserver interface {
	SetCircuitBreakerState(name string, state int)
	RecordCircuitBreakerTrip(name string)
}

// BreakerConfig configures a Breaker. The breaker trips on FailureThreshold
// consecutive failures, or once MinRequests calls in the current window fail
// at FailureRatio or more.
type BreakerConfig struct {
	Name             string
	HalfOpenRequests uint32
	Window           time.Duration
	OpenFor          time.Duration
	FailureThreshold uint32
	FailureRatio     float64
	MinRequests      uint32
}

// DefaultBreakerConfig suits the downstream calls the planning service makes
func DefaultBreakerConfig(name string) *BreakerConfig {
	return &BreakerConfig{
		Name:             name,
		HalfOpenRequests: 3,
		Window:           time.Minute,
		OpenFor:          30 * time.Second,
		FailureThreshold: 5,
		FailureRatio:     0.5,
		MinRequests:      10,
	}
}

func (c *BreakerConfig) readyToTrip(counts gobreaker.Counts) bool {
	if counts.ConsecutiveFailures >= c.FailureThreshold {
		return true
	}
	if counts.Requests < c.MinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= c.FailureRatio
}

// Breaker guards calls to a dependency with a gobreaker circuit
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// NewBreaker creates a breaker. logger and observer may be nil.
func NewBreaker(config *BreakerConfig, logger *slog.Logger, observer StateObserver) *Breaker {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.HalfOpenRequests,
		Interval:    config.Window,
		Timeout:     config.OpenFor,
		ReadyToTrip: config.readyToTrip,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			if observer == nil {
				return
			}
			observer.SetCircuitBreakerState(name, int(to))
			if to == gobreaker.StateOpen {
				observer.RecordCircuitBreakerTrip(name)
			}
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Do runs fn unless the circuit is open. Rejections wrap ErrCircuitOpen.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return fmt.Errorf("%w: %s", ErrCircuitOpen, b.cb.Name())
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %s is probing", ErrCircuitOpen, b.cb.Name())
	}
	return err
}

// State returns the current state of the circuit
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// Name returns the breaker name
func (b *Breaker) Name() string {
	return b.cb.Name()
}
