package outbox

import "context"

// Repository defines the interface for outbox event persistence
type Repository interface {
	Save(ctx context.Context, event *OutboxEvent) error

	// FindUnpublished returns retryable events, oldest first, up to limit
	FindUnpublished(ctx context.Context, limit int) ([]*OutboxEvent, error)

	MarkPublished(ctx context.Context, eventID string) error

	// IncrementRetry increments the retry count and records the last error
	IncrementRetry(ctx context.Context, eventID string, errorMsg string) error

	// CountPending counts events that are still waiting to be relayed
	CountPending(ctx context.Context) (int64, error)
}
