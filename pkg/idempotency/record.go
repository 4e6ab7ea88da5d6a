// Package idempotency replays the stored response of a mutating request
// when a client retries it with the same Idempotency-Key header.
package idempotency

import (
	"context"
	"errors"
	"time"
)

var (
	ErrKeyInvalid = errors.New("idempotency key may only contain letters, digits, '-' and '_'")
	ErrKeyTooLong = errors.New("idempotency key is too long")
	ErrNotFound   = errors.New("idempotency record not found")
)

// Record is one key's request fingerprint and, once the handler has
// finished, its response. ID is "<service>/<key>".
type Record struct {
	ID          string     `bson:"_id"`
	Key         string     `bson:"key"`
	Method      string     `bson:"method"`
	Path        string     `bson:"path"`
	Fingerprint string     `bson:"fingerprint"`
	LockedAt    *time.Time `bson:"lockedAt,omitempty"`

	StatusCode  int        `bson:"statusCode,omitempty"`
	ContentType string     `bson:"contentType,omitempty"`
	Body        []byte     `bson:"body,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty"`

	CreatedAt time.Time `bson:"createdAt"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

func (r *Record) Completed() bool { return r.CompletedAt != nil }

// Locked reports whether a request holding this key is still running.
func (r *Record) Locked() bool { return r.LockedAt != nil && r.CompletedAt == nil }

// Response is what Complete stores for replay.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Store persists records. Acquire inserts rec unless a record with the same
// ID exists; it returns the stored record and whether rec was inserted.
type Store interface {
	Acquire(ctx context.Context, rec *Record) (*Record, bool, error)
	Complete(ctx context.Context, id string, resp Response) error
	// Release drops the lock so the key can be retried.
	Release(ctx context.Context, id string) error
	// TakeOver moves a stale lock to now. It reports false when the record is
	// no longer locked at lockedAt, because another request took it first or
	// the first one finished.
	TakeOver(ctx context.Context, id string, lockedAt, now time.Time) (bool, error)
}
