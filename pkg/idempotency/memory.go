package idempotency

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process. It backs tests and single-replica
// runs without MongoDB.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Acquire(_ context.Context, rec *Record) (*Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[rec.ID]; ok && existing.ExpiresAt.After(time.Now()) {
		return &existing, false, nil
	}
	s.records[rec.ID] = *rec
	stored := *rec
	return &stored, true, nil
}

func (s *MemoryStore) Complete(_ context.Context, id string, resp Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	rec.StatusCode, rec.ContentType, rec.Body = resp.StatusCode, resp.ContentType, resp.Body
	rec.CompletedAt = &now
	rec.LockedAt = nil
	s.records[id] = rec
	return nil
}

// Release forgets the record entirely, so the next attempt runs fresh.
func (s *MemoryStore) Release(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, id)
	return nil
}

func (s *MemoryStore) TakeOver(_ context.Context, id string, lockedAt, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok || rec.Completed() || rec.LockedAt == nil || !rec.LockedAt.Equal(lockedAt) {
		return false, nil
	}
	rec.LockedAt = &now
	s.records[id] = rec
	return true, nil
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
