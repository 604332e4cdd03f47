package memory

import (
	"context"
	"sync"
	"time"

	"rentcal/internal/app/middleware"
)

// IdempotencyStore keeps replayable command results for the process
// lifetime. Purge drops records the middleware would no longer replay.
type IdempotencyStore struct {
	mu    sync.RWMutex
	items map[string]middleware.IdempotencyRecord
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{items: make(map[string]middleware.IdempotencyRecord)}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Key] = rec
	return nil
}

// Purge removes records stored before cutoff and reports how many went.
func (s *IdempotencyStore) Purge(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, rec := range s.items {
		if rec.OccurredAt.Before(cutoff) {
			delete(s.items, key)
			n++
		}
	}
	return n
}

// Len reports the number of stored results.
func (s *IdempotencyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
