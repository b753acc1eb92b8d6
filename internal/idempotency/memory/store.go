package memory

import (
	"context"
	"sync"
	"time"
)

// Store retains processed event ids for deduplicating redelivered webhooks.
type Store struct {
	mu    sync.Mutex
	items map[string]time.Time
}

// NewStore creates a new in-memory event ledger.
func NewStore() *Store {
	return &Store{items: make(map[string]time.Time)}
}

// Reserve records the event id, reporting whether it was newly recorded.
func (s *Store) Reserve(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[eventID]; ok {
		return false, nil
	}
	s.items[eventID] = time.Now().UTC()
	return true, nil
}

// Seen reports whether the event id has been recorded.
func (s *Store) Seen(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[eventID]
	return ok, nil
}

// Forget removes an event id. The memory order repository uses it to roll
// back a reservation when the paired status change cannot be applied.
func (s *Store) Forget(eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, eventID)
}
