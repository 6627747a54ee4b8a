package session

import (
	"context"
	"sync"
)

// MemoryStore keeps the token/profile pair in process memory. It is the
// default backend wired by the builder and the one tests reach for; nothing
// survives a restart.
type MemoryStore struct {
	mu      sync.Mutex
	rec     Record
	present bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save stores a copy of rec, replacing any prior pair.
func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	if err := rec.validate(); err != nil {
		return errIncomplete(err)
	}

	s.mu.Lock()
	s.rec = rec
	s.present = true
	s.mu.Unlock()
	return nil
}

// Load returns the stored pair, if any.
func (s *MemoryStore) Load(_ context.Context) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.present {
		return Record{}, false, nil
	}
	return s.rec, true, nil
}

// Clear removes the pair. Idempotent.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.rec = Record{}
	s.present = false
	s.mu.Unlock()
	return nil
}
