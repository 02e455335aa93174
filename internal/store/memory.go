package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/molbridge/pubchem-mcp/internal/model"
)

// Compile-time interface satisfaction check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store with a single mutex-guarded map. Request state
// lives only for the process lifetime; the store is the sole owner of the
// records and hands out copies, never references.
type MemoryStore struct {
	mu       sync.Mutex
	requests map[string]*model.Request
}

// NewMemoryStore creates an empty in-memory request store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		requests: make(map[string]*model.Request),
	}
}

// Insert creates a pending request and returns its identifier.
func (s *MemoryStore) Insert(p model.Params) (string, error) {
	now := time.Now().UTC()
	r := &model.Request{
		ID:        model.NewID(),
		Query:     p.Query,
		Format:    p.Format,
		Include3D: p.Include3D,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.requests[r.ID] = r
	s.mu.Unlock()

	return r.ID, nil
}

// Get returns a snapshot copy of the request so callers never observe a
// record mid-mutation.
func (s *MemoryStore) Get(id string) (model.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return model.Request{}, ErrNotFound
	}
	return *r, nil
}

// Transition atomically updates the request status. Result and error are
// mutually exclusive: result is recorded only on completion, errMsg only on
// failure. Unknown ids return ErrNotFound so callers can log and move on.
func (s *MemoryStore) Transition(id, status, result, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[id]
	if !ok {
		return ErrNotFound
	}
	if !model.ValidTransition(r.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, status)
	}

	r.Status = status
	switch status {
	case model.StatusCompleted:
		r.Result = result
	case model.StatusFailed:
		r.Error = errMsg
	}
	r.UpdatedAt = time.Now().UTC()

	return nil
}

// RemoveTerminalOlderThan evicts terminal requests last updated more than ttl
// ago and returns the number removed.
func (s *MemoryStore) RemoveTerminalOlderThan(ttl time.Duration) int {
	cutoff := time.Now().UTC().Add(-ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, r := range s.requests {
		if model.Terminal(r.Status) && r.UpdatedAt.Before(cutoff) {
			delete(s.requests, id)
			removed++
		}
	}
	return removed
}

// Stats returns request counts by status.
func (s *MemoryStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		Total:    len(s.requests),
		ByStatus: make(map[string]int),
	}
	for _, r := range s.requests {
		st.ByStatus[r.Status]++
	}
	return st
}
