package store_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/molbridge/pubchem-mcp/internal/model"
	"github.com/molbridge/pubchem-mcp/internal/store"
)

func testParams() model.Params {
	return model.Params{Query: "aspirin", Format: model.FormatJSON}
}

func TestInsertAndGet(t *testing.T) {
	s := store.NewMemoryStore()

	id, err := s.Insert(testParams())
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if id == "" {
		t.Fatal("Insert returned empty id")
	}

	r, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if r.Status != model.StatusPending {
		t.Errorf("status = %q, want pending", r.Status)
	}
	if r.Query != "aspirin" || r.Format != model.FormatJSON {
		t.Errorf("params not preserved: %+v", r)
	}
	if r.CreatedAt.IsZero() || r.UpdatedAt.IsZero() {
		t.Error("timestamps not set")
	}
	if r.UpdatedAt.Before(r.CreatedAt) {
		t.Error("updated_at is before created_at")
	}
}

func TestGetNotFound(t *testing.T) {
	s := store.NewMemoryStore()
	if _, err := s.Get("nope"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get(unknown) = %v, want ErrNotFound", err)
	}
}

func TestGetReturnsSnapshot(t *testing.T) {
	s := store.NewMemoryStore()
	id, _ := s.Insert(testParams())

	before, _ := s.Get(id)
	if err := s.Transition(id, model.StatusProcessing, "", ""); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	// The earlier snapshot must be unaffected by the mutation.
	if before.Status != model.StatusPending {
		t.Errorf("snapshot mutated: status = %q", before.Status)
	}
}

func TestTransitionLifecycle(t *testing.T) {
	s := store.NewMemoryStore()
	id, _ := s.Insert(testParams())

	if err := s.Transition(id, model.StatusProcessing, "", ""); err != nil {
		t.Fatalf("pending -> processing: %v", err)
	}
	r, _ := s.Get(id)
	if r.Status != model.StatusProcessing {
		t.Errorf("status = %q, want processing", r.Status)
	}

	if err := s.Transition(id, model.StatusCompleted, "data", ""); err != nil {
		t.Fatalf("processing -> completed: %v", err)
	}
	r, _ = s.Get(id)
	if r.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", r.Status)
	}
	if r.Result != "data" {
		t.Errorf("result = %q, want %q", r.Result, "data")
	}
	if r.Error != "" {
		t.Errorf("error should be empty on completion, got %q", r.Error)
	}
	if !r.UpdatedAt.After(r.CreatedAt) && !r.UpdatedAt.Equal(r.CreatedAt) {
		t.Error("updated_at not refreshed")
	}
}

func TestTransitionFailure(t *testing.T) {
	s := store.NewMemoryStore()
	id, _ := s.Insert(testParams())

	if err := s.Transition(id, model.StatusProcessing, "", ""); err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if err := s.Transition(id, model.StatusFailed, "", "boom"); err != nil {
		t.Fatalf("Transition: %v", err)
	}

	r, _ := s.Get(id)
	if r.Status != model.StatusFailed {
		t.Errorf("status = %q, want failed", r.Status)
	}
	if r.Error != "boom" {
		t.Errorf("error = %q, want %q", r.Error, "boom")
	}
	if r.Result != "" {
		t.Errorf("result should be empty on failure, got %q", r.Result)
	}
}

func TestTransitionInvalid(t *testing.T) {
	s := store.NewMemoryStore()
	id, _ := s.Insert(testParams())

	// Skipping processing is not allowed.
	if err := s.Transition(id, model.StatusCompleted, "data", ""); !errors.Is(err, store.ErrInvalidTransition) {
		t.Errorf("pending -> completed = %v, want ErrInvalidTransition", err)
	}

	// Terminal states are final.
	s.Transition(id, model.StatusProcessing, "", "")
	s.Transition(id, model.StatusCompleted, "data", "")
	if err := s.Transition(id, model.StatusFailed, "", "late"); !errors.Is(err, store.ErrInvalidTransition) {
		t.Errorf("completed -> failed = %v, want ErrInvalidTransition", err)
	}
}

func TestTransitionNotFound(t *testing.T) {
	s := store.NewMemoryStore()
	if err := s.Transition("gone", model.StatusProcessing, "", ""); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Transition(unknown) = %v, want ErrNotFound", err)
	}
}

func TestRemoveTerminalOlderThan(t *testing.T) {
	s := store.NewMemoryStore()

	oldID, _ := s.Insert(testParams())
	s.Transition(oldID, model.StatusProcessing, "", "")
	s.Transition(oldID, model.StatusCompleted, "data", "")

	pendingID, _ := s.Insert(testParams())

	// Let the terminal record age past a tiny TTL.
	time.Sleep(20 * time.Millisecond)

	freshID, _ := s.Insert(testParams())
	s.Transition(freshID, model.StatusProcessing, "", "")
	s.Transition(freshID, model.StatusFailed, "", "boom")

	removed := s.RemoveTerminalOlderThan(10 * time.Millisecond)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	if _, err := s.Get(oldID); !errors.Is(err, store.ErrNotFound) {
		t.Error("aged terminal record should be evicted")
	}
	if _, err := s.Get(pendingID); err != nil {
		t.Error("pending record must never be evicted")
	}
	if _, err := s.Get(freshID); err != nil {
		t.Error("young terminal record should be kept")
	}

	// A long TTL removes nothing.
	if n := s.RemoveTerminalOlderThan(time.Hour); n != 0 {
		t.Errorf("removed = %d, want 0", n)
	}
}

func TestStats(t *testing.T) {
	s := store.NewMemoryStore()

	a, _ := s.Insert(testParams())
	s.Insert(testParams())
	s.Transition(a, model.StatusProcessing, "", "")

	st := s.Stats()
	if st.Total != 2 {
		t.Errorf("total = %d, want 2", st.Total)
	}
	if st.ByStatus[model.StatusPending] != 1 || st.ByStatus[model.StatusProcessing] != 1 {
		t.Errorf("by_status = %v", st.ByStatus)
	}
}

func TestConcurrentInserts(t *testing.T) {
	s := store.NewMemoryStore()

	const n = 200
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := s.Insert(testParams())
			if err != nil {
				t.Errorf("Insert: %v", err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id: %s", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("got %d distinct ids, want %d", len(seen), n)
	}
	if st := s.Stats(); st.Total != n {
		t.Fatalf("stats total = %d, want %d", st.Total, n)
	}
}
