package store

import (
	"errors"
	"time"

	"github.com/molbridge/pubchem-mcp/internal/model"
)

// ErrNotFound is returned when a request is not found.
var ErrNotFound = errors.New("request not found")

// ErrInvalidTransition is returned when a request status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// Stats holds aggregate counts of tracked requests.
type Stats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// Store defines the tracking operations for asynchronous requests. All
// operations are safe for concurrent use; none blocks on anything but the
// store's own lock.
type Store interface {
	// Insert creates a pending request with a fresh identifier and returns it.
	Insert(p model.Params) (string, error)
	// Get returns a snapshot copy of the request, or ErrNotFound.
	Get(id string) (model.Request, error)
	// Transition atomically moves the request to status, recording result on
	// completion or errMsg on failure, and refreshes UpdatedAt.
	Transition(id, status, result, errMsg string) error
	// RemoveTerminalOlderThan evicts terminal requests whose last update is
	// older than ttl and returns the number removed.
	RemoveTerminalOlderThan(ttl time.Duration) int
	// Stats returns request counts by status.
	Stats() Stats
}
