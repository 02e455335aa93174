package model

import "time"

// Request status constants.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// validTransitions maps each status to the set of statuses it may transition to.
// Terminal statuses have no entries: completed and failed records only ever
// leave the store by eviction.
var validTransitions = map[string]map[string]bool{
	StatusPending: {
		StatusProcessing: true,
	},
	StatusProcessing: {
		StatusCompleted: true,
		StatusFailed:    true,
	},
}

// ValidTransition reports whether transitioning from one status to another is allowed.
func ValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Terminal reports whether a status admits no further transitions.
func Terminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// Request represents one tracked PubChem lookup and its lifecycle state.
// Result is set only on completed requests, Error only on failed ones.
type Request struct {
	ID        string    `json:"request_id"`
	Query     string    `json:"query"`
	Format    Format    `json:"format"`
	Include3D bool      `json:"include_3d"`
	Status    string    `json:"status"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Params returns the immutable lookup parameters the request was created with.
func (r *Request) Params() Params {
	return Params{
		Query:     r.Query,
		Format:    r.Format,
		Include3D: r.Include3D,
	}
}
