package domain

// SessionState is the lifecycle state of one search session.
type SessionState int

const (
	// StateIdle means no session has been started yet.
	StateIdle SessionState = iota
	// StateBuilding means the query is being normalised and validated.
	StateBuilding
	// StateDispatching means the source searchers are being invoked.
	StateDispatching
	// StateStreaming means partial document-text batches are arriving.
	StateStreaming
	// StateCompleted means all requested sources finished.
	StateCompleted
	// StateFailed means the document-text search reported an error.
	// Mark and comment results delivered before the failure stay visible.
	StateFailed
	// StateCancelled means the user cancelled a running document-text
	// search. Results delivered before cancellation stay visible.
	StateCancelled
	// StateSuperseded means a newer session replaced this one. All of
	// its pending and scheduled work is discarded.
	StateSuperseded
)

// String returns the state name.
func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuilding:
		return "building"
	case StateDispatching:
		return "dispatching"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	case StateSuperseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further source work can arrive in this state.
func (s SessionState) Terminal() bool {
	switch s {
	case StateCompleted, StateFailed, StateCancelled, StateSuperseded:
		return true
	default:
		return false
	}
}

// SessionSnapshot is a point-in-time copy of a session's published
// results, safe to read without coordination.
type SessionSnapshot struct {
	// ID identifies the session the snapshot belongs to.
	ID string

	// State is the session state at snapshot time.
	State SessionState

	// Terms are the query terms in display order.
	Terms []*SearchTerm

	// Hits are the results in canonical order.
	Hits []*Hit

	// UnresolvedPages lists pages still holding hits whose reading-order
	// position is unknown, e.g. scanned pages with no extracted text.
	UnresolvedPages []int
}

// HitCounts returns the number of hits per term pattern.
func (s *SessionSnapshot) HitCounts() map[string]int {
	counts := make(map[string]int)
	for _, h := range s.Hits {
		if h.Term != nil {
			counts[h.Term.Pattern]++
		}
	}
	return counts
}
