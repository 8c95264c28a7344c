package driving

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// StartOptions configures a full search run.
type StartOptions struct {
	// Scope selects which sources and mark categories to search.
	Scope domain.SearchScope

	// Options are the global matching toggles applied to typed terms.
	Options domain.MatchingOptions

	// ContextPadding is the context capture width for typed terms.
	ContextPadding int
}

// RefilterOptions configures a re-filter of already-known terms.
type RefilterOptions struct {
	// Options, when set, are the changed global matching toggles to
	// propagate onto user-supplied terms. Changing them forces a fresh
	// document-text search, since cached results no longer apply.
	Options *domain.MatchingOptions

	// Force issues a fresh document-text search even when every
	// requested term's results are already fully known.
	Force bool
}

// ConversionResult reports what a quick-action redaction pass did.
type ConversionResult struct {
	// CreatedMarkIDs are the redaction marks created, in hit order.
	CreatedMarkIDs []string

	// ReplacedMarkIDs are pre-existing redactions that occupied the same
	// positions and were deleted.
	ReplacedMarkIDs []string
}

// Coordinator drives search over one open document. All methods are safe
// for concurrent use; internally the coordinator is single-writer.
type Coordinator interface {
	// Start runs a full search: the raw input is normalised into terms,
	// presets are appended, and all in-scope sources are dispatched.
	// Starting supersedes any session already running.
	Start(ctx context.Context, input string, opts StartOptions) (sessionID string, err error)

	// Refilter re-runs search restricted to the given already-known
	// patterns, reusing prior results instead of re-querying when they
	// are fully known (unless forced).
	Refilter(ctx context.Context, patterns []string, opts RefilterOptions) (sessionID string, err error)

	// Cancel aborts the current session's document-text search, if one
	// is running. Results delivered so far stay visible.
	Cancel()

	// ClearSearch discards the session and all known terms.
	ClearSearch()

	// ResetDocument clears everything scoped to the open document,
	// including persisted highlight colours.
	ResetDocument(ctx context.Context) error

	// Snapshot returns the current session's published results.
	Snapshot() domain.SessionSnapshot

	// Terms returns the registry entries for every known term,
	// in display order.
	Terms() []domain.TermEntry

	// ConvertToRedactions turns the completed session's hits for the
	// given in-use terms into redaction marks, replacing any redaction
	// already occupying the same position.
	ConvertToRedactions(ctx context.Context, patterns []string) (ConversionResult, error)

	// ApplyReason sets (or, with nil, clears) the reason on every mark
	// created by the latest ConvertToRedactions pass.
	ApplyReason(ctx context.Context, reason *string) error
}

// Listener receives the coordinator's publications. Implementations are
// called outside the coordinator's lock and must not block for long.
type Listener interface {
	// ResultsPublished delivers a fresh result snapshot after an append
	// or a resort pass.
	ResultsPublished(snapshot domain.SessionSnapshot)

	// StateChanged announces a session state transition.
	StateChanged(sessionID string, state domain.SessionState)

	// SearchError reports a user-visible failure for a session.
	SearchError(sessionID string, err error)
}
