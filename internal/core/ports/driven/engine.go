package driven

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// SearchEventKind discriminates the events a document-text search emits.
type SearchEventKind int

const (
	// EventPartial carries a batch of hits; more may follow.
	EventPartial SearchEventKind = iota
	// EventCompleted means the search finished; no more events follow.
	EventCompleted
	// EventFailed means the search errored; no more events follow.
	EventFailed
	// EventAborted acknowledges a cancellation; no more events follow.
	EventAborted
)

// SearchEvent is one delivery from an asynchronous document-text search.
type SearchEvent struct {
	// Kind says what the event carries.
	Kind SearchEventKind

	// Hits are the batch contents for EventPartial.
	Hits []EngineHit

	// Err is the failure cause for EventFailed.
	Err error
}

// EngineHit is a raw document-text hit as reported by the engine.
type EngineHit struct {
	// Pattern identifies which query term matched.
	Pattern string

	// PageNumber is the 1-based page of the hit.
	PageNumber int

	// CharOffset is the true in-page character offset.
	CharOffset int

	// Length is the match length in characters.
	Length int

	// Rect is the hit's bounding rectangle.
	Rect domain.Rect

	// Context is the matched text with surrounding padding.
	Context string
}

// SearchHandle controls one in-flight document-text search.
type SearchHandle interface {
	// Events returns the delivery channel. The engine closes it after a
	// terminal event (Completed, Failed or Aborted).
	Events() <-chan SearchEvent

	// Cancel aborts the search. Idempotent, and safe to call even if a
	// terminal event is already in flight.
	Cancel()
}

// ObjectRef identifies a mark or comment for character-index queries.
type ObjectRef struct {
	// MarkID is the owning mark.
	MarkID string

	// CommentID is set for comment hits; empty for mark hits.
	CommentID string

	// PageNumber is the page the object sits on.
	PageNumber int
}

// ValidationResult is the engine's verdict on a query's syntax.
type ValidationResult struct {
	// ErrorsExist reports whether any term failed validation.
	ErrorsExist bool

	// TermErrors maps offending patterns to user-visible messages.
	TermErrors map[string]string
}

// DocumentEngine is the rendering/paging engine collaborator.
// Backed by the host application's document runtime.
type DocumentEngine interface {
	// Search starts an asynchronous, cancellable document-text search
	// over the given terms.
	Search(ctx context.Context, terms []*domain.SearchTerm) (SearchHandle, error)

	// ValidateQuery performs engine-side syntax validation, e.g. for
	// regex-like preset terms.
	ValidateQuery(ctx context.Context, terms []*domain.SearchTerm) (ValidationResult, error)

	// RequestPageText asks the engine to extract a page's text.
	// Fire-and-forget; readiness is signalled via PageTextReady.
	RequestPageText(pageNumber int)

	// PageTextReady returns the channel on which the engine announces
	// that a page's text has become available.
	PageTextReady() <-chan int

	// IsPageTextReady reports whether a page's text is already extracted.
	IsPageTextReady(pageNumber int) bool

	// CharacterIndex returns the object's true in-page character offset.
	// Only valid once the object's page text is ready.
	CharacterIndex(ref ObjectRef) (int, error)
}
