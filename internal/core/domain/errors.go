package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrQueryInvalid indicates engine-side query validation failed.
	// The search is not started; per-term messages are attached via
	// QueryValidationError.
	ErrQueryInvalid = errors.New("query invalid")

	// ErrSearchFailed indicates the asynchronous document-text source
	// failed after starting. Partial results are retained.
	ErrSearchFailed = errors.New("search failed")

	// ErrSearchCancelled indicates the user cancelled a running search.
	// Not a failure; delivered results stay visible.
	ErrSearchCancelled = errors.New("search cancelled")

	// ErrSessionSuperseded indicates a newer session replaced this one.
	ErrSessionSuperseded = errors.New("session superseded")

	// ErrNoActiveSession indicates an operation that needs a session ran
	// without one.
	ErrNoActiveSession = errors.New("no active session")

	// ErrSessionNotCompleted indicates an operation that needs a
	// completed result set ran against a still-active session.
	ErrSessionNotCompleted = errors.New("session not completed")

	// ErrPageTextUnavailable indicates a page never yielded text, so its
	// hits cannot be placed in exact reading order.
	ErrPageTextUnavailable = errors.New("page text unavailable")

	// ErrEngineUnavailable indicates the document engine is not configured.
	ErrEngineUnavailable = errors.New("document engine unavailable")
)

// TermValidationError is the engine's verdict on one offending term.
type TermValidationError struct {
	// Pattern identifies the term.
	Pattern string

	// Message is the engine's user-visible explanation.
	Message string
}

// QueryValidationError aggregates per-term validation failures.
// It unwraps to ErrQueryInvalid.
type QueryValidationError struct {
	TermErrors []TermValidationError
}

// Error returns a summary naming each offending term.
func (e *QueryValidationError) Error() string {
	if len(e.TermErrors) == 0 {
		return ErrQueryInvalid.Error()
	}
	parts := make([]string, len(e.TermErrors))
	for i, te := range e.TermErrors {
		parts[i] = fmt.Sprintf("%s: %s", te.Pattern, te.Message)
	}
	return fmt.Sprintf("query invalid: %s", strings.Join(parts, "; "))
}

// Unwrap makes the error match ErrQueryInvalid with errors.Is.
func (e *QueryValidationError) Unwrap() error {
	return ErrQueryInvalid
}
