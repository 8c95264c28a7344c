package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// TermRegistry is the cross-session term bookkeeping for one open
// document. It tracks which terms are in use, freezes hit counts for
// filtered-out terms, and keeps highlight colour assignments stable.
type TermRegistry struct {
	colours driven.HighlightStore

	mu         sync.Mutex
	entries    map[string]*domain.TermEntry
	order      []string
	nextColour int
}

// NewTermRegistry creates a registry. The highlight store is optional;
// without it colours are only stable within the document session.
func NewTermRegistry(colours driven.HighlightStore) *TermRegistry {
	return &TermRegistry{
		colours: colours,
		entries: make(map[string]*domain.TermEntry),
	}
}

// ResetForQuery repopulates the registry for a full (non-filter) run.
// Every term of the new query is seeded in use.
func (r *TermRegistry) ResetForQuery(ctx context.Context, terms []*domain.SearchTerm) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = make(map[string]*domain.TermEntry, len(terms))
	r.order = r.order[:0]
	for _, t := range terms {
		r.ensureColourLocked(ctx, t)
		r.entries[t.Pattern] = &domain.TermEntry{
			Term:         t,
			InUse:        true,
			UserSupplied: t.DisplayName == "" && !t.IsRegexLike,
		}
		r.order = append(r.order, t.Pattern)
	}
}

// ApplyFilter marks the registry for a filter run: terms outside the
// included set stay known but drop to InUse=false with their previous
// hit count frozen, so the filter UI can still show a last known count.
func (r *TermRegistry) ApplyFilter(included map[string]bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for pattern, entry := range r.entries {
		entry.InUse = included[pattern]
	}
	logger.Debug("Filter applied: %d of %d terms in use", len(included), len(r.entries))
}

// RecordHitCounts stores the hit counts of a finished run on the in-use
// entries. Counts of filtered-out terms are left frozen.
func (r *TermRegistry) RecordHitCounts(counts map[string]int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for pattern, entry := range r.entries {
		if entry.InUse {
			entry.PriorHitCount = counts[pattern]
		}
	}
}

// Entry returns the registry record for a pattern.
func (r *TermRegistry) Entry(pattern string) (*domain.TermEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[pattern]
	return e, ok
}

// Entries returns copies of all records in display order.
func (r *TermRegistry) Entries() []domain.TermEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.TermEntry, 0, len(r.order))
	for _, pattern := range r.order {
		if e, ok := r.entries[pattern]; ok {
			out = append(out, *e)
		}
	}
	return out
}

// InUsePatterns returns the patterns currently participating.
func (r *TermRegistry) InUsePatterns() map[string]bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]bool)
	for pattern, entry := range r.entries {
		if entry.InUse {
			out[pattern] = true
		}
	}
	return out
}

// Reset drops all known terms. Called on explicit clear or when the
// document changes.
func (r *TermRegistry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]*domain.TermEntry)
	r.order = r.order[:0]
	r.nextColour = 0
}

// ensureColourLocked assigns a highlight colour exactly once per term:
// the term's own colour wins, then a persisted assignment, then the next
// automatic palette colour (which is then persisted).
func (r *TermRegistry) ensureColourLocked(ctx context.Context, t *domain.SearchTerm) {
	if !t.HighlightColour.None() {
		return
	}

	if r.colours != nil {
		if c, ok, err := r.colours.Colour(ctx, t.Pattern); err != nil {
			logger.Warn("Highlight store read failed for %q: %v", t.Pattern, err)
		} else if ok {
			t.HighlightColour = c
			return
		}
	}

	t.HighlightColour = domain.AutoColour(r.nextColour)
	r.nextColour++

	if r.colours != nil {
		if err := r.colours.SaveColour(ctx, t.Pattern, t.HighlightColour); err != nil {
			logger.Warn("Highlight store write failed for %q: %v", t.Pattern, err)
		}
	}
}
