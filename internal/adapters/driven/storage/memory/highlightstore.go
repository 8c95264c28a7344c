package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// Ensure HighlightStore implements the interface.
var _ driven.HighlightStore = (*HighlightStore)(nil)

// HighlightStore is an in-memory implementation of driven.HighlightStore.
// Colours survive re-filters but not process restarts; use the SQLite
// store for persistence.
type HighlightStore struct {
	mu      sync.RWMutex
	colours map[string]domain.Colour
}

// NewHighlightStore creates an empty in-memory highlight store.
func NewHighlightStore() *HighlightStore {
	return &HighlightStore{colours: make(map[string]domain.Colour)}
}

// Colour returns the stored colour for a pattern, if any.
func (s *HighlightStore) Colour(_ context.Context, pattern string) (domain.Colour, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.colours[pattern]
	return c, ok, nil
}

// SaveColour records a pattern's colour.
func (s *HighlightStore) SaveColour(_ context.Context, pattern string, colour domain.Colour) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colours[pattern] = colour
	return nil
}

// Reset drops all stored colours.
func (s *HighlightStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.colours = make(map[string]domain.Colour)
	return nil
}
