package driven

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// HighlightStore persists highlight colour assignments per term pattern,
// so a term keeps the same colour across re-filters and document sessions.
type HighlightStore interface {
	// Colour returns the persisted colour for a pattern, if any.
	Colour(ctx context.Context, pattern string) (domain.Colour, bool, error)

	// SaveColour records a pattern's colour. Overwrites any previous value.
	SaveColour(ctx context.Context, pattern string, colour domain.Colour) error

	// Reset drops all persisted colours. Called when the document or
	// document set changes.
	Reset(ctx context.Context) error
}
