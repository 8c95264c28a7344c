package driven

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// Mark is one markup object (annotation, redaction, signature) as exposed
// by the host's object store. Read-only during search; mutations happen
// through the MarkStore write operations.
type Mark interface {
	// ID is the mark's unique identifier.
	ID() string

	// Type is the mark's declared type string, used for classification.
	Type() string

	// PageNumber is the 1-based page the mark sits on.
	PageNumber() int

	// Rect is the mark's bounding rectangle on its page.
	Rect() domain.Rect

	// Text returns the mark's searchable text. ok is false for marks
	// that carry no text (e.g. pure shapes, signatures).
	Text() (text string, ok bool)

	// Reason returns a redaction mark's reason string. ok is false when
	// the mark carries no reason.
	Reason() (reason string, ok bool)

	// TextRange returns the mark's anchor in the page text as a start
	// offset and length. ok is false for marks not anchored to text.
	TextRange() (start, length int, ok bool)

	// Comments returns the mark's conversation, oldest first.
	Comments() []Comment
}

// Comment is one entry of a mark's conversation.
type Comment interface {
	// ID is the comment's unique identifier.
	ID() string

	// Text is the comment body.
	Text() string
}

// RedactionSpec describes a redaction mark to create at an exact
// text position.
type RedactionSpec struct {
	// PageNumber is the 1-based target page.
	PageNumber int

	// StartOffset is the in-page character offset of the redacted text.
	StartOffset int

	// Length is the redacted text length in characters.
	Length int

	// Rect is the bounding rectangle to cover.
	Rect domain.Rect
}

// MarkStore is the markup object store collaborator.
type MarkStore interface {
	// Marks returns all currently loaded marks.
	Marks() []Mark

	// AddRedactions creates redaction marks at the given positions and
	// returns them in spec order.
	AddRedactions(ctx context.Context, specs []RedactionSpec) ([]Mark, error)

	// DeleteMarks removes the given marks in one batch.
	DeleteMarks(ctx context.Context, ids []string) error

	// SetReason applies a reason to the given redaction marks.
	// A nil reason clears any existing reason.
	SetReason(ctx context.Context, ids []string, reason *string) error
}
