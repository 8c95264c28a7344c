package domain

import "sort"

// SourceKind identifies which searcher produced a hit.
type SourceKind int

const (
	// SourceDocumentText is a hit in the document's own text.
	SourceDocumentText SourceKind = iota
	// SourceMark is a hit in a markup object's text or reason.
	SourceMark
	// SourceComment is a hit in a discussion comment.
	SourceComment
)

// String returns the source kind name for logging.
func (k SourceKind) String() string {
	switch k {
	case SourceDocumentText:
		return "document"
	case SourceMark:
		return "mark"
	case SourceComment:
		return "comment"
	default:
		return "unknown"
	}
}

// pendingSortValue compares below any real character offset (which is
// always >= 0), so pending hits float to the top of their page.
const pendingSortValue = -1

// Position is a hit's place in reading order: either a known in-page
// character offset, or pending until the page's text becomes available.
// The zero value is pending.
type Position struct {
	known  bool
	offset int
}

// PendingPosition returns a position whose true offset is not yet known.
func PendingPosition() Position {
	return Position{}
}

// KnownPosition returns a resolved position at the given character offset.
func KnownPosition(offset int) Position {
	return Position{known: true, offset: offset}
}

// IsKnown reports whether the true offset has been resolved.
func (p Position) IsKnown() bool {
	return p.known
}

// Offset returns the resolved character offset, if known.
func (p Position) Offset() (int, bool) {
	return p.offset, p.known
}

// SortValue returns the value used for canonical ordering. A pending
// position sorts before every known offset on the same page.
func (p Position) SortValue() int {
	if !p.known {
		return pendingSortValue
	}
	return p.offset
}

// Rect is an axis-aligned bounding rectangle in page coordinates,
// with Y growing downwards in reading order.
type Rect struct {
	X float64
	Y float64
	W float64
	H float64
}

// Hit is a single match produced by one of the source searchers.
type Hit struct {
	// Source says which searcher produced the hit.
	Source SourceKind

	// MarkID is the owning mark, for mark and comment hits.
	MarkID string

	// CommentID is the owning comment, for comment hits.
	CommentID string

	// Term is the term that matched. Nil for reason-filter hits,
	// which pass or fail as a whole rather than matching a term.
	Term *SearchTerm

	// PageNumber is the 1-based page the hit appears on.
	PageNumber int

	// TextOffset is the offset of the match within its source text:
	// the page text for document hits, the owning object's own text
	// for mark and comment hits.
	TextOffset int

	// TextLength is the length of the matched text.
	TextLength int

	// Position is the in-page reading-order position. Known immediately
	// for document-text hits; pending for mark and comment hits until
	// the page's text becomes available.
	Position Position

	// Rect is the hit's bounding rectangle on the page.
	Rect Rect

	// Context is the matched text with surrounding padding.
	Context string

	// AdditionalIndex keeps multiple hits from the same object stably
	// ordered relative to each other even before resolution.
	AdditionalIndex int
}

// Resolved reports whether the hit has its true reading-order position.
func (h *Hit) Resolved() bool {
	return h.Position.IsKnown()
}

// HitKey is the structural positional identity of a hit, used to detect
// redaction marks already occupying the same spot.
type HitKey struct {
	Page   int
	Start  int
	Length int
}

// Key returns the hit's positional identity. The start offset is the
// resolved position when known, otherwise the source-local offset.
func (h *Hit) Key() HitKey {
	start := h.TextOffset
	if off, ok := h.Position.Offset(); ok {
		start = off
	}
	return HitKey{Page: h.PageNumber, Start: start, Length: h.TextLength}
}

// CompareHits orders two hits by the canonical 5-part sort key:
// page number, position (pending first), rect Y, rect X, additional index.
// It returns -1, 0 or 1.
func CompareHits(a, b *Hit) int {
	if a.PageNumber != b.PageNumber {
		return cmpInt(a.PageNumber, b.PageNumber)
	}
	if av, bv := a.Position.SortValue(), b.Position.SortValue(); av != bv {
		return cmpInt(av, bv)
	}
	if a.Rect.Y != b.Rect.Y {
		return cmpFloat(a.Rect.Y, b.Rect.Y)
	}
	if a.Rect.X != b.Rect.X {
		return cmpFloat(a.Rect.X, b.Rect.X)
	}
	return cmpInt(a.AdditionalIndex, b.AdditionalIndex)
}

// SortHits sorts hits into canonical order. The sort is stable so hits
// that compare equal keep their arrival order.
func SortHits(hits []*Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		return CompareHits(hits[i], hits[j]) < 0
	})
}

// HitsSorted reports whether hits are already in canonical order.
func HitsSorted(hits []*Hit) bool {
	return sort.SliceIsSorted(hits, func(i, j int) bool {
		return CompareHits(hits[i], hits[j]) < 0
	})
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
