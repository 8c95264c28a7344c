package domain

import "strings"

// MarkCategory classifies a markup object by its declared type.
type MarkCategory int

const (
	// CategoryUnknown is a mark whose type is not recognised.
	CategoryUnknown MarkCategory = iota
	// CategoryAnnotation covers text annotations (notes, highlights, stamps).
	CategoryAnnotation
	// CategoryRedaction covers redaction marks, which may carry a reason.
	CategoryRedaction
	// CategorySignature covers signature placements.
	CategorySignature
)

// String returns the category name for logging.
func (c MarkCategory) String() string {
	switch c {
	case CategoryAnnotation:
		return "annotation"
	case CategoryRedaction:
		return "redaction"
	case CategorySignature:
		return "signature"
	default:
		return "unknown"
	}
}

// CategoryForType classifies a mark's declared type string.
func CategoryForType(markType string) MarkCategory {
	t := strings.ToLower(markType)
	switch {
	case strings.Contains(t, "redact"):
		return CategoryRedaction
	case strings.Contains(t, "signature"), strings.Contains(t, "initials"):
		return CategorySignature
	case t == "":
		return CategoryUnknown
	default:
		return CategoryAnnotation
	}
}

// ReasonFilter is the allow-list of redaction reasons a search includes.
// Redaction marks carrying a reason are not text-scanned; they pass or
// fail this filter as a whole.
type ReasonFilter struct {
	// Reasons are the allowed reason strings.
	Reasons map[string]bool

	// IncludeNoReason allows redactions that carry no reason at all.
	// This is the explicit "no reason" entry of the allow-list.
	IncludeNoReason bool
}

// NewReasonFilter builds a filter from the allowed reasons.
func NewReasonFilter(includeNoReason bool, reasons ...string) *ReasonFilter {
	f := &ReasonFilter{
		Reasons:         make(map[string]bool, len(reasons)),
		IncludeNoReason: includeNoReason,
	}
	for _, r := range reasons {
		f.Reasons[r] = true
	}
	return f
}

// Allows reports whether a redaction with the given reason passes.
// hasReason is false for marks that carry no reason string.
func (f *ReasonFilter) Allows(reason string, hasReason bool) bool {
	if !hasReason {
		return f.IncludeNoReason
	}
	return f.Reasons[reason]
}

// SearchScope selects which sources a session searches.
type SearchScope struct {
	// DocumentText enables the asynchronous document-text search.
	DocumentText bool

	// Annotations, Redactions and Signatures enable the corresponding
	// mark categories.
	Annotations bool
	Redactions  bool
	Signatures  bool

	// MarkText enables scanning the searchable text of enabled,
	// text-bearing marks.
	MarkText bool

	// CommentText enables scanning discussion comments.
	CommentText bool

	// ReasonFilter, when set, matches redaction marks against a reason
	// allow-list instead of text-scanning them.
	ReasonFilter *ReasonFilter
}

// CategoryEnabled reports whether marks of the given category are in scope.
func (s SearchScope) CategoryEnabled(c MarkCategory) bool {
	switch c {
	case CategoryAnnotation:
		return s.Annotations
	case CategoryRedaction:
		return s.Redactions
	case CategorySignature:
		return s.Signatures
	default:
		return false
	}
}

// WantsMarks reports whether any mark category is in scope.
func (s SearchScope) WantsMarks() bool {
	return s.Annotations || s.Redactions || s.Signatures
}

// HasNonTextWork reports whether the scope requests hits that need no
// text terms at all. An empty query with non-text work still dispatches;
// an empty query without it completes immediately with zero results.
func (s SearchScope) HasNonTextWork() bool {
	return s.Redactions && s.ReasonFilter != nil
}
