package domain

import "strings"

// Colour is an RGB hex colour string (e.g. "#ffd54f") used to highlight
// a term's hits. The empty string means no colour has been assigned yet.
type Colour string

// None reports whether no colour has been assigned.
func (c Colour) None() bool {
	return c == ""
}

// highlightPalette holds the colours cycled through when terms do not
// declare their own highlight colour.
var highlightPalette = []Colour{
	"#ffd54f", // amber
	"#81d4fa", // light blue
	"#a5d6a7", // light green
	"#f48fb1", // pink
	"#ce93d8", // lilac
	"#ffab91", // peach
	"#e6ee9c", // lime
	"#80cbc4", // teal
}

// AutoColour returns the i-th automatic highlight colour,
// cycling through a fixed palette.
func AutoColour(i int) Colour {
	if i < 0 {
		i = -i
	}
	return highlightPalette[i%len(highlightPalette)]
}

// MatchingOptions are the flags governing how a term matches text.
type MatchingOptions struct {
	// ExactPhrase treats the whole input string as a single term.
	ExactPhrase bool

	// MatchCase makes matching case-sensitive.
	MatchCase bool

	// MatchWholeWord only accepts matches spanning a complete word.
	MatchWholeWord bool

	// BeginsWith only accepts matches starting at a word boundary.
	BeginsWith bool

	// EndsWith only accepts matches ending at a word boundary.
	EndsWith bool

	// Wildcard enables * and ? glob patterns. Mutually exclusive with
	// word anchoring: enabling it clears MatchWholeWord, BeginsWith
	// and EndsWith.
	Wildcard bool
}

// Normalised returns a copy with the wildcard exclusivity invariant
// applied: a wildcard term carries no word anchoring.
func (o MatchingOptions) Normalised() MatchingOptions {
	if o.Wildcard {
		o.MatchWholeWord = false
		o.BeginsWith = false
		o.EndsWith = false
	}
	return o
}

// SearchTerm is one pattern participating in a query, together with its
// matching options. Identity is the Pattern string, compared case-sensitively
// and literally. A term is immutable once created, with two exceptions: the
// highlight colour may be assigned lazily (and then never changes while the
// term is known), and a re-filter may propagate changed global matching
// options onto user-supplied terms.
type SearchTerm struct {
	// Pattern is the literal (or literal-regex) text to match.
	// It is the term's identity key.
	Pattern string

	// IsRegexLike marks preset terms whose pattern is a literal regex
	// evaluated by the document engine rather than the plain matcher.
	IsRegexLike bool

	// DisplayName is a friendly name shown instead of the pattern.
	// Empty for plain user-typed terms.
	DisplayName string

	// Options are the matching flags in force for this term.
	Options MatchingOptions

	// HighlightColour is the colour used to paint this term's hits.
	// Assigned lazily; empty until then.
	HighlightColour Colour

	// ContextPadding is the number of characters of surrounding text
	// captured on each side of a hit.
	ContextPadding int
}

// Label returns the display name, falling back to the pattern.
func (t *SearchTerm) Label() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Pattern
}

// SearchQuery is an ordered set of terms, unique by pattern.
// Insertion order is display order.
type SearchQuery struct {
	terms     []*SearchTerm
	byPattern map[string]*SearchTerm
}

// NewSearchQuery creates a query from the given terms, dropping
// duplicate patterns while preserving first-seen order.
func NewSearchQuery(terms ...*SearchTerm) *SearchQuery {
	q := &SearchQuery{byPattern: make(map[string]*SearchTerm)}
	for _, t := range terms {
		q.Add(t)
	}
	return q
}

// Add appends a term unless its pattern is already present.
// It reports whether the term was added.
func (q *SearchQuery) Add(t *SearchTerm) bool {
	if t == nil || t.Pattern == "" {
		return false
	}
	if _, ok := q.byPattern[t.Pattern]; ok {
		return false
	}
	q.terms = append(q.terms, t)
	q.byPattern[t.Pattern] = t
	return true
}

// Terms returns the terms in insertion order.
// The returned slice must not be mutated.
func (q *SearchQuery) Terms() []*SearchTerm {
	return q.terms
}

// Term returns the term with the given pattern, if present.
func (q *SearchQuery) Term(pattern string) (*SearchTerm, bool) {
	t, ok := q.byPattern[pattern]
	return t, ok
}

// Len returns the number of terms.
func (q *SearchQuery) Len() int {
	return len(q.terms)
}

// IsEmpty reports whether the query has no terms. An empty query is
// legal: it means no text matching, only scope-filtered mark hits.
func (q *SearchQuery) IsEmpty() bool {
	return len(q.terms) == 0
}

// Patterns returns the patterns in insertion order.
func (q *SearchQuery) Patterns() []string {
	out := make([]string, len(q.terms))
	for i, t := range q.terms {
		out[i] = t.Pattern
	}
	return out
}

// String returns the patterns joined for logging.
func (q *SearchQuery) String() string {
	return strings.Join(q.Patterns(), " ")
}

// TermEntry is the registry's bookkeeping record for one known term.
// Entries outlive individual sessions: excluded terms are kept with
// InUse=false so the filter UI can still show their last known count.
type TermEntry struct {
	// Term is the shared term object. Re-filters reuse it verbatim so
	// term identity (and therefore result caching) is preserved.
	Term *SearchTerm

	// InUse reports whether the term participates in the current session.
	InUse bool

	// PriorHitCount is the hit count from the last session that
	// included this term. Frozen while the term is filtered out.
	PriorHitCount int

	// UserSupplied distinguishes typed terms from configured presets.
	UserSupplied bool
}
