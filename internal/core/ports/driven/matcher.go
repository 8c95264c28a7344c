package driven

import "github.com/custodia-labs/docsearch/internal/core/domain"

// Match is one occurrence found by the synchronous matcher, in character
// offsets relative to the searched text.
type Match struct {
	// Offset is the match start.
	Offset int

	// Length is the match length.
	Length int
}

// TextMatcher is the synchronous string-matching primitive. It is used
// identically against mark text and comment text; the document engine's
// asynchronous search is its counterpart for whole-document text.
type TextMatcher interface {
	// Match returns every occurrence of the term in text, honouring the
	// term's matching options. Offsets are in characters.
	Match(text string, term *domain.SearchTerm) []Match
}
