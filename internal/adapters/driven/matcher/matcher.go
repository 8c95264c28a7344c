// Package matcher implements the synchronous text-matching primitive
// used against mark text and comment text.
//
// Matching operates on characters (runes), not bytes, so offsets line up
// with the document engine's character indexes. Case folding is simple
// per-rune folding; linguistic analysis (stemming, fuzzy matching) is
// out of scope.
package matcher

import (
	"unicode"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// Ensure Matcher implements the interface.
var _ driven.TextMatcher = (*Matcher)(nil)

// Matcher is the stateless literal/wildcard matcher.
type Matcher struct{}

// New creates a matcher.
func New() *Matcher {
	return &Matcher{}
}

// Match returns every occurrence of the term in text, honouring the
// term's matching options. Offsets and lengths are in runes.
func (m *Matcher) Match(text string, term *domain.SearchTerm) []driven.Match {
	if term == nil || term.Pattern == "" || text == "" {
		return nil
	}
	opts := term.Options.Normalised()

	haystack := []rune(text)
	needle := []rune(term.Pattern)
	if !opts.MatchCase {
		haystack = foldRunes(haystack)
		needle = foldRunes(needle)
	}

	if opts.Wildcard {
		return matchWildcard(haystack, needle)
	}
	return matchLiteral(haystack, needle, opts)
}

// matchLiteral scans for plain occurrences and filters them by the word
// anchoring flags.
func matchLiteral(haystack, needle []rune, opts domain.MatchingOptions) []driven.Match {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return nil
	}

	var out []driven.Match
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if !runesEqual(haystack[i:i+len(needle)], needle) {
			continue
		}
		startsWord := i == 0 || !isWordRune(haystack[i-1])
		endsWord := i+len(needle) == len(haystack) || !isWordRune(haystack[i+len(needle)])

		if (opts.MatchWholeWord || opts.BeginsWith) && !startsWord {
			continue
		}
		if (opts.MatchWholeWord || opts.EndsWith) && !endsWord {
			continue
		}
		out = append(out, driven.Match{Offset: i, Length: len(needle)})
	}
	return out
}

// matchWildcard matches a * / ? glob against each whole word of the text.
func matchWildcard(haystack, pattern []rune) []driven.Match {
	var out []driven.Match
	for start := 0; start < len(haystack); {
		if !isWordRune(haystack[start]) {
			start++
			continue
		}
		end := start
		for end < len(haystack) && isWordRune(haystack[end]) {
			end++
		}
		if globMatch(haystack[start:end], pattern) {
			out = append(out, driven.Match{Offset: start, Length: end - start})
		}
		start = end
	}
	return out
}

// globMatch matches word against pattern, where * matches any run of
// characters and ? matches exactly one.
func globMatch(word, pattern []rune) bool {
	// Iterative backtracking over the last * seen.
	w, p := 0, 0
	starIdx, starWord := -1, 0
	for w < len(word) {
		switch {
		case p < len(pattern) && (pattern[p] == '?' || pattern[p] == word[w]):
			w++
			p++
		case p < len(pattern) && pattern[p] == '*':
			starIdx = p
			starWord = w
			p++
		case starIdx >= 0:
			p = starIdx + 1
			starWord++
			w = starWord
		default:
			return false
		}
	}
	for p < len(pattern) && pattern[p] == '*' {
		p++
	}
	return p == len(pattern)
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func foldRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
