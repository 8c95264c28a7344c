package services

import (
	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// markSearcher scans the loaded markup objects synchronously.
type markSearcher struct {
	store   driven.MarkStore
	matcher driven.TextMatcher
}

// search returns the raw hits for every in-scope mark. Redaction marks
// carrying a reason are not text-scanned; when a reason allow-list is in
// scope they pass or fail it as a single hit. Errors on individual marks
// are swallowed and the mark skipped; a bad object never aborts the run.
func (s *markSearcher) search(query *domain.SearchQuery, scope domain.SearchScope) []*domain.Hit {
	if s.store == nil || !scope.WantsMarks() {
		return nil
	}

	var hits []*domain.Hit
	for _, mark := range s.store.Marks() {
		hits = append(hits, s.searchMark(mark, query, scope)...)
	}
	return hits
}

// searchMark scans one mark, recovering from malformed object data.
func (s *markSearcher) searchMark(
	mark driven.Mark, query *domain.SearchQuery, scope domain.SearchScope,
) (hits []*domain.Hit) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Skipping malformed mark: %v", r)
			hits = nil
		}
	}()

	category := domain.CategoryForType(mark.Type())
	if !scope.CategoryEnabled(category) {
		return nil
	}

	if category == domain.CategoryRedaction {
		if reason, hasReason := mark.Reason(); hasReason || scope.ReasonFilter != nil {
			return s.reasonHit(mark, reason, hasReason, scope)
		}
	}

	if !scope.MarkText {
		return nil
	}
	text, ok := mark.Text()
	if !ok {
		return nil
	}

	for _, term := range query.Terms() {
		if term.IsRegexLike {
			continue // regex-like presets are evaluated by the engine only
		}
		for _, m := range s.matcher.Match(text, term) {
			hits = append(hits, &domain.Hit{
				Source:          domain.SourceMark,
				MarkID:          mark.ID(),
				Term:            term,
				PageNumber:      mark.PageNumber(),
				TextOffset:      m.Offset,
				TextLength:      m.Length,
				Position:        domain.PendingPosition(),
				Rect:            mark.Rect(),
				Context:         contextSlice(text, m.Offset, m.Length, term.ContextPadding),
				AdditionalIndex: m.Offset,
			})
		}
	}
	return hits
}

// reasonHit matches a redaction against the reason allow-list.
func (s *markSearcher) reasonHit(
	mark driven.Mark, reason string, hasReason bool, scope domain.SearchScope,
) []*domain.Hit {
	if scope.ReasonFilter == nil || !scope.ReasonFilter.Allows(reason, hasReason) {
		return nil
	}
	return []*domain.Hit{{
		Source:     domain.SourceMark,
		MarkID:     mark.ID(),
		PageNumber: mark.PageNumber(),
		Position:   domain.PendingPosition(),
		Rect:       mark.Rect(),
		Context:    reason,
	}}
}

// commentSearcher scans all comments on all loaded marks synchronously.
type commentSearcher struct {
	store   driven.MarkStore
	matcher driven.TextMatcher
}

// search matches every comment's text against every term.
func (s *commentSearcher) search(query *domain.SearchQuery, scope domain.SearchScope) []*domain.Hit {
	if s.store == nil || !scope.CommentText || query.IsEmpty() {
		return nil
	}

	var hits []*domain.Hit
	for _, mark := range s.store.Marks() {
		hits = append(hits, s.searchConversation(mark, query)...)
	}
	return hits
}

// searchConversation scans one mark's comments, recovering from
// malformed comment data.
func (s *commentSearcher) searchConversation(
	mark driven.Mark, query *domain.SearchQuery,
) (hits []*domain.Hit) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Skipping malformed conversation: %v", r)
			hits = nil
		}
	}()

	for _, comment := range mark.Comments() {
		text := comment.Text()
		for _, term := range query.Terms() {
			if term.IsRegexLike {
				continue
			}
			for _, m := range s.matcher.Match(text, term) {
				hits = append(hits, &domain.Hit{
					Source:          domain.SourceComment,
					MarkID:          mark.ID(),
					CommentID:       comment.ID(),
					Term:            term,
					PageNumber:      mark.PageNumber(),
					TextOffset:      m.Offset,
					TextLength:      m.Length,
					Position:        domain.PendingPosition(),
					Rect:            mark.Rect(),
					Context:         contextSlice(text, m.Offset, m.Length, term.ContextPadding),
					AdditionalIndex: m.Offset,
				})
			}
		}
	}
	return hits
}

// contextSlice returns the matched text with up to padding characters of
// surrounding context on each side. Offsets are in runes to stay aligned
// with the matcher's character offsets.
func contextSlice(text string, offset, length, padding int) string {
	runes := []rune(text)
	start := offset - padding
	if start < 0 {
		start = 0
	}
	end := offset + length + padding
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}
