package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch/internal/adapters/driven/matcher"
	"github.com/custodia-labs/docsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsearch/internal/core/domain"
)

func markScope() domain.SearchScope {
	return domain.SearchScope{
		Annotations: true,
		Redactions:  true,
		Signatures:  true,
		MarkText:    true,
	}
}

func TestMarkSearcher_MatchesMarkText(t *testing.T) {
	store := memory.NewMarkStore(&memory.Mark{
		MarkID:   "m1",
		MarkType: "highlight",
		Page:     3,
		Bounds:   domain.Rect{X: 1, Y: 2},
		BodyText: "alpha and alpha again",
		HasText:  true,
	})
	s := markSearcher{store: store, matcher: matcher.New()}
	query := domain.NewSearchQuery(&domain.SearchTerm{Pattern: "alpha", ContextPadding: 4})

	hits := s.search(query, markScope())

	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Equal(t, domain.SourceMark, h.Source)
		assert.Equal(t, "m1", h.MarkID)
		assert.Equal(t, 3, h.PageNumber)
		assert.False(t, h.Resolved())
	}
	// Multiple hits on one object keep a stable relative order.
	assert.Equal(t, 0, hits[0].AdditionalIndex)
	assert.Equal(t, 10, hits[1].AdditionalIndex)
	assert.Equal(t, "alpha and", hits[0].Context)
}

func TestMarkSearcher_CategoryGating(t *testing.T) {
	store := memory.NewMarkStore(
		&memory.Mark{MarkID: "a1", MarkType: "note", Page: 1, BodyText: "alpha", HasText: true},
		&memory.Mark{MarkID: "s1", MarkType: "signature", Page: 1, BodyText: "alpha", HasText: true},
	)
	s := markSearcher{store: store, matcher: matcher.New()}
	query := domain.NewSearchQuery(&domain.SearchTerm{Pattern: "alpha"})

	scope := domain.SearchScope{Annotations: true, MarkText: true}
	hits := s.search(query, scope)

	require.Len(t, hits, 1)
	assert.Equal(t, "a1", hits[0].MarkID)
}

func TestMarkSearcher_OutOfScopeEntirely(t *testing.T) {
	store := memory.NewMarkStore(&memory.Mark{
		MarkID: "a1", MarkType: "note", Page: 1, BodyText: "alpha", HasText: true,
	})
	s := markSearcher{store: store, matcher: matcher.New()}
	query := domain.NewSearchQuery(&domain.SearchTerm{Pattern: "alpha"})

	assert.Empty(t, s.search(query, domain.SearchScope{DocumentText: true}))
}

func TestMarkSearcher_RedactionWithReasonIsNotTextScanned(t *testing.T) {
	store := memory.NewMarkStore(&memory.Mark{
		MarkID:     "r1",
		MarkType:   "redaction",
		Page:       1,
		BodyText:   "alpha", // would match if scanned
		HasText:    true,
		ReasonText: "PII",
		HasReason:  true,
	})
	s := markSearcher{store: store, matcher: matcher.New()}
	query := domain.NewSearchQuery(&domain.SearchTerm{Pattern: "alpha"})

	// No reason filter in scope: the mark contributes nothing at all.
	assert.Empty(t, s.search(query, markScope()))
}

func TestMarkSearcher_ReasonFilter(t *testing.T) {
	store := memory.NewMarkStore(
		&memory.Mark{MarkID: "r1", MarkType: "redaction", Page: 1, ReasonText: "PII", HasReason: true},
		&memory.Mark{MarkID: "r2", MarkType: "redaction", Page: 2, ReasonText: "Other", HasReason: true},
		&memory.Mark{MarkID: "r3", MarkType: "redaction", Page: 3},
	)
	s := markSearcher{store: store, matcher: matcher.New()}
	query := domain.NewSearchQuery()

	scope := markScope()
	scope.ReasonFilter = domain.NewReasonFilter(true, "PII")
	hits := s.search(query, scope)

	require.Len(t, hits, 2)
	assert.Equal(t, "r1", hits[0].MarkID)
	assert.Equal(t, "PII", hits[0].Context)
	assert.Nil(t, hits[0].Term, "reason hits carry no term")
	assert.Equal(t, "r3", hits[1].MarkID, "no-reason redaction passes via the explicit entry")
}

func TestMarkSearcher_SkipsRegexLikeTerms(t *testing.T) {
	store := memory.NewMarkStore(&memory.Mark{
		MarkID: "m1", MarkType: "note", Page: 1, BodyText: "123", HasText: true,
	})
	s := markSearcher{store: store, matcher: matcher.New()}
	query := domain.NewSearchQuery(&domain.SearchTerm{Pattern: "123", IsRegexLike: true})

	assert.Empty(t, s.search(query, markScope()))
}

func TestMarkSearcher_SkipsMarksWithoutText(t *testing.T) {
	store := memory.NewMarkStore(&memory.Mark{MarkID: "m1", MarkType: "note", Page: 1})
	s := markSearcher{store: store, matcher: matcher.New()}
	query := domain.NewSearchQuery(&domain.SearchTerm{Pattern: "alpha"})

	assert.Empty(t, s.search(query, markScope()))
}

func TestCommentSearcher_MatchesConversation(t *testing.T) {
	store := memory.NewMarkStore(&memory.Mark{
		MarkID:   "m1",
		MarkType: "note",
		Page:     2,
		Conversation: []*memory.Comment{
			{CommentID: "c1", Body: "nothing here"},
			{CommentID: "c2", Body: "alpha mentioned"},
		},
	})
	s := commentSearcher{store: store, matcher: matcher.New()}
	query := domain.NewSearchQuery(&domain.SearchTerm{Pattern: "alpha"})

	hits := s.search(query, domain.SearchScope{CommentText: true})

	require.Len(t, hits, 1)
	assert.Equal(t, domain.SourceComment, hits[0].Source)
	assert.Equal(t, "m1", hits[0].MarkID)
	assert.Equal(t, "c2", hits[0].CommentID)
	assert.Equal(t, 2, hits[0].PageNumber)
	assert.False(t, hits[0].Resolved())
}

func TestCommentSearcher_ScopeAndEmptyQuery(t *testing.T) {
	store := memory.NewMarkStore(&memory.Mark{
		MarkID:       "m1",
		MarkType:     "note",
		Page:         1,
		Conversation: []*memory.Comment{{CommentID: "c1", Body: "alpha"}},
	})
	s := commentSearcher{store: store, matcher: matcher.New()}
	query := domain.NewSearchQuery(&domain.SearchTerm{Pattern: "alpha"})

	assert.Empty(t, s.search(query, domain.SearchScope{MarkText: true}))
	assert.Empty(t, s.search(domain.NewSearchQuery(), domain.SearchScope{CommentText: true}))
}

func TestContextSlice(t *testing.T) {
	text := "the quick brown fox"

	assert.Equal(t, "quick", contextSlice(text, 4, 5, 0))
	assert.Equal(t, "e quick b", contextSlice(text, 4, 5, 2))
	assert.Equal(t, text, contextSlice(text, 4, 5, 100))
	assert.Equal(t, "", contextSlice("", 0, 0, 5))
}
