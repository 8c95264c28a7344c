package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosition_ZeroValueIsPending(t *testing.T) {
	var p Position

	assert.False(t, p.IsKnown())
	_, ok := p.Offset()
	assert.False(t, ok)
	assert.Equal(t, pendingSortValue, p.SortValue())
}

func TestPosition_Known(t *testing.T) {
	p := KnownPosition(42)

	assert.True(t, p.IsKnown())
	off, ok := p.Offset()
	require.True(t, ok)
	assert.Equal(t, 42, off)
	assert.Equal(t, 42, p.SortValue())
}

func TestPosition_PendingSortsBeforeAnyKnownOffset(t *testing.T) {
	pending := PendingPosition()

	assert.Less(t, pending.SortValue(), KnownPosition(0).SortValue())
	assert.Less(t, pending.SortValue(), KnownPosition(1).SortValue())
}

func TestCompareHits_PageNumberFirst(t *testing.T) {
	a := &Hit{PageNumber: 1, Position: KnownPosition(500)}
	b := &Hit{PageNumber: 2, Position: KnownPosition(0)}

	assert.Equal(t, -1, CompareHits(a, b))
	assert.Equal(t, 1, CompareHits(b, a))
}

func TestCompareHits_PendingBeforeKnownOnSamePage(t *testing.T) {
	pending := &Hit{PageNumber: 3, Position: PendingPosition()}
	known := &Hit{PageNumber: 3, Position: KnownPosition(0)}

	assert.Equal(t, -1, CompareHits(pending, known))
}

func TestCompareHits_RectBreaksPositionTies(t *testing.T) {
	upper := &Hit{PageNumber: 1, Rect: Rect{X: 10, Y: 100}}
	lower := &Hit{PageNumber: 1, Rect: Rect{X: 10, Y: 200}}
	right := &Hit{PageNumber: 1, Rect: Rect{X: 50, Y: 100}}

	assert.Equal(t, -1, CompareHits(upper, lower))
	assert.Equal(t, -1, CompareHits(upper, right))
	assert.Equal(t, 1, CompareHits(right, upper))
}

func TestCompareHits_AdditionalIndexIsLastResort(t *testing.T) {
	first := &Hit{PageNumber: 1, Rect: Rect{Y: 100, X: 10}, AdditionalIndex: 0}
	second := &Hit{PageNumber: 1, Rect: Rect{Y: 100, X: 10}, AdditionalIndex: 7}

	assert.Equal(t, -1, CompareHits(first, second))
	assert.Equal(t, 0, CompareHits(first, first))
}

func TestSortHits_CanonicalOrder(t *testing.T) {
	hits := []*Hit{
		{PageNumber: 2, Position: KnownPosition(10)},
		{PageNumber: 1, Position: KnownPosition(30)},
		{PageNumber: 1, Position: PendingPosition(), Rect: Rect{Y: 50}},
		{PageNumber: 1, Position: KnownPosition(5)},
		{PageNumber: 1, Position: PendingPosition(), Rect: Rect{Y: 20}},
	}

	SortHits(hits)

	require.True(t, HitsSorted(hits))
	// Pending hits float to the top of page 1, ordered by rect.
	assert.Equal(t, 1, hits[0].PageNumber)
	assert.False(t, hits[0].Resolved())
	assert.Equal(t, 20.0, hits[0].Rect.Y)
	assert.Equal(t, 50.0, hits[1].Rect.Y)
	assert.Equal(t, 5, hits[2].Position.SortValue())
	assert.Equal(t, 30, hits[3].Position.SortValue())
	assert.Equal(t, 2, hits[4].PageNumber)
}

func TestSortHits_StableForEqualKeys(t *testing.T) {
	a := &Hit{PageNumber: 1, MarkID: "a"}
	b := &Hit{PageNumber: 1, MarkID: "b"}
	hits := []*Hit{a, b}

	SortHits(hits)

	assert.Equal(t, "a", hits[0].MarkID)
	assert.Equal(t, "b", hits[1].MarkID)
}

func TestHit_KeyUsesResolvedPosition(t *testing.T) {
	resolved := &Hit{PageNumber: 2, TextOffset: 3, TextLength: 5, Position: KnownPosition(10)}
	pending := &Hit{PageNumber: 2, TextOffset: 3, TextLength: 5, Position: PendingPosition()}

	assert.Equal(t, HitKey{Page: 2, Start: 10, Length: 5}, resolved.Key())
	assert.Equal(t, HitKey{Page: 2, Start: 3, Length: 5}, pending.Key())
}

func TestSourceKind_String(t *testing.T) {
	assert.Equal(t, "document", SourceDocumentText.String())
	assert.Equal(t, "mark", SourceMark.String())
	assert.Equal(t, "comment", SourceComment.String())
	assert.Equal(t, "unknown", SourceKind(99).String())
}
