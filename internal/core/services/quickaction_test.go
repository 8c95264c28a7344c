package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
)

// completeTextSearch runs a full search to completion with the given
// engine hits delivered in one batch.
func completeTextSearch(
	t *testing.T, c *SearchCoordinator, eng *mockEngine, input string, hits ...driven.EngineHit,
) {
	t.Helper()
	_, err := c.Start(context.Background(), input, driving.StartOptions{Scope: fullScope()})
	require.NoError(t, err)
	waitForState(t, c, domain.StateStreaming)

	handle := eng.lastHandle()
	if len(hits) > 0 {
		handle.emitPartial(hits...)
	}
	handle.finish(driven.EventCompleted, nil)
	waitForState(t, c, domain.StateCompleted)
}

func TestConvertToRedactions_NoSession(t *testing.T) {
	c, _ := newTestCoordinator(t, newMockEngine(), memory.NewMarkStore(), nil)

	_, err := c.ConvertToRedactions(context.Background(), []string{"alpha"})

	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
}

func TestConvertToRedactions_SessionStillRunning(t *testing.T) {
	eng := newMockEngine()
	c, _ := newTestCoordinator(t, eng, memory.NewMarkStore(), nil)

	_, err := c.Start(context.Background(), "alpha", driving.StartOptions{Scope: textScope()})
	require.NoError(t, err)
	waitForState(t, c, domain.StateStreaming)

	_, err = c.ConvertToRedactions(context.Background(), []string{"alpha"})
	assert.ErrorIs(t, err, domain.ErrSessionNotCompleted)

	eng.lastHandle().finish(driven.EventCompleted, nil)
	waitForState(t, c, domain.StateCompleted)
}

func TestConvertToRedactions_CreatesMarksFromResolvedHits(t *testing.T) {
	store := memory.NewMarkStore()
	eng := newMockEngine()
	c, _ := newTestCoordinator(t, eng, store, nil)

	completeTextSearch(t, c, eng, "alpha",
		driven.EngineHit{Pattern: "alpha", PageNumber: 1, CharOffset: 10, Length: 5, Rect: domain.Rect{Y: 50}},
		driven.EngineHit{Pattern: "alpha", PageNumber: 2, CharOffset: 30, Length: 5},
	)

	res, err := c.ConvertToRedactions(context.Background(), []string{"alpha"})

	require.NoError(t, err)
	assert.Len(t, res.CreatedMarkIDs, 2)
	assert.Empty(t, res.ReplacedMarkIDs)

	created, err := store.Get(res.CreatedMarkIDs[0])
	require.NoError(t, err)
	assert.Equal(t, memory.RedactionType, created.MarkType)
	assert.Equal(t, 1, created.Page)
	start, length, ok := created.TextRange()
	require.True(t, ok)
	assert.Equal(t, 10, start)
	assert.Equal(t, 5, length)
}

func TestConvertToRedactions_ReplacesExistingRedactionAtSamePosition(t *testing.T) {
	existing := &memory.Mark{
		MarkID:   "old-redaction",
		MarkType: "redaction",
		Page:     2,
		Start:    10,
		Length:   5,
		Anchored: true,
	}
	store := memory.NewMarkStore(existing)
	eng := newMockEngine()
	c, _ := newTestCoordinator(t, eng, store, nil)

	completeTextSearch(t, c, eng, "alpha",
		driven.EngineHit{Pattern: "alpha", PageNumber: 2, CharOffset: 10, Length: 5},
		driven.EngineHit{Pattern: "alpha", PageNumber: 3, CharOffset: 0, Length: 5},
	)

	res, err := c.ConvertToRedactions(context.Background(), []string{"alpha"})

	require.NoError(t, err)
	assert.Len(t, res.CreatedMarkIDs, 2)
	assert.Equal(t, []string{"old-redaction"}, res.ReplacedMarkIDs)

	// The displaced mark is gone; its replacement holds the position.
	_, err = store.Get("old-redaction")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	occupied := 0
	for _, m := range store.Marks() {
		if start, length, ok := m.TextRange(); ok && m.PageNumber() == 2 && start == 10 && length == 5 {
			occupied++
		}
	}
	assert.Equal(t, 1, occupied, "exactly one redaction occupies the position")
}

func TestConvertToRedactions_DeduplicatesIdenticalPositions(t *testing.T) {
	store := memory.NewMarkStore()
	eng := newMockEngine()
	c, _ := newTestCoordinator(t, eng, store, nil)

	// Two terms hitting the same span produce one redaction.
	completeTextSearch(t, c, eng, "alpha alphas",
		driven.EngineHit{Pattern: "alpha", PageNumber: 1, CharOffset: 10, Length: 5},
		driven.EngineHit{Pattern: "alphas", PageNumber: 1, CharOffset: 10, Length: 5},
	)

	res, err := c.ConvertToRedactions(context.Background(), []string{"alpha", "alphas"})

	require.NoError(t, err)
	assert.Len(t, res.CreatedMarkIDs, 1)
}

func TestConvertToRedactions_OnlySelectedInUseTerms(t *testing.T) {
	store := memory.NewMarkStore()
	eng := newMockEngine()
	c, _ := newTestCoordinator(t, eng, store, nil)

	completeTextSearch(t, c, eng, "alpha beta",
		driven.EngineHit{Pattern: "alpha", PageNumber: 1, CharOffset: 0, Length: 5},
		driven.EngineHit{Pattern: "beta", PageNumber: 1, CharOffset: 10, Length: 4},
	)

	res, err := c.ConvertToRedactions(context.Background(), []string{"beta", "unknown"})

	require.NoError(t, err)
	require.Len(t, res.CreatedMarkIDs, 1)
	created, err := store.Get(res.CreatedMarkIDs[0])
	require.NoError(t, err)
	start, _, _ := created.TextRange()
	assert.Equal(t, 10, start)
}

func TestConvertToRedactions_SkipsUnresolvedHits(t *testing.T) {
	store := memory.NewMarkStore(&memory.Mark{
		MarkID:   "m1",
		MarkType: "note",
		Page:     1,
		BodyText: "alpha in a note",
		HasText:  true,
	})
	eng := newMockEngine()
	c, _ := newTestCoordinator(t, eng, store, nil)

	// The mark hit never resolves; only the document hit converts.
	completeTextSearch(t, c, eng, "alpha",
		driven.EngineHit{Pattern: "alpha", PageNumber: 2, CharOffset: 0, Length: 5},
	)

	res, err := c.ConvertToRedactions(context.Background(), []string{"alpha"})

	require.NoError(t, err)
	assert.Len(t, res.CreatedMarkIDs, 1)
	created, err := store.Get(res.CreatedMarkIDs[0])
	require.NoError(t, err)
	assert.Equal(t, 2, created.Page)
}

func TestConvertToRedactions_NothingSelected(t *testing.T) {
	store := memory.NewMarkStore()
	eng := newMockEngine()
	c, _ := newTestCoordinator(t, eng, store, nil)

	completeTextSearch(t, c, eng, "alpha")

	res, err := c.ConvertToRedactions(context.Background(), []string{"alpha"})

	require.NoError(t, err)
	assert.Empty(t, res.CreatedMarkIDs)
	assert.Empty(t, res.ReplacedMarkIDs)
}

func TestApplyReason_SetsAndClears(t *testing.T) {
	store := memory.NewMarkStore()
	eng := newMockEngine()
	c, _ := newTestCoordinator(t, eng, store, nil)
	ctx := context.Background()

	completeTextSearch(t, c, eng, "alpha",
		driven.EngineHit{Pattern: "alpha", PageNumber: 1, CharOffset: 0, Length: 5},
	)
	res, err := c.ConvertToRedactions(ctx, []string{"alpha"})
	require.NoError(t, err)
	require.Len(t, res.CreatedMarkIDs, 1)

	reason := "PII"
	require.NoError(t, c.ApplyReason(ctx, &reason))
	mark, err := store.Get(res.CreatedMarkIDs[0])
	require.NoError(t, err)
	got, has := mark.Reason()
	assert.True(t, has)
	assert.Equal(t, "PII", got)

	require.NoError(t, c.ApplyReason(ctx, nil))
	mark, err = store.Get(res.CreatedMarkIDs[0])
	require.NoError(t, err)
	_, has = mark.Reason()
	assert.False(t, has)
}

func TestApplyReason_NoConversionYet(t *testing.T) {
	c, _ := newTestCoordinator(t, newMockEngine(), memory.NewMarkStore(), nil)

	reason := "PII"
	assert.NoError(t, c.ApplyReason(context.Background(), &reason))
}
