package services

import (
	"context"
	"sort"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// aggregator owns one session's result list: canonical ordering, the
// pending-resolution set, and the page-text requests that drive deferred
// resort. It is not safe for concurrent use; the coordinator serialises
// all access.
type aggregator struct {
	engine  driven.DocumentEngine
	limiter *rate.Limiter

	hits      []*domain.Hit
	pending   map[int][]*domain.Hit // page -> hits awaiting a real position
	requested map[int]bool          // pages requested this session
}

func newAggregator(engine driven.DocumentEngine, limiter *rate.Limiter) *aggregator {
	return &aggregator{
		engine:    engine,
		limiter:   limiter,
		pending:   make(map[int][]*domain.Hit),
		requested: make(map[int]bool),
	}
}

// add appends new hits to the visible list and registers the pages of
// unresolved hits for deferred resort. ctx bounds the paced page-text
// requests; it is the session context, so superseded sessions stop
// requesting.
func (a *aggregator) add(ctx context.Context, hits []*domain.Hit) {
	for _, h := range hits {
		a.hits = append(a.hits, h)
		if h.Resolved() {
			continue
		}
		a.pending[h.PageNumber] = append(a.pending[h.PageNumber], h)
		a.registerPage(ctx, h.PageNumber)
	}
}

// registerPage requests a page's text exactly once per session. Pages
// whose text is already extracted are not requested; the engine never
// announces them, so resolveReadyPages picks them up within the batch.
func (a *aggregator) registerPage(ctx context.Context, page int) {
	if a.requested[page] {
		return
	}
	a.requested[page] = true

	if a.engine == nil || a.engine.IsPageTextReady(page) {
		return
	}

	if a.limiter == nil || a.limiter.Allow() {
		a.engine.RequestPageText(page)
		return
	}

	// Over the request budget: wait out the limiter off to the side so
	// dispatch never blocks. The session context cancels the wait.
	go func() {
		if err := a.limiter.Wait(ctx); err != nil {
			return
		}
		a.engine.RequestPageText(page)
	}()
}

// resolveReadyPages resolves pending hits sitting on pages whose text
// was extracted before the hits arrived. Such pages get no readiness
// announcement, so they must be swept when a batch lands. Returns true
// when any hit gained its position.
func (a *aggregator) resolveReadyPages() bool {
	if a.engine == nil {
		return false
	}
	changed := false
	for page := range a.pending {
		if a.engine.IsPageTextReady(page) && a.resolvePage(page) {
			changed = true
		}
	}
	return changed
}

// resolvePage assigns real positions to the pending hits of one page,
// once its text is available. Hits whose character index still cannot be
// determined stay pending. Returns true when any hit was resolved.
// Calling it again for the same page is a no-op.
func (a *aggregator) resolvePage(page int) bool {
	waiting := a.pending[page]
	if len(waiting) == 0 {
		return false
	}

	var unresolved []*domain.Hit
	changed := false
	for _, h := range waiting {
		ref := driven.ObjectRef{
			MarkID:     h.MarkID,
			CommentID:  h.CommentID,
			PageNumber: h.PageNumber,
		}
		idx, err := a.engine.CharacterIndex(ref)
		if err != nil {
			logger.Debug("Character index unavailable for mark %s page %d: %v", h.MarkID, page, err)
			unresolved = append(unresolved, h)
			continue
		}
		h.Position = domain.KnownPosition(idx)
		changed = true
	}

	if len(unresolved) == 0 {
		delete(a.pending, page)
	} else {
		a.pending[page] = unresolved
	}
	return changed
}

// sortResults re-sorts the whole list into canonical order.
func (a *aggregator) sortResults() {
	domain.SortHits(a.hits)
}

// results returns a copy of the current list.
func (a *aggregator) results() []*domain.Hit {
	out := make([]*domain.Hit, len(a.hits))
	copy(out, a.hits)
	return out
}

// unresolvedPages lists pages still holding pending hits, ascending.
// These are the pages that could not be searched or ordered precisely.
func (a *aggregator) unresolvedPages() []int {
	if len(a.pending) == 0 {
		return nil
	}
	pages := make([]int, 0, len(a.pending))
	for page := range a.pending {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return pages
}

// hitCounts tallies hits per term pattern.
func (a *aggregator) hitCounts() map[string]int {
	counts := make(map[string]int)
	for _, h := range a.hits {
		if h.Term != nil {
			counts[h.Term.Pattern]++
		}
	}
	return counts
}

// size returns the current result count.
func (a *aggregator) size() int {
	return len(a.hits)
}
