package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// Ensure SearchCoordinator implements the interface.
var _ driving.Coordinator = (*SearchCoordinator)(nil)

// Config tunes the coordinator's publication and pacing behaviour.
type Config struct {
	// ImmediateSortThreshold is the result count below which the
	// sort-and-publish pass runs synchronously on every batch.
	ImmediateSortThreshold int

	// SortDelayStep is how much the scheduled sort delay grows per
	// streamed batch.
	SortDelayStep time.Duration

	// MaxSortDelay caps the scheduled sort delay.
	MaxSortDelay time.Duration

	// PageTextRate paces page-text extraction requests issued for
	// deferred resort. Zero means unlimited.
	PageTextRate rate.Limit

	// PageTextBurst is the request burst allowance when pacing.
	PageTextBurst int
}

// DefaultConfig returns the tuning used in production.
func DefaultConfig() Config {
	return Config{
		ImmediateSortThreshold: 64,
		SortDelayStep:          50 * time.Millisecond,
		MaxSortDelay:           time.Second,
	}
}

// notification is one deferred listener callback. Notifications are
// collected while holding the coordinator lock and delivered after it is
// released, so listeners can call back into the coordinator.
type notification func(driving.Listener)

// searchSession is one run of search, from query build to completion.
// Only the coordinator mutates it.
type searchSession struct {
	id        string
	ctx       context.Context
	cancelCtx context.CancelFunc
	state     domain.SessionState
	query     *domain.SearchQuery
	scope     domain.SearchScope
	agg       *aggregator
	throttle  *publishThrottle
	handle    driven.SearchHandle
	fromCache bool
}

// completedRun caches a finished run's results so a re-filter to a
// subset of its terms needs no fresh document-text search.
type completedRun struct {
	patterns map[string]bool
	options  domain.MatchingOptions
	hits     []*domain.Hit
}

// SearchCoordinator owns all search state for one open document: the
// term registry, the active session and the publication pipeline. It is
// single-writer: one mutex serialises every mutation, so engine events,
// throttle timers and deferred resorts can never interleave.
type SearchCoordinator struct {
	engine    driven.DocumentEngine
	markStore driven.MarkStore
	colours   driven.HighlightStore
	cfg       Config

	normaliser *QueryNormaliser
	registry   *TermRegistry
	marks      markSearcher
	comments   commentSearcher

	mu             sync.Mutex
	session        *searchSession
	lastRun        *completedRun
	lastCreated    []string
	globalOptions  domain.MatchingOptions
	listeners      []driving.Listener
	stopPump       chan struct{}
}

// NewSearchCoordinator wires the subsystem for one open document.
// presets and colours may be nil.
func NewSearchCoordinator(
	engine driven.DocumentEngine,
	markStore driven.MarkStore,
	matcher driven.TextMatcher,
	presets driven.PresetStore,
	colours driven.HighlightStore,
	cfg Config,
) *SearchCoordinator {
	c := &SearchCoordinator{
		engine:     engine,
		markStore:  markStore,
		colours:    colours,
		cfg:        cfg,
		normaliser: NewQueryNormaliser(presets),
		registry:   NewTermRegistry(colours),
		marks:      markSearcher{store: markStore, matcher: matcher},
		comments:   commentSearcher{store: markStore, matcher: matcher},
		stopPump:   make(chan struct{}),
	}
	if engine != nil {
		go c.pumpPageText()
	}
	return c
}

// AddListener registers a publication listener.
func (c *SearchCoordinator) AddListener(l driving.Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Close stops the page-text pump. The collaborator stores are owned by
// the host and are not closed here.
func (c *SearchCoordinator) Close() error {
	close(c.stopPump)
	return nil
}

// Start runs a full search, superseding any session already running.
func (c *SearchCoordinator) Start(
	ctx context.Context, input string, opts driving.StartOptions,
) (string, error) {
	logger.Section("Search Start")
	logger.Debug("Input: %q", input)

	c.mu.Lock()
	var events []notification
	c.supersedeLocked(&events)

	sess := c.newSession(opts.Scope)
	c.session = sess
	c.globalOptions = opts.Options.Normalised()
	c.setStateLocked(sess, domain.StateBuilding, &events)

	query, err := c.normaliser.NormaliseInput(ctx, input, opts.Options, opts.ContextPadding)
	if err == nil {
		err = c.validateLocked(ctx, query)
	}
	if err != nil {
		// Search not started; the session never leaves Building.
		c.session = nil
		c.mu.Unlock()
		c.notifyAll(events)
		return "", err
	}

	sess.query = query
	c.registry.ResetForQuery(ctx, query.Terms())
	c.runLocked(sess, &events)

	id := sess.id
	c.mu.Unlock()
	c.notifyAll(events)
	return id, nil
}

// Refilter re-runs search over the checked subset of known terms. When
// every requested term's results are fully known from the prior full run
// and the matching toggles did not change, the cached results are reused
// and no document-text search is issued.
func (c *SearchCoordinator) Refilter(
	ctx context.Context, patterns []string, opts driving.RefilterOptions,
) (string, error) {
	logger.Section("Search Refilter")

	c.mu.Lock()
	query, err := c.normaliser.NormaliseRefilter(c.registry, patterns, opts.Options)
	if err != nil {
		c.mu.Unlock()
		return "", err
	}
	if opts.Options != nil {
		c.globalOptions = opts.Options.Normalised()
	}

	included := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		included[p] = true
	}
	c.registry.ApplyFilter(included)

	var events []notification
	c.supersedeLocked(&events)

	sess := c.newSession(c.sessionScope())
	sess.query = query
	c.session = sess
	c.setStateLocked(sess, domain.StateBuilding, &events)

	if !opts.Force && c.coveredByLastRun(patterns) {
		logger.Info("Refilter served from prior run, no document search issued")
		sess.fromCache = true
		sess.agg.add(sess.ctx, filterHits(c.lastRun.hits, included))
		c.completeLocked(sess, &events)
	} else {
		c.runLocked(sess, &events)
	}

	id := sess.id
	c.mu.Unlock()
	c.notifyAll(events)
	return id, nil
}

// Cancel aborts the current session's document-text search. Results
// delivered so far stay visible and nothing further is published.
func (c *SearchCoordinator) Cancel() {
	c.mu.Lock()
	var events []notification
	sess := c.session
	if sess != nil && sess.state == domain.StateStreaming {
		if sess.handle != nil {
			sess.handle.Cancel()
		}
		sess.throttle.cancel()
		sess.cancelCtx()
		c.setStateLocked(sess, domain.StateCancelled, &events)
		logger.Info("Session %s cancelled", sess.id)
	}
	c.mu.Unlock()
	c.notifyAll(events)
}

// ClearSearch discards the session, the cached run and all known terms.
func (c *SearchCoordinator) ClearSearch() {
	c.mu.Lock()
	var events []notification
	c.supersedeLocked(&events)
	c.session = nil
	c.lastRun = nil
	c.lastCreated = nil
	c.registry.Reset()
	c.mu.Unlock()
	c.notifyAll(events)
}

// ResetDocument clears all per-document state, including persisted
// highlight colours. Called when the open document (set) changes.
func (c *SearchCoordinator) ResetDocument(ctx context.Context) error {
	c.ClearSearch()
	if c.colours != nil {
		if err := c.colours.Reset(ctx); err != nil {
			return fmt.Errorf("resetting highlight colours: %w", err)
		}
	}
	return nil
}

// Snapshot returns the current session's published results.
func (c *SearchCoordinator) Snapshot() domain.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return domain.SessionSnapshot{State: domain.StateIdle}
	}
	return c.snapshotLocked(c.session)
}

// Terms returns the registry entries in display order.
func (c *SearchCoordinator) Terms() []domain.TermEntry {
	return c.registry.Entries()
}

// --- session plumbing ---

func (c *SearchCoordinator) newSession(scope domain.SearchScope) *searchSession {
	ctx, cancel := context.WithCancel(context.Background())
	var limiter *rate.Limiter
	if c.cfg.PageTextRate > 0 {
		burst := c.cfg.PageTextBurst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(c.cfg.PageTextRate, burst)
	}
	return &searchSession{
		id:        uuid.New().String(),
		ctx:       ctx,
		cancelCtx: cancel,
		state:     domain.StateIdle,
		scope:     scope,
		agg:       newAggregator(c.engine, limiter),
		throttle:  newPublishThrottle(c.cfg.ImmediateSortThreshold, c.cfg.SortDelayStep, c.cfg.MaxSortDelay),
	}
}

// supersedeLocked retires the current session: its document search is
// cancelled and all of its pending and scheduled work discarded.
func (c *SearchCoordinator) supersedeLocked(events *[]notification) {
	sess := c.session
	if sess == nil || sess.state.Terminal() {
		if sess != nil && sess.state != domain.StateSuperseded {
			c.setStateLocked(sess, domain.StateSuperseded, events)
		}
		return
	}
	if sess.handle != nil {
		sess.handle.Cancel()
	}
	sess.throttle.cancel()
	sess.cancelCtx()
	c.setStateLocked(sess, domain.StateSuperseded, events)
	logger.Debug("Session %s superseded", sess.id)
}

// validateLocked runs engine-side syntax validation when the query holds
// regex-like preset terms. A validation failure stops the search before
// any source is dispatched.
func (c *SearchCoordinator) validateLocked(ctx context.Context, query *domain.SearchQuery) error {
	if c.engine == nil {
		return nil
	}
	hasRegexLike := false
	for _, t := range query.Terms() {
		if t.IsRegexLike {
			hasRegexLike = true
			break
		}
	}
	if !hasRegexLike {
		return nil
	}

	res, err := c.engine.ValidateQuery(ctx, query.Terms())
	if err != nil {
		logger.Warn("Query validation unavailable: %v", err)
		return nil
	}
	if !res.ErrorsExist {
		return nil
	}

	verr := &domain.QueryValidationError{}
	for _, t := range query.Terms() {
		if msg, ok := res.TermErrors[t.Pattern]; ok {
			verr.TermErrors = append(verr.TermErrors, domain.TermValidationError{
				Pattern: t.Pattern,
				Message: msg,
			})
		}
	}
	return verr
}

// runLocked dispatches a built session: the synchronous mark and comment
// searchers fold their hits in as the first batch, then the asynchronous
// document-text search starts if requested.
func (c *SearchCoordinator) runLocked(sess *searchSession, events *[]notification) {
	if sess.query.IsEmpty() && !sess.scope.HasNonTextWork() {
		logger.Debug("Empty query and no non-text scope, completing with zero results")
		c.completeLocked(sess, events)
		return
	}

	c.setStateLocked(sess, domain.StateDispatching, events)

	batch := c.marks.search(sess.query, sess.scope)
	batch = append(batch, c.comments.search(sess.query, sess.scope)...)
	logger.Debug("Mark/comment searchers produced %d hits", len(batch))
	if len(batch) > 0 {
		c.appendBatchLocked(sess, batch, events)
	}

	if !sess.scope.DocumentText || sess.query.IsEmpty() {
		c.completeLocked(sess, events)
		return
	}
	if c.engine == nil {
		c.failLocked(sess, domain.ErrEngineUnavailable, events)
		return
	}

	handle, err := c.engine.Search(sess.ctx, sess.query.Terms())
	if err != nil {
		c.failLocked(sess, fmt.Errorf("starting document search: %w", err), events)
		return
	}
	sess.handle = handle
	c.setStateLocked(sess, domain.StateStreaming, events)
	go c.pumpEngine(sess, handle)
}

// pumpEngine drains one search handle into the coordinator. The engine
// closes the channel after a terminal event.
func (c *SearchCoordinator) pumpEngine(sess *searchSession, handle driven.SearchHandle) {
	for ev := range handle.Events() {
		c.onEngineEvent(sess, ev)
	}
}

// onEngineEvent folds one engine delivery into the session. Deliveries
// for a superseded, cancelled or otherwise finished session are ignored.
func (c *SearchCoordinator) onEngineEvent(sess *searchSession, ev driven.SearchEvent) {
	c.mu.Lock()
	if c.session != sess || sess.state.Terminal() {
		c.mu.Unlock()
		return
	}

	var events []notification
	switch ev.Kind {
	case driven.EventPartial:
		hits := engineHits(ev.Hits, sess.query)
		logger.Debug("Partial batch: %d hits", len(hits))
		c.appendBatchLocked(sess, hits, &events)

	case driven.EventCompleted:
		sess.throttle.cancel()
		c.completeLocked(sess, &events)

	case driven.EventFailed:
		sess.throttle.cancel()
		c.failLocked(sess, fmt.Errorf("%w: %v", domain.ErrSearchFailed, ev.Err), &events)

	case driven.EventAborted:
		// Normally follows our own Cancel, in which case the session is
		// already terminal and we never get here; an engine-initiated
		// abort is treated as a cancellation.
		sess.throttle.cancel()
		c.setStateLocked(sess, domain.StateCancelled, &events)
	}
	c.mu.Unlock()
	c.notifyAll(events)
}

// pumpPageText forwards the engine's page-text-ready signals for the
// lifetime of the coordinator.
func (c *SearchCoordinator) pumpPageText() {
	ch := c.engine.PageTextReady()
	for {
		select {
		case <-c.stopPump:
			return
		case page, ok := <-ch:
			if !ok {
				return
			}
			c.onPageTextReady(page)
		}
	}
}

// onPageTextReady performs the deferred resort for one page: pending
// hits gain their true positions and the whole list is re-sorted and
// republished. Any sort pass the throttle had scheduled coalesces into
// this one. Cancelled and failed sessions publish nothing further.
func (c *SearchCoordinator) onPageTextReady(page int) {
	c.mu.Lock()
	sess := c.session
	if sess == nil {
		c.mu.Unlock()
		return
	}
	switch sess.state {
	case domain.StateDispatching, domain.StateStreaming, domain.StateCompleted:
	default:
		c.mu.Unlock()
		return
	}

	var events []notification
	if sess.agg.resolvePage(page) {
		logger.Debug("Page %d text ready, resorting", page)
		sess.throttle.cancel()
		sess.agg.sortResults()
		c.publishLocked(sess, &events)
	}
	c.mu.Unlock()
	c.notifyAll(events)
}

// appendBatchLocked appends a batch to the visible list and publishes
// immediately; the sort pass runs inline for small result sets and is
// otherwise handed to the throttle.
func (c *SearchCoordinator) appendBatchLocked(
	sess *searchSession, batch []*domain.Hit, events *[]notification,
) {
	sess.agg.add(sess.ctx, batch)
	sess.agg.resolveReadyPages()
	if sess.throttle.schedule(sess.agg.size(), func() { c.sortPass(sess) }) {
		sess.agg.sortResults()
	}
	c.publishLocked(sess, events)
}

// sortPass is the throttled sort-and-publish pass.
func (c *SearchCoordinator) sortPass(sess *searchSession) {
	c.mu.Lock()
	if c.session != sess {
		c.mu.Unlock()
		return
	}
	switch sess.state {
	case domain.StateDispatching, domain.StateStreaming, domain.StateCompleted:
	default:
		c.mu.Unlock()
		return
	}

	var events []notification
	sess.agg.sortResults()
	c.publishLocked(sess, &events)
	c.mu.Unlock()
	c.notifyAll(events)
}

// completeLocked finishes a session: final sort, hit-count bookkeeping,
// result caching for re-filters, and the final publication.
func (c *SearchCoordinator) completeLocked(sess *searchSession, events *[]notification) {
	sess.throttle.cancel()
	sess.agg.resolveReadyPages()
	sess.agg.sortResults()
	c.registry.RecordHitCounts(sess.agg.hitCounts())
	if !sess.fromCache {
		patterns := make(map[string]bool, sess.query.Len())
		for _, p := range sess.query.Patterns() {
			patterns[p] = true
		}
		c.lastRun = &completedRun{
			patterns: patterns,
			options:  c.globalOptions,
			hits:     sess.agg.results(),
		}
	}
	c.setStateLocked(sess, domain.StateCompleted, events)
	c.publishLocked(sess, events)
	logger.Info("Session %s completed with %d hits", sess.id, sess.agg.size())
}

// failLocked fails the document-text portion of a session. Mark and
// comment results delivered before the failure stay visible.
func (c *SearchCoordinator) failLocked(sess *searchSession, err error, events *[]notification) {
	c.registry.RecordHitCounts(sess.agg.hitCounts())
	c.setStateLocked(sess, domain.StateFailed, events)
	id := sess.id
	*events = append(*events, func(l driving.Listener) { l.SearchError(id, err) })
	logger.Warn("Session %s failed: %v", id, err)
}

func (c *SearchCoordinator) setStateLocked(
	sess *searchSession, state domain.SessionState, events *[]notification,
) {
	if sess.state == state {
		return
	}
	sess.state = state
	id := sess.id
	*events = append(*events, func(l driving.Listener) { l.StateChanged(id, state) })
}

// publishLocked queues a result snapshot for delivery.
func (c *SearchCoordinator) publishLocked(sess *searchSession, events *[]notification) {
	snap := c.snapshotLocked(sess)
	*events = append(*events, func(l driving.Listener) { l.ResultsPublished(snap) })
}

func (c *SearchCoordinator) snapshotLocked(sess *searchSession) domain.SessionSnapshot {
	var terms []*domain.SearchTerm
	if sess.query != nil {
		terms = sess.query.Terms()
	}
	return domain.SessionSnapshot{
		ID:              sess.id,
		State:           sess.state,
		Terms:           terms,
		Hits:            sess.agg.results(),
		UnresolvedPages: sess.agg.unresolvedPages(),
	}
}

// notifyAll delivers queued notifications outside the lock.
func (c *SearchCoordinator) notifyAll(events []notification) {
	if len(events) == 0 {
		return
	}
	c.mu.Lock()
	ls := make([]driving.Listener, len(c.listeners))
	copy(ls, c.listeners)
	c.mu.Unlock()

	for _, fn := range events {
		for _, l := range ls {
			fn(l)
		}
	}
}

// sessionScope returns the scope to carry into a re-filtered session.
func (c *SearchCoordinator) sessionScope() domain.SearchScope {
	if c.session != nil {
		return c.session.scope
	}
	return domain.SearchScope{}
}

// coveredByLastRun reports whether every requested pattern's results are
// fully known from the cached prior run. A run searched under different
// matching toggles than the current ones cannot serve.
func (c *SearchCoordinator) coveredByLastRun(patterns []string) bool {
	if c.lastRun == nil || c.lastRun.options != c.globalOptions {
		return false
	}
	for _, p := range patterns {
		if !c.lastRun.patterns[p] {
			return false
		}
	}
	return true
}

// filterHits returns copies of the cached hits belonging to the included
// terms. Reason-filter hits (no term) always pass; they are scoped, not
// term-filtered.
func filterHits(hits []*domain.Hit, included map[string]bool) []*domain.Hit {
	var out []*domain.Hit
	for _, h := range hits {
		if h.Term == nil || included[h.Term.Pattern] {
			copied := *h
			out = append(out, &copied)
		}
	}
	return out
}

// engineHits converts raw engine hits into domain hits, attaching the
// matching query term. Document-text positions are known immediately.
func engineHits(raw []driven.EngineHit, query *domain.SearchQuery) []*domain.Hit {
	hits := make([]*domain.Hit, 0, len(raw))
	for _, eh := range raw {
		term, ok := query.Term(eh.Pattern)
		if !ok {
			logger.Debug("Dropping engine hit for unknown pattern %q", eh.Pattern)
			continue
		}
		hits = append(hits, &domain.Hit{
			Source:     domain.SourceDocumentText,
			Term:       term,
			PageNumber: eh.PageNumber,
			TextOffset: eh.CharOffset,
			TextLength: eh.Length,
			Position:   domain.KnownPosition(eh.CharOffset),
			Rect:       eh.Rect,
			Context:    eh.Context,
		})
	}
	return hits
}
