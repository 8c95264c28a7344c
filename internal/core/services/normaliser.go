package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// QueryNormaliser turns raw user input, the active matching toggles and
// the configured preset terms into a canonical query.
type QueryNormaliser struct {
	presets driven.PresetStore

	mu       sync.Mutex
	loaded   bool
	cached   []driven.PresetTerm
	defaults driven.PresetDefaults
}

// NewQueryNormaliser creates a normaliser. The preset store is optional;
// without it only typed terms participate.
func NewQueryNormaliser(presets driven.PresetStore) *QueryNormaliser {
	n := &QueryNormaliser{presets: presets}
	if presets != nil {
		if err := presets.Watch(n.invalidate); err != nil {
			logger.Warn("Preset watch unavailable: %v", err)
		}
	}
	return n
}

// NormaliseInput builds a full query from free text.
//
// With ExactPhrase the whole trimmed, whitespace-collapsed input becomes
// one term; otherwise the input splits on whitespace with duplicates
// removed. Preset terms are appended after the typed terms. An empty
// result is a legal query.
func (n *QueryNormaliser) NormaliseInput(
	ctx context.Context, input string, opts domain.MatchingOptions, padding int,
) (*domain.SearchQuery, error) {
	opts = opts.Normalised()
	query := domain.NewSearchQuery()

	for _, token := range splitInput(input, opts.ExactPhrase) {
		query.Add(&domain.SearchTerm{
			Pattern:        token,
			Options:        opts,
			ContextPadding: padding,
		})
	}

	if err := n.appendPresets(ctx, query); err != nil {
		return nil, err
	}

	logger.Debug("Normalised input %q into %d terms", input, query.Len())
	return query, nil
}

// NormaliseRefilter builds a query from the currently-checked subset of
// already-known terms, reusing the registry's term objects verbatim so
// identity (and therefore caching) is preserved. When the global matching
// toggles changed, the change is propagated onto every user-supplied
// term; presets keep their own options.
func (n *QueryNormaliser) NormaliseRefilter(
	registry *TermRegistry, patterns []string, opts *domain.MatchingOptions,
) (*domain.SearchQuery, error) {
	if opts != nil {
		// Every user-supplied term follows the global toggles, including
		// the unchecked ones: re-including a term later must not revive
		// its stale options.
		norm := opts.Normalised()
		for _, entry := range registry.Entries() {
			if entry.UserSupplied {
				entry.Term.Options = norm
			}
		}
	}

	query := domain.NewSearchQuery()
	for _, pattern := range patterns {
		entry, ok := registry.Entry(pattern)
		if !ok {
			return nil, fmt.Errorf("refilter term %q: %w", pattern, domain.ErrNotFound)
		}
		query.Add(entry.Term)
	}
	logger.Debug("Refilter query: %d of %d known terms", query.Len(), len(registry.Entries()))
	return query, nil
}

// appendPresets resolves and appends the configured preset terms.
func (n *QueryNormaliser) appendPresets(ctx context.Context, query *domain.SearchQuery) error {
	if n.presets == nil {
		return nil
	}

	n.mu.Lock()
	if !n.loaded {
		presets, defaults, err := n.presets.Presets(ctx)
		if err != nil {
			n.mu.Unlock()
			return fmt.Errorf("loading preset terms: %w", err)
		}
		n.cached = presets
		n.defaults = defaults
		n.loaded = true
		logger.Info("Loaded %d preset terms", len(presets))
	}
	presets, defaults := n.cached, n.defaults
	n.mu.Unlock()

	for _, p := range presets {
		query.Add(defaults.Resolve(p))
	}
	return nil
}

// invalidate drops the preset cache so the next query reloads it.
func (n *QueryNormaliser) invalidate() {
	n.mu.Lock()
	n.loaded = false
	n.mu.Unlock()
	logger.Debug("Preset terms changed, cache invalidated")
}

// splitInput tokenises the raw input string.
func splitInput(input string, exactPhrase bool) []string {
	if exactPhrase {
		phrase := strings.Join(strings.Fields(input), " ")
		if phrase == "" {
			return nil
		}
		return []string{phrase}
	}
	return strings.Fields(input)
}
