package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/core/ports/driving"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// ConvertToRedactions turns the completed session's resolved hits for
// the selected in-use terms into redaction marks. A pre-existing
// redaction occupying the exact same position is replaced, never
// duplicated: the new mark is created first and the displaced marks are
// deleted afterwards in one batch.
func (c *SearchCoordinator) ConvertToRedactions(
	ctx context.Context, patterns []string,
) (driving.ConversionResult, error) {
	logger.Section("Quick Action: Redact Results")

	c.mu.Lock()
	sess := c.session
	if sess == nil {
		c.mu.Unlock()
		return driving.ConversionResult{}, domain.ErrNoActiveSession
	}
	if sess.state != domain.StateCompleted {
		c.mu.Unlock()
		return driving.ConversionResult{}, fmt.Errorf(
			"converting results in state %s: %w", sess.state, domain.ErrSessionNotCompleted)
	}

	inUse := c.registry.InUsePatterns()
	selected := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		if inUse[p] {
			selected[p] = true
		}
	}

	existing := c.existingRedactionKeys()

	var (
		specs    []driven.RedactionSpec
		replaced []string
		seenKeys = make(map[domain.HitKey]bool)
		seenIDs  = make(map[string]bool)
	)
	for _, h := range sess.agg.results() {
		if h.Term == nil || !selected[h.Term.Pattern] || !h.Resolved() {
			continue
		}
		key := h.Key()
		if seenKeys[key] {
			continue
		}
		seenKeys[key] = true

		if id, ok := existing[key]; ok && !seenIDs[id] {
			seenIDs[id] = true
			replaced = append(replaced, id)
		}
		specs = append(specs, driven.RedactionSpec{
			PageNumber:  key.Page,
			StartOffset: key.Start,
			Length:      key.Length,
			Rect:        h.Rect,
		})
	}
	c.mu.Unlock()

	if len(specs) == 0 {
		return driving.ConversionResult{}, nil
	}

	created, err := c.markStore.AddRedactions(ctx, specs)
	if err != nil {
		return driving.ConversionResult{}, fmt.Errorf("creating redactions: %w", err)
	}
	createdIDs := make([]string, len(created))
	for i, m := range created {
		createdIDs[i] = m.ID()
	}

	// Replace semantics: displaced marks go after the new ones exist.
	if len(replaced) > 0 {
		if err := c.markStore.DeleteMarks(ctx, replaced); err != nil {
			return driving.ConversionResult{}, fmt.Errorf("deleting replaced redactions: %w", err)
		}
	}

	c.mu.Lock()
	c.lastCreated = createdIDs
	c.mu.Unlock()

	logger.Info("Created %d redactions, replaced %d", len(createdIDs), len(replaced))
	return driving.ConversionResult{
		CreatedMarkIDs:  createdIDs,
		ReplacedMarkIDs: replaced,
	}, nil
}

// ApplyReason sets (or, with nil, clears) the reason on every mark
// created by the latest conversion pass.
func (c *SearchCoordinator) ApplyReason(ctx context.Context, reason *string) error {
	c.mu.Lock()
	created := make([]string, len(c.lastCreated))
	copy(created, c.lastCreated)
	c.mu.Unlock()

	if len(created) == 0 {
		return nil
	}
	if err := c.markStore.SetReason(ctx, created, reason); err != nil {
		return fmt.Errorf("applying redaction reason: %w", err)
	}
	return nil
}

// existingRedactionKeys indexes the text positions already occupied by
// redaction marks. Marks not anchored to text cannot collide and are
// skipped.
func (c *SearchCoordinator) existingRedactionKeys() map[domain.HitKey]string {
	out := make(map[domain.HitKey]string)
	if c.markStore == nil {
		return out
	}
	for _, mark := range c.markStore.Marks() {
		if domain.CategoryForType(mark.Type()) != domain.CategoryRedaction {
			continue
		}
		start, length, ok := mark.TextRange()
		if !ok {
			continue
		}
		out[domain.HitKey{Page: mark.PageNumber(), Start: start, Length: length}] = mark.ID()
	}
	return out
}
