// Package memory provides in-memory implementations of the driven
// storage ports. The mark store doubles as the canonical fixture for
// hosts that load marks from their own object model.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// RedactionType is the declared type string of created redaction marks.
const RedactionType = "redaction"

// Ensure the implementations satisfy the interfaces.
var (
	_ driven.MarkStore = (*MarkStore)(nil)
	_ driven.Mark      = (*Mark)(nil)
	_ driven.Comment   = (*Comment)(nil)
)

// Comment is an in-memory comment.
type Comment struct {
	CommentID string
	Body      string
}

// ID returns the comment identifier.
func (c *Comment) ID() string { return c.CommentID }

// Text returns the comment body.
func (c *Comment) Text() string { return c.Body }

// Mark is an in-memory markup object.
type Mark struct {
	MarkID   string
	MarkType string
	Page     int
	Bounds   domain.Rect

	// BodyText is the searchable text; HasText guards marks without any.
	BodyText string
	HasText  bool

	// ReasonText is a redaction reason; HasReason guards its presence.
	ReasonText string
	HasReason  bool

	// Start/Length anchor the mark in the page text when Anchored.
	Start    int
	Length   int
	Anchored bool

	Conversation []*Comment
}

// ID returns the mark identifier.
func (m *Mark) ID() string { return m.MarkID }

// Type returns the declared type string.
func (m *Mark) Type() string { return m.MarkType }

// PageNumber returns the 1-based page.
func (m *Mark) PageNumber() int { return m.Page }

// Rect returns the bounding rectangle.
func (m *Mark) Rect() domain.Rect { return m.Bounds }

// Text returns the searchable text, if any.
func (m *Mark) Text() (string, bool) { return m.BodyText, m.HasText }

// Reason returns the redaction reason, if any.
func (m *Mark) Reason() (string, bool) { return m.ReasonText, m.HasReason }

// TextRange returns the mark's anchor in the page text.
func (m *Mark) TextRange() (int, int, bool) { return m.Start, m.Length, m.Anchored }

// Comments returns the conversation, oldest first.
func (m *Mark) Comments() []driven.Comment {
	out := make([]driven.Comment, len(m.Conversation))
	for i, c := range m.Conversation {
		out[i] = c
	}
	return out
}

// MarkStore is an in-memory implementation of driven.MarkStore.
type MarkStore struct {
	mu    sync.RWMutex
	marks []*Mark
}

// NewMarkStore creates a store pre-loaded with the given marks.
func NewMarkStore(marks ...*Mark) *MarkStore {
	return &MarkStore{marks: marks}
}

// Add appends marks to the store.
func (s *MarkStore) Add(marks ...*Mark) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks = append(s.marks, marks...)
}

// Marks returns all currently loaded marks.
func (s *MarkStore) Marks() []driven.Mark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]driven.Mark, len(s.marks))
	for i, m := range s.marks {
		out[i] = m
	}
	return out
}

// AddRedactions creates anchored redaction marks at the given positions.
func (s *MarkStore) AddRedactions(_ context.Context, specs []driven.RedactionSpec) ([]driven.Mark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := make([]driven.Mark, 0, len(specs))
	for _, spec := range specs {
		m := &Mark{
			MarkID:   uuid.New().String(),
			MarkType: RedactionType,
			Page:     spec.PageNumber,
			Bounds:   spec.Rect,
			Start:    spec.StartOffset,
			Length:   spec.Length,
			Anchored: true,
		}
		s.marks = append(s.marks, m)
		created = append(created, m)
	}
	return created, nil
}

// DeleteMarks removes the given marks in one batch.
func (s *MarkStore) DeleteMarks(_ context.Context, ids []string) error {
	doomed := make(map[string]bool, len(ids))
	for _, id := range ids {
		doomed[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.marks[:0]
	for _, m := range s.marks {
		if !doomed[m.MarkID] {
			kept = append(kept, m)
		}
	}
	s.marks = kept
	return nil
}

// SetReason applies (or clears) a reason on the given marks.
func (s *MarkStore) SetReason(_ context.Context, ids []string, reason *string) error {
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.marks {
		if !wanted[m.MarkID] {
			continue
		}
		if reason == nil {
			m.ReasonText = ""
			m.HasReason = false
		} else {
			m.ReasonText = *reason
			m.HasReason = true
		}
	}
	return nil
}

// Get returns a mark by ID.
func (s *MarkStore) Get(id string) (*Mark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.marks {
		if m.MarkID == id {
			return m, nil
		}
	}
	return nil, domain.ErrNotFound
}
