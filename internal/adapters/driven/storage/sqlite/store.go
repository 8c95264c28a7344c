// Package sqlite provides SQLite-backed persistence for highlight
// colour assignments, so a term keeps its colour across application
// restarts while the same document set is open.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docsearch/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
)

// Store is the SQLite database handle. Port implementations are exposed
// through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docsearch/data/search.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docsearch", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "search.db")

	// WAL mode for better concurrency with the host application.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// HighlightStore returns a HighlightStore interface backed by this store.
func (s *Store) HighlightStore() driven.HighlightStore {
	return &highlightStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version,
		); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// highlightStore implements driven.HighlightStore.
type highlightStore struct {
	store *Store
}

var _ driven.HighlightStore = (*highlightStore)(nil)

// Colour returns the persisted colour for a pattern, if any.
func (h *highlightStore) Colour(ctx context.Context, pattern string) (domain.Colour, bool, error) {
	row := h.store.db.QueryRowContext(ctx,
		"SELECT colour FROM highlight_colours WHERE pattern = ?", pattern)

	var colour string
	err := row.Scan(&colour)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying highlight colour: %w", err)
	}
	return domain.Colour(colour), true, nil
}

// SaveColour records a pattern's colour, overwriting any previous value.
func (h *highlightStore) SaveColour(ctx context.Context, pattern string, colour domain.Colour) error {
	_, err := h.store.db.ExecContext(ctx, `
		INSERT INTO highlight_colours (pattern, colour)
		VALUES (?, ?)
		ON CONFLICT(pattern) DO UPDATE SET colour = excluded.colour
	`, pattern, string(colour))
	if err != nil {
		return fmt.Errorf("saving highlight colour: %w", err)
	}
	return nil
}

// Reset drops all persisted colours.
func (h *highlightStore) Reset(ctx context.Context) error {
	if _, err := h.store.db.ExecContext(ctx, "DELETE FROM highlight_colours"); err != nil {
		return fmt.Errorf("resetting highlight colours: %w", err)
	}
	return nil
}
