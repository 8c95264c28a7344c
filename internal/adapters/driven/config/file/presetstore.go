// Package file provides the TOML-backed preset term store.
//
// Preset terms live in a presets.toml file next to the rest of the
// application configuration. The file is watched so edits take effect
// on the next search without restarting.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/docsearch/internal/core/domain"
	"github.com/custodia-labs/docsearch/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch/internal/logger"
)

// Ensure PresetStore implements the interface.
var _ driven.PresetStore = (*PresetStore)(nil)

// presetFile is the TOML document layout.
type presetFile struct {
	Defaults presetDefaults `toml:"defaults"`
	Terms    []presetTerm   `toml:"terms"`
}

type presetDefaults struct {
	MatchCase      bool `toml:"match_case"`
	MatchWholeWord bool `toml:"match_whole_word"`
	BeginsWith     bool `toml:"begins_with"`
	EndsWith       bool `toml:"ends_with"`
	Wildcard       bool `toml:"wildcard"`
	ContextPadding int  `toml:"context_padding"`
}

type presetTerm struct {
	Pattern        string `toml:"pattern"`
	DisplayName    string `toml:"display_name"`
	Regex          bool   `toml:"regex"`
	MatchCase      *bool  `toml:"match_case"`
	MatchWholeWord *bool  `toml:"match_whole_word"`
	BeginsWith     *bool  `toml:"begins_with"`
	EndsWith       *bool  `toml:"ends_with"`
	Wildcard       *bool  `toml:"wildcard"`
	Colour         string `toml:"colour"`
	ContextPadding *int   `toml:"context_padding"`
}

// PresetStore is a file-based implementation of driven.PresetStore.
type PresetStore struct {
	mu       sync.Mutex
	filePath string
	watcher  *fsnotify.Watcher
	onChange []func()
	done     chan struct{}
}

// NewPresetStore creates a preset store reading configDir/presets.toml.
// If configDir is empty, defaults to ~/.docsearch. A missing file is not
// an error; it simply yields no presets.
func NewPresetStore(configDir string) (*PresetStore, error) {
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		configDir = filepath.Join(home, ".docsearch")
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, err
	}

	return &PresetStore{
		filePath: filepath.Join(configDir, "presets.toml"),
		done:     make(chan struct{}),
	}, nil
}

// Path returns the preset file path.
func (s *PresetStore) Path() string {
	return s.filePath
}

// Presets loads and resolves the preset definitions.
func (s *PresetStore) Presets(_ context.Context) ([]driven.PresetTerm, driven.PresetDefaults, error) {
	raw, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return nil, driven.PresetDefaults{}, nil
	}
	if err != nil {
		return nil, driven.PresetDefaults{}, fmt.Errorf("reading preset file: %w", err)
	}

	var doc presetFile
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, driven.PresetDefaults{}, fmt.Errorf("parsing preset file: %w", err)
	}

	defaults := driven.PresetDefaults{
		Options: domain.MatchingOptions{
			MatchCase:      doc.Defaults.MatchCase,
			MatchWholeWord: doc.Defaults.MatchWholeWord,
			BeginsWith:     doc.Defaults.BeginsWith,
			EndsWith:       doc.Defaults.EndsWith,
			Wildcard:       doc.Defaults.Wildcard,
		},
		ContextPadding: doc.Defaults.ContextPadding,
	}

	presets := make([]driven.PresetTerm, 0, len(doc.Terms))
	for _, t := range doc.Terms {
		if t.Pattern == "" {
			logger.Warn("Skipping preset with empty pattern")
			continue
		}
		presets = append(presets, driven.PresetTerm{
			Pattern:         t.Pattern,
			DisplayName:     t.DisplayName,
			IsRegexLike:     t.Regex,
			MatchCase:       t.MatchCase,
			MatchWholeWord:  t.MatchWholeWord,
			BeginsWith:      t.BeginsWith,
			EndsWith:        t.EndsWith,
			Wildcard:        t.Wildcard,
			HighlightColour: domain.Colour(t.Colour),
			ContextPadding:  t.ContextPadding,
		})
	}
	return presets, defaults, nil
}

// Watch registers a callback invoked when the preset file changes.
// The first call starts the file watcher.
func (s *PresetStore) Watch(onChange func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.watcher == nil {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("creating preset watcher: %w", err)
		}
		// Watch the directory: editors often replace the file wholesale,
		// which would orphan a watch on the file itself.
		if err := watcher.Add(filepath.Dir(s.filePath)); err != nil {
			watcher.Close()
			return fmt.Errorf("watching preset directory: %w", err)
		}
		s.watcher = watcher
		go s.pumpEvents(watcher)
	}

	s.onChange = append(s.onChange, onChange)
	return nil
}

// Close stops the file watcher.
func (s *PresetStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	close(s.done)
	if s.watcher != nil {
		err := s.watcher.Close()
		s.watcher = nil
		return err
	}
	return nil
}

// pumpEvents forwards relevant file events to the registered callbacks.
func (s *PresetStore) pumpEvents(watcher *fsnotify.Watcher) {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Name != s.filePath {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("Preset file changed: %s", ev.Op)
			s.mu.Lock()
			callbacks := make([]func(), len(s.onChange))
			copy(callbacks, s.onChange)
			s.mu.Unlock()
			for _, cb := range callbacks {
				cb()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Preset watcher error: %v", err)
		}
	}
}
