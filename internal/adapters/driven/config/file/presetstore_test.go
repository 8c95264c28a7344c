package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

func writePresets(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "presets.toml"), []byte(content), 0600))
}

func TestPresetStore_MissingFileYieldsNoPresets(t *testing.T) {
	store, err := NewPresetStore(t.TempDir())
	require.NoError(t, err)

	presets, defaults, err := store.Presets(context.Background())

	require.NoError(t, err)
	assert.Empty(t, presets)
	assert.Equal(t, 0, defaults.ContextPadding)
}

func TestPresetStore_LoadsTermsAndDefaults(t *testing.T) {
	dir := t.TempDir()
	writePresets(t, dir, `
[defaults]
match_whole_word = true
context_padding = 25

[[terms]]
pattern = "privileged"
display_name = "Privileged"
match_case = true
colour = "#ff0000"
context_padding = 10

[[terms]]
pattern = '\d{3}-\d{2}-\d{4}'
display_name = "SSN"
regex = true
`)
	store, err := NewPresetStore(dir)
	require.NoError(t, err)

	presets, defaults, err := store.Presets(context.Background())

	require.NoError(t, err)
	assert.True(t, defaults.Options.MatchWholeWord)
	assert.Equal(t, 25, defaults.ContextPadding)
	require.Len(t, presets, 2)

	first := presets[0]
	assert.Equal(t, "privileged", first.Pattern)
	assert.Equal(t, "Privileged", first.DisplayName)
	assert.False(t, first.IsRegexLike)
	require.NotNil(t, first.MatchCase)
	assert.True(t, *first.MatchCase)
	assert.Nil(t, first.MatchWholeWord, "unset fields fall back to defaults")
	assert.Equal(t, domain.Colour("#ff0000"), first.HighlightColour)
	require.NotNil(t, first.ContextPadding)
	assert.Equal(t, 10, *first.ContextPadding)

	second := presets[1]
	assert.Equal(t, `\d{3}-\d{2}-\d{4}`, second.Pattern)
	assert.True(t, second.IsRegexLike)
	assert.Nil(t, second.ContextPadding)

	// Resolution applies the document-level fallbacks.
	term := defaults.Resolve(first)
	assert.True(t, term.Options.MatchCase)
	assert.True(t, term.Options.MatchWholeWord)
	assert.Equal(t, 10, term.ContextPadding)

	term = defaults.Resolve(second)
	assert.Equal(t, 25, term.ContextPadding)
}

func TestPresetStore_SkipsEmptyPatterns(t *testing.T) {
	dir := t.TempDir()
	writePresets(t, dir, `
[[terms]]
display_name = "No Pattern"

[[terms]]
pattern = "kept"
`)
	store, err := NewPresetStore(dir)
	require.NoError(t, err)

	presets, _, err := store.Presets(context.Background())

	require.NoError(t, err)
	require.Len(t, presets, 1)
	assert.Equal(t, "kept", presets[0].Pattern)
}

func TestPresetStore_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writePresets(t, dir, "this is not [valid toml")
	store, err := NewPresetStore(dir)
	require.NoError(t, err)

	_, _, err = store.Presets(context.Background())

	assert.Error(t, err)
}

func TestPresetStore_WatchSignalsFileChanges(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPresetStore(dir)
	require.NoError(t, err)
	defer store.Close()

	var (
		mu      sync.Mutex
		changes int
	)
	require.NoError(t, store.Watch(func() {
		mu.Lock()
		changes++
		mu.Unlock()
	}))

	writePresets(t, dir, `[[terms]]
pattern = "alpha"
`)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return changes > 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestPresetStore_WatchIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPresetStore(dir)
	require.NoError(t, err)
	defer store.Close()

	var (
		mu      sync.Mutex
		changes int
	)
	require.NoError(t, store.Watch(func() {
		mu.Lock()
		changes++
		mu.Unlock()
	}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0600))
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, changes)
}
