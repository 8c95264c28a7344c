package driven

import (
	"context"

	"github.com/custodia-labs/docsearch/internal/core/domain"
)

// PresetTerm is a configured term definition. Option fields are pointers:
// nil means "fall back to the document-level preset defaults".
type PresetTerm struct {
	// Pattern is the term's pattern, possibly a literal regex.
	Pattern string

	// DisplayName is the friendly name shown instead of the pattern.
	DisplayName string

	// IsRegexLike marks patterns the engine must validate and evaluate
	// as literal regexes.
	IsRegexLike bool

	// Per-term matching options; nil falls back to the defaults.
	MatchCase      *bool
	MatchWholeWord *bool
	BeginsWith     *bool
	EndsWith       *bool
	Wildcard       *bool

	// HighlightColour is the configured colour; empty for auto-assign.
	HighlightColour domain.Colour

	// ContextPadding overrides the default context padding when set.
	ContextPadding *int
}

// PresetDefaults are the document-level fallbacks for preset terms.
type PresetDefaults struct {
	// Options are the matching flags presets inherit field by field.
	Options domain.MatchingOptions

	// ContextPadding is the default context capture width.
	ContextPadding int
}

// Resolve merges a preset term with the defaults into a SearchTerm.
func (d PresetDefaults) Resolve(p PresetTerm) *domain.SearchTerm {
	opts := d.Options
	if p.MatchCase != nil {
		opts.MatchCase = *p.MatchCase
	}
	if p.MatchWholeWord != nil {
		opts.MatchWholeWord = *p.MatchWholeWord
	}
	if p.BeginsWith != nil {
		opts.BeginsWith = *p.BeginsWith
	}
	if p.EndsWith != nil {
		opts.EndsWith = *p.EndsWith
	}
	if p.Wildcard != nil {
		opts.Wildcard = *p.Wildcard
	}
	padding := d.ContextPadding
	if p.ContextPadding != nil {
		padding = *p.ContextPadding
	}
	return &domain.SearchTerm{
		Pattern:         p.Pattern,
		IsRegexLike:     p.IsRegexLike,
		DisplayName:     p.DisplayName,
		Options:         opts.Normalised(),
		HighlightColour: p.HighlightColour,
		ContextPadding:  padding,
	}
}

// PresetStore supplies configured preset terms.
type PresetStore interface {
	// Presets returns the preset definitions and their defaults.
	Presets(ctx context.Context) ([]PresetTerm, PresetDefaults, error)

	// Watch registers a callback invoked whenever the preset
	// configuration changes.
	Watch(onChange func()) error

	// Close releases any watch resources.
	Close() error
}
