package overlay

import (
	"sort"

	"github.com/dshills/redline/internal/engine/buffer"
	"github.com/dshills/redline/internal/engine/reconcile"
	"github.com/dshills/redline/internal/service"
)

// Priority represents the rendering priority of overlay spans.
// Higher priority spans are rendered on top when spans overlap.
type Priority uint8

const (
	PriorityLow    Priority = 50
	PriorityNormal Priority = 100
	PriorityHigh   Priority = 150
)

// Span is one non-destructive visual annotation over a buffer range.
// It carries everything a detail popup needs so click handling never has to
// perform a second lookup against the suggestion set.
type Span struct {
	// SuggestionID is the stable click-target identifier.
	SuggestionID string

	// Category selects the visual class (spelling/grammar/style).
	Category service.Category

	// Range is the reconciled position in the current buffer.
	Range buffer.Range

	// Priority orders overlapping spans for rendering.
	Priority Priority

	// Popup attributes.
	OriginalText        string
	SuggestionText      string
	Message             string
	DismissalIdentifier string
}

// Config controls which categories render.
type Config struct {
	ShowSpelling bool
	ShowGrammar  bool
	ShowStyle    bool
}

// DefaultConfig returns the default overlay configuration with every
// category enabled.
func DefaultConfig() Config {
	return Config{
		ShowSpelling: true,
		ShowGrammar:  true,
		ShowStyle:    true,
	}
}

// enabled reports whether a category renders under this config.
func (c Config) enabled(cat service.Category) bool {
	switch cat {
	case service.CategorySpelling:
		return c.ShowSpelling
	case service.CategoryGrammar:
		return c.ShowGrammar
	case service.CategoryStyle:
		return c.ShowStyle
	default:
		return false
	}
}

// Set is an immutable overlay description for one buffer state.
// It is derived state: fully rebuilt on every buffer mutation and every
// suggestion-set mutation, never incrementally patched.
type Set struct {
	spans []Span
	byID  map[string]int
}

// Build produces the overlay set for the given suggestions and their
// reconciled ranges. Invalid ranges, disabled categories, and suggestions
// with unknown categories are suppressed. Spans come out sorted by start
// offset. The builder never touches the buffer.
func Build(suggestions []service.Suggestion, ranges []reconcile.Range, cfg Config) *Set {
	byID := make(map[string]*reconcile.Range, len(ranges))
	for i := range ranges {
		byID[ranges[i].SuggestionID] = &ranges[i]
	}

	spans := make([]Span, 0, len(suggestions))
	for _, s := range suggestions {
		rng, ok := byID[s.SuggestionID]
		if !ok || !rng.Valid {
			continue
		}
		if !cfg.enabled(s.Category) {
			continue
		}

		spans = append(spans, Span{
			SuggestionID:        s.SuggestionID,
			Category:            s.Category,
			Range:               buffer.Range{Start: rng.Start, End: rng.End},
			Priority:            categoryPriority(s.Category),
			OriginalText:        s.OriginalText,
			SuggestionText:      s.SuggestionText,
			Message:             s.Message,
			DismissalIdentifier: s.DismissalIdentifier,
		})
	}

	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Range.Start != spans[j].Range.Start {
			return spans[i].Range.Start < spans[j].Range.Start
		}
		return spans[i].Range.End < spans[j].Range.End
	})

	index := make(map[string]int, len(spans))
	for i, sp := range spans {
		index[sp.SuggestionID] = i
	}

	return &Set{spans: spans, byID: index}
}

// Empty returns an overlay set with no spans.
func Empty() *Set {
	return &Set{byID: make(map[string]int)}
}

// Spans returns all spans sorted by start offset.
// The returned slice must not be modified.
func (s *Set) Spans() []Span {
	return s.spans
}

// Len returns the number of spans in the set.
func (s *Set) Len() int {
	return len(s.spans)
}

// ByID resolves a click-target identifier to its span.
func (s *Set) ByID(suggestionID string) (Span, bool) {
	i, ok := s.byID[suggestionID]
	if !ok {
		return Span{}, false
	}
	return s.spans[i], true
}

// SpanAt returns the highest-priority span covering the given offset.
// This is how a click at a buffer position resolves to a suggestion.
func (s *Set) SpanAt(offset buffer.Offset) (Span, bool) {
	var best Span
	found := false
	for _, sp := range s.spans {
		if sp.Range.Start > offset {
			break
		}
		if !sp.Range.Contains(offset) {
			continue
		}
		if !found || sp.Priority > best.Priority {
			best = sp
			found = true
		}
	}
	return best, found
}

// SpansInRange returns the spans overlapping [start, end), in start order.
func (s *Set) SpansInRange(start, end buffer.Offset) []Span {
	query := buffer.Range{Start: start, End: end}
	var out []Span
	for _, sp := range s.spans {
		if sp.Range.Start >= end {
			break
		}
		if sp.Range.Overlaps(query) {
			out = append(out, sp)
		}
	}
	return out
}

// categoryPriority maps a category to its rendering priority.
// Spelling wins over grammar wins over style when spans overlap.
func categoryPriority(cat service.Category) Priority {
	switch cat {
	case service.CategorySpelling:
		return PriorityHigh
	case service.CategoryGrammar:
		return PriorityNormal
	default:
		return PriorityLow
	}
}
