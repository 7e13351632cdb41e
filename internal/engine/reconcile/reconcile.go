package reconcile

import (
	"github.com/dshills/redline/internal/engine/buffer"
	"github.com/dshills/redline/internal/service"
)

// DefaultWindow is the default half-width of the local search window.
// Window size and probe order are part of the engine's observable contract;
// change them and suggestions will relocate differently under edits.
const DefaultWindow = 5

// Range is the reconciled position of one suggestion against a specific
// buffer snapshot. It is derived state: recomputed on every buffer or
// suggestion-set mutation, never persisted.
//
// Valid=false means no matching substring could be located; the suggestion
// must not render and must not be clickable until the next analysis refresh.
type Range struct {
	SuggestionID string
	Start        buffer.Offset
	End          buffer.Offset
	Valid        bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithWindow sets the half-width of the local search window.
func WithWindow(w int) Option {
	return func(r *Reconciler) {
		if w >= 0 {
			r.window = w
		}
	}
}

// Reconciler maps suggestion offsets, computed by the analysis service over a
// past text snapshot, onto the current buffer content.
//
// The search is a bounded heuristic, not a diff: an edit strictly before a
// suggestion shifts it by a constant delta, so probing a small window around
// the original offsets recovers the common case (a few characters typed near
// the suggestion) at O(window) cost. Anything the window cannot recover is
// invalidated rather than guessed at.
type Reconciler struct {
	window int
}

// New creates a Reconciler with the default window.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{window: DefaultWindow}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Window returns the half-width of the search window.
func (r *Reconciler) Window() int {
	return r.window
}

// Reconcile locates one suggestion in the snapshot.
//
// Probe order: the original offsets first, then offsets shifted by every
// distance from 1 to the window, scanning outward. At each distance the
// negative shift is tried before the positive one, matching a left-to-right
// scan. The first exact match of OriginalText wins; zero shift is the exact
// case and is never probed again.
func (r *Reconciler) Reconcile(snap *buffer.Snapshot, s service.Suggestion) Range {
	rng := Range{SuggestionID: s.SuggestionID}

	if s.GlobalStart >= s.GlobalEnd {
		return rng
	}

	runes := snap.Runes()
	want := []rune(s.OriginalText)
	base := buffer.Range{Start: s.GlobalStart, End: s.GlobalEnd}

	if matchAt(runes, want, base.Start, base.End) {
		rng.Start = base.Start
		rng.End = base.End
		rng.Valid = true
		return rng
	}

	for d := 1; d <= r.window; d++ {
		for _, o := range [2]int{-d, d} {
			probe := base.Shift(o)
			if matchAt(runes, want, probe.Start, probe.End) {
				rng.Start = probe.Start
				rng.End = probe.End
				rng.Valid = true
				return rng
			}
		}
	}

	return rng
}

// ReconcileAll reconciles every suggestion against the same snapshot.
// The result index order follows the input order.
func (r *Reconciler) ReconcileAll(snap *buffer.Snapshot, suggestions []service.Suggestion) []Range {
	ranges := make([]Range, len(suggestions))
	for i, s := range suggestions {
		ranges[i] = r.Reconcile(snap, s)
	}
	return ranges
}

// matchAt reports whether runes[start:end] exists and equals want.
func matchAt(runes, want []rune, start, end int) bool {
	if start < 0 || end > len(runes) || end-start != len(want) {
		return false
	}
	for i, r := range want {
		if runes[start+i] != r {
			return false
		}
	}
	return true
}
