package suggest

import (
	"context"
	"errors"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dshills/redline/internal/engine/buffer"
	"github.com/dshills/redline/internal/engine/reconcile"
	"github.com/dshills/redline/internal/overlay"
	"github.com/dshills/redline/internal/service"
)

// DefaultStaleThreshold is how many consecutive failed reconciliation passes
// a suggestion survives before being evicted. Two passes debounce transient
// multi-key edits: a suggestion mid-edit often fails one pass and recovers on
// the next.
const DefaultStaleThreshold = 2

// Errors returned by lifecycle operations.
var (
	ErrSuggestionNotFound = errors.New("suggestion not in active set")
	ErrSuggestionStale    = errors.New("suggestion no longer matches the buffer")
	ErrSuperseded         = errors.New("analysis superseded by a newer request")
)

// State describes where a suggestion is in its lifecycle.
type State uint8

const (
	StatePending State = iota
	StateAccepted
	StateDismissed
	StateStale
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAccepted:
		return "accepted"
	case StateDismissed:
		return "dismissed"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}

// entry is one suggestion in the active set together with its latest
// reconciled position and invalidation streak.
type entry struct {
	suggestion    service.Suggestion
	rng           reconcile.Range
	invalidPasses int
}

// Option configures a Manager.
type Option func(*Manager)

// WithReconciler replaces the default reconciler.
func WithReconciler(r *reconcile.Reconciler) Option {
	return func(m *Manager) {
		m.rec = r
	}
}

// WithOverlayConfig sets the overlay category toggles.
func WithOverlayConfig(cfg overlay.Config) Option {
	return func(m *Manager) {
		m.overlayCfg = cfg
	}
}

// WithStaleThreshold sets how many consecutive invalid passes evict a
// suggestion.
func WithStaleThreshold(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.staleThreshold = n
		}
	}
}

// WithOverlayHandler sets a callback invoked with the rebuilt overlay set
// after every mutation of the active set. The callback runs outside the
// manager's lock.
func WithOverlayHandler(fn func(*overlay.Set)) Option {
	return func(m *Manager) {
		m.onOverlay = fn
	}
}

// WithStateHandler sets a callback invoked on every lifecycle transition.
// The callback runs outside the manager's lock.
func WithStateHandler(fn func(s service.Suggestion, state State)) Option {
	return func(m *Manager) {
		m.onState = fn
	}
}

// WithLogger sets the diagnostics logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = log
	}
}

// Manager owns the session-scoped suggestion set and drives its lifecycle:
// fetch, reconcile, click resolution, accept, dismiss, and stale eviction.
// No other component mutates the set. All methods are thread-safe.
type Manager struct {
	mu sync.RWMutex

	documentID string
	buf        *buffer.Buffer
	svc        service.Service
	rec        *reconcile.Reconciler
	overlayCfg overlay.Config
	log        zerolog.Logger

	entries []*entry
	byID    map[string]*entry

	// dismissalsSent tracks dismissal identifiers already acknowledged by the
	// service, making repeat dismissals no-ops.
	dismissalsSent map[string]bool

	// generation invalidates in-flight analysis responses: a response only
	// lands if no newer request has started since it left.
	generation uint64

	set            *overlay.Set
	staleThreshold int

	onOverlay func(*overlay.Set)
	onState   func(s service.Suggestion, state State)
}

// NewManager creates a suggestion lifecycle manager for one document session.
func NewManager(documentID string, buf *buffer.Buffer, svc service.Service, opts ...Option) *Manager {
	m := &Manager{
		documentID:     documentID,
		buf:            buf,
		svc:            svc,
		rec:            reconcile.New(),
		overlayCfg:     overlay.DefaultConfig(),
		log:            zerolog.Nop(),
		byID:           make(map[string]*entry),
		dismissalsSent: make(map[string]bool),
		set:            overlay.Empty(),
		staleThreshold: DefaultStaleThreshold,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// transition pairs a suggestion with the state it moved to, for delivering
// callbacks after the lock is released.
type transition struct {
	suggestion service.Suggestion
	state      State
}

// notify delivers overlay and state callbacks. Must be called without the
// lock held.
func (m *Manager) notify(set *overlay.Set, transitions []transition) {
	if m.onOverlay != nil && set != nil {
		m.onOverlay(set)
	}
	if m.onState != nil {
		for _, tr := range transitions {
			m.onState(tr.suggestion, tr.state)
		}
	}
}

// Analyze snapshots the buffer, requests suggestions for its paragraphs, and
// replaces the active set with the reconciled results.
//
// A newer Analyze call supersedes an older in-flight one: when the older
// response arrives it is discarded and ErrSuperseded is returned. Suggestions
// in a surviving response are reconciled against the buffer as it is at
// arrival time, not as it was at request time; anything that fails
// reconciliation is dropped rather than rendered at a wrong position.
func (m *Manager) Analyze(ctx context.Context) error {
	m.mu.Lock()
	m.generation++
	gen := m.generation
	m.mu.Unlock()

	snap := m.buf.Snapshot()

	var suggestions []service.Suggestion
	for _, batch := range analyzeBatches(snap.Paragraphs()) {
		resp, err := m.svc.AnalyzeSuggestions(ctx, service.AnalyzeRequest{
			DocumentID: m.documentID,
			Paragraphs: batch,
		})
		if err != nil {
			return err
		}
		for _, msg := range resp.Errors {
			m.log.Debug().Str("document", m.documentID).Str("error", msg).Msg("analysis reported paragraph error")
		}
		suggestions = append(suggestions, resp.Suggestions...)
	}

	m.mu.Lock()

	if m.generation != gen {
		m.mu.Unlock()
		m.log.Debug().Str("document", m.documentID).Msg("discarding superseded analysis response")
		return ErrSuperseded
	}

	current := m.buf.Snapshot()

	m.entries = nil
	m.byID = make(map[string]*entry, len(suggestions))

	dropped := 0
	for _, s := range suggestions {
		if s.SuggestionID == "" {
			s.SuggestionID = uuid.NewString()
		}
		if s.DismissalIdentifier == "" {
			s.DismissalIdentifier = service.DismissalIdentifier(s.OriginalText, s.RuleID)
		}

		rng := m.rec.Reconcile(current, s)
		if !rng.Valid {
			dropped++
			continue
		}

		e := &entry{suggestion: s, rng: rng}
		m.entries = append(m.entries, e)
		m.byID[s.SuggestionID] = e
	}

	if dropped > 0 {
		m.log.Debug().Int("dropped", dropped).Msg("suggestions failed reconciliation on arrival")
	}

	set := m.rebuildLocked()
	m.mu.Unlock()

	m.notify(set, nil)
	return nil
}

// Reconcile re-derives every active suggestion's position against the current
// buffer. The host calls this on every edit event. Suggestions that fail
// reconciliation enough consecutive passes are evicted as stale, without a
// dismissal call: they were never seen at a stable position.
func (m *Manager) Reconcile() {
	snap := m.buf.Snapshot()

	m.mu.Lock()

	var evicted []transition
	kept := m.entries[:0]
	for _, e := range m.entries {
		e.rng = m.rec.Reconcile(snap, e.suggestion)
		if e.rng.Valid {
			e.invalidPasses = 0
			kept = append(kept, e)
			continue
		}

		e.invalidPasses++
		if e.invalidPasses >= m.staleThreshold {
			delete(m.byID, e.suggestion.SuggestionID)
			evicted = append(evicted, transition{e.suggestion, StateStale})
			m.log.Debug().Str("suggestion", e.suggestion.SuggestionID).Msg("evicting stale suggestion")
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept

	set := m.rebuildLocked()
	m.mu.Unlock()

	m.notify(set, evicted)
}

// Accept splices the buffer, replacing the suggestion's reconciled range with
// its replacement text, then removes it from the active set. Acceptance is
// not dismissal: no service call is made, and the suggestion may legitimately
// reappear in a future analysis.
func (m *Manager) Accept(suggestionID string) error {
	m.mu.Lock()

	e, ok := m.byID[suggestionID]
	if !ok {
		m.mu.Unlock()
		return ErrSuggestionNotFound
	}

	// Re-reconcile at the moment of acceptance; the stored range may predate
	// the latest keystroke.
	e.rng = m.rec.Reconcile(m.buf.Snapshot(), e.suggestion)
	if !e.rng.Valid {
		m.removeLocked(suggestionID)
		set := m.rebuildLocked()
		m.mu.Unlock()
		m.notify(set, []transition{{e.suggestion, StateStale}})
		return ErrSuggestionStale
	}

	if _, err := m.buf.Replace(e.rng.Start, e.rng.End, e.suggestion.SuggestionText); err != nil {
		m.mu.Unlock()
		return err
	}

	m.removeLocked(suggestionID)

	// The splice moved everything after it; overlapping suggestions will age
	// out on their own, but re-reconcile now so nothing renders displaced.
	snap := m.buf.Snapshot()
	for _, other := range m.entries {
		other.rng = m.rec.Reconcile(snap, other.suggestion)
	}

	set := m.rebuildLocked()
	m.mu.Unlock()

	m.notify(set, []transition{{e.suggestion, StateAccepted}})
	return nil
}

// Dismiss removes the suggestion from the active set immediately and then
// notifies the service so future analysis passes exclude it. The removal is
// optimistic: it happens before the network call resolves. If the service
// call fails the suggestion is restored to its prior state and the error
// returned, so re-invoking dismiss retries cleanly. A repeated dismissal for
// an already-acknowledged identifier is a no-op.
func (m *Manager) Dismiss(ctx context.Context, suggestionID string) error {
	m.mu.Lock()
	e, ok := m.byID[suggestionID]
	if !ok {
		m.mu.Unlock()
		return ErrSuggestionNotFound
	}

	m.removeLocked(suggestionID)
	set := m.rebuildLocked()

	key := e.suggestion.DismissalIdentifier
	alreadySent := m.dismissalsSent[key]
	m.mu.Unlock()

	m.notify(set, nil)

	if alreadySent {
		m.notify(nil, []transition{{e.suggestion, StateDismissed}})
		return nil
	}

	resp, err := m.svc.DismissSuggestion(ctx, service.DismissRequest{
		DocumentID:   m.documentID,
		OriginalText: e.suggestion.OriginalText,
		RuleID:       e.suggestion.RuleID,
	})
	if err != nil {
		// Restore prior state so the action can be re-invoked.
		m.mu.Lock()
		var restored *overlay.Set
		if _, exists := m.byID[suggestionID]; !exists {
			m.entries = append(m.entries, e)
			m.byID[suggestionID] = e
			restored = m.rebuildLocked()
		}
		m.mu.Unlock()
		m.notify(restored, nil)
		return err
	}

	m.mu.Lock()
	m.dismissalsSent[key] = true
	m.mu.Unlock()

	m.log.Debug().Str("identifier", resp.DismissalIdentifier).Msg("suggestion dismissed")
	m.notify(nil, []transition{{e.suggestion, StateDismissed}})
	return nil
}

// ClearDismissed asks the service to forget every dismissal for the document
// and resets the local idempotency record so the same suggestions can be
// dismissed again after they reappear.
func (m *Manager) ClearDismissed(ctx context.Context) (int, error) {
	resp, err := m.svc.ClearDismissed(ctx, m.documentID)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	m.dismissalsSent = make(map[string]bool)
	m.mu.Unlock()

	return resp.ClearedCount, nil
}

// Resolve maps a click-target identifier to its suggestion and current span.
func (m *Manager) Resolve(suggestionID string) (service.Suggestion, overlay.Span, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.byID[suggestionID]
	if !ok {
		return service.Suggestion{}, overlay.Span{}, false
	}
	sp, ok := m.set.ByID(suggestionID)
	if !ok {
		// In the active set but not rendered (mid-debounce); not clickable.
		return service.Suggestion{}, overlay.Span{}, false
	}
	return e.suggestion, sp, true
}

// Overlay returns the current overlay set.
func (m *Manager) Overlay() *overlay.Set {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set
}

// Active returns the suggestions currently in the active set, including ones
// mid-debounce that are temporarily suppressed from rendering.
func (m *Manager) Active() []service.Suggestion {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]service.Suggestion, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.suggestion
	}
	return out
}

// Clear drops the active set, e.g. on document unload. Any in-flight analysis
// response is invalidated.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.generation++
	m.entries = nil
	m.byID = make(map[string]*entry)
	set := m.rebuildLocked()
	m.mu.Unlock()

	m.notify(set, nil)
}

// removeLocked removes a suggestion from the active set (must hold lock).
func (m *Manager) removeLocked(suggestionID string) {
	delete(m.byID, suggestionID)
	for i, e := range m.entries {
		if e.suggestion.SuggestionID == suggestionID {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			break
		}
	}
}

// rebuildLocked recomputes the overlay set from the active entries (must hold
// lock) and returns it for callback delivery. The overlay is derived state:
// always rebuilt whole, never patched.
func (m *Manager) rebuildLocked() *overlay.Set {
	suggestions := make([]service.Suggestion, len(m.entries))
	ranges := make([]reconcile.Range, len(m.entries))
	for i, e := range m.entries {
		suggestions[i] = e.suggestion
		ranges[i] = e.rng
	}

	m.set = overlay.Build(suggestions, ranges, m.overlayCfg)
	return m.set
}

// analyzeBatches splits the paragraph view into request-sized batches,
// skipping paragraphs the service would reject as too long.
func analyzeBatches(paras []buffer.Paragraph) [][]service.AnalyzeParagraph {
	var batches [][]service.AnalyzeParagraph
	var batch []service.AnalyzeParagraph

	for _, p := range paras {
		if utf8.RuneCountInString(p.Text) > service.MaxParagraphLength {
			continue
		}
		batch = append(batch, service.AnalyzeParagraph{
			ParagraphID: p.ID,
			TextContent: p.Text,
			BaseOffset:  p.Start,
		})
		if len(batch) == service.MaxParagraphsPerRequest {
			batches = append(batches, batch)
			batch = nil
		}
	}
	if len(batch) > 0 {
		batches = append(batches, batch)
	}

	return batches
}
