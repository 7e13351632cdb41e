package rewrite

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dshills/redline/internal/engine/buffer"
	"github.com/dshills/redline/internal/service"
)

// Errors returned by rewrite session operations.
var (
	ErrNoAnalysis        = errors.New("no rewrite analysis in this session")
	ErrRewriteNotFound   = errors.New("no rewrite offer for paragraph")
	ErrRewriteDismissed  = errors.New("rewrite offer is dismissed")
	ErrSessionSuperseded = errors.New("rewrite session superseded by a newer analysis")
)

// Option configures a Session.
type Option func(*Session)

// WithPageSettings sets the layout used to convert page targets to character
// budgets.
func WithPageSettings(ps PageSettings) Option {
	return func(s *Session) {
		s.pageSettings = ps
	}
}

// WithLogger sets the diagnostics logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// Session holds the rewrite offers from one length analysis pass and their
// accept/retry/dismiss state. Dismissals are scoped to the session: a new
// analysis resets them. All methods are thread-safe.
type Session struct {
	mu sync.RWMutex

	documentID   string
	buf          *buffer.Buffer
	svc          service.Service
	log          zerolog.Logger
	pageSettings PageSettings

	entries   []service.ParagraphRewrite
	dismissed map[int]bool

	unit           service.Unit
	mode           service.Mode
	targetLength   int
	originalLength int
	active         bool

	// generation invalidates in-flight responses once a newer analysis starts.
	generation uint64
}

// NewSession creates a rewrite session for one document.
func NewSession(documentID string, buf *buffer.Buffer, svc service.Service, opts ...Option) *Session {
	s := &Session{
		documentID:   documentID,
		buf:          buf,
		svc:          svc,
		log:          zerolog.Nop(),
		pageSettings: DefaultPageSettings(),
		dismissed:    make(map[int]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Analyze requests a length rewrite of the whole document. The mode is not
// sent; the service resolves shorten or lengthen by comparing the current and
// target lengths, and the resolved mode is recorded for retries. A successful
// response replaces any previous offers and clears the dismissed set.
func (s *Session) Analyze(ctx context.Context, target int, unit service.Unit) error {
	if !unit.IsValid() {
		return service.ErrInvalidUnit
	}
	if !unit.TargetInRange(target) {
		return service.ErrInvalidTarget
	}

	text := s.buf.Text()
	if err := ValidateLength(text); err != nil {
		return err
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	resp, err := s.svc.RewriteForLength(ctx, service.RewriteRequest{
		DocumentID:   s.documentID,
		FullText:     text,
		TargetLength: target,
		Unit:         unit,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		s.log.Debug().Str("document", s.documentID).Msg("discarding superseded rewrite response")
		return ErrSessionSuperseded
	}

	s.entries = resp.ParagraphRewrites
	s.dismissed = make(map[int]bool)
	s.unit = resp.Unit
	s.mode = resp.Mode
	s.targetLength = resp.TargetLength
	s.originalLength = resp.OriginalLength
	s.active = true

	s.log.Debug().
		Str("document", s.documentID).
		Int("paragraphs", len(resp.ParagraphRewrites)).
		Str("mode", string(resp.Mode)).
		Msg("rewrite analysis installed")
	return nil
}

// AnalyzePages converts a fractional page target to a character budget using
// the session's page settings and runs a character-unit analysis. Pages never
// go on the wire.
func (s *Session) AnalyzePages(ctx context.Context, pages float64) error {
	s.mu.RLock()
	ps := s.pageSettings
	s.mu.RUnlock()

	return s.Analyze(ctx, PagesToCharacters(pages, ps), service.UnitCharacters)
}

// Accept splices the offered rewrite into the buffer, replacing the paragraph
// content, and removes the offer from the session.
func (s *Session) Accept(paragraphID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.visibleEntryLocked(paragraphID)
	if err != nil {
		return err
	}

	if _, err := s.buf.ReplaceParagraph(paragraphID, e.RewrittenText); err != nil {
		return err
	}

	for i := range s.entries {
		if s.entries[i].ParagraphID == paragraphID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	return nil
}

// Retry asks for a different rewrite of one paragraph and replaces the
// offered text in place. The paragraph keeps its ID and stays offered; other
// offers are untouched. The per-paragraph target is the paragraph's
// proportional share of the document target.
func (s *Session) Retry(ctx context.Context, paragraphID int) error {
	s.mu.Lock()
	e, err := s.visibleEntryLocked(paragraphID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	req := service.RetryRequest{
		OriginalParagraph:  e.OriginalText,
		PreviousSuggestion: e.RewrittenText,
		TargetLength:       s.paragraphTargetLocked(e),
		Unit:               s.unit,
		Mode:               s.mode,
	}
	gen := s.generation
	s.mu.Unlock()

	resp, err := s.svc.RetryRewrite(ctx, req)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return ErrSessionSuperseded
	}
	for i := range s.entries {
		if s.entries[i].ParagraphID == paragraphID {
			s.entries[i].RewrittenText = resp.RewrittenText
			s.entries[i].RewrittenLength = resp.RewrittenLength
			return nil
		}
	}
	return ErrRewriteNotFound
}

// Dismiss hides the offer for the rest of the session. The entry stays in the
// underlying result set so UndismissAll can bring it back.
func (s *Session) Dismiss(paragraphID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.entryLocked(paragraphID); err != nil {
		return err
	}
	s.dismissed[paragraphID] = true
	return nil
}

// UndismissAll clears the session's dismissed set, restoring every hidden
// offer to the visible list.
func (s *Session) UndismissAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dismissed = make(map[int]bool)
}

// Visible returns the offers not currently dismissed, in response order.
func (s *Session) Visible() []service.ParagraphRewrite {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]service.ParagraphRewrite, 0, len(s.entries))
	for _, e := range s.entries {
		if !s.dismissed[e.ParagraphID] {
			out = append(out, e)
		}
	}
	return out
}

// Active reports whether the session holds an analysis.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Mode returns the direction the service resolved for this analysis.
func (s *Session) Mode() service.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Unit returns the wire unit of the current analysis.
func (s *Session) Unit() service.Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unit
}

// Clear drops the current analysis, e.g. on document unload. Any in-flight
// response or retry is invalidated.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.entries = nil
	s.dismissed = make(map[int]bool)
	s.active = false
}

func (s *Session) entryLocked(paragraphID int) (*service.ParagraphRewrite, error) {
	if !s.active {
		return nil, ErrNoAnalysis
	}
	for i := range s.entries {
		if s.entries[i].ParagraphID == paragraphID {
			return &s.entries[i], nil
		}
	}
	return nil, ErrRewriteNotFound
}

func (s *Session) visibleEntryLocked(paragraphID int) (*service.ParagraphRewrite, error) {
	e, err := s.entryLocked(paragraphID)
	if err != nil {
		return nil, err
	}
	if s.dismissed[paragraphID] {
		return nil, ErrRewriteDismissed
	}
	return e, nil
}

// paragraphTargetLocked apportions the document target to one paragraph by
// its share of the document length, measured in the session's unit.
func (s *Session) paragraphTargetLocked(e *service.ParagraphRewrite) int {
	var paraLen int
	if s.unit == service.UnitWords {
		paraLen = CountWords(e.OriginalText)
	} else {
		paraLen = CountCharacters(e.OriginalText)
	}
	return paragraphTarget(paraLen, s.originalLength, s.targetLength, s.unit)
}
