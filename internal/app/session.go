package app

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/dshills/redline/internal/config"
	"github.com/dshills/redline/internal/engine/buffer"
	"github.com/dshills/redline/internal/engine/reconcile"
	"github.com/dshills/redline/internal/overlay"
	"github.com/dshills/redline/internal/rewrite"
	"github.com/dshills/redline/internal/service"
	"github.com/dshills/redline/internal/suggest"
)

// Hooks are the callbacks a host UI binds to concrete widgets. Nil hooks are
// skipped. Hooks run outside the engine's locks, so they may call back into
// the Session.
type Hooks struct {
	// OnSuggestionClick fires when Click resolves a rendered suggestion.
	OnSuggestionClick func(s service.Suggestion, sp overlay.Span)
	// OnOverlay fires with the rebuilt overlay set after every mutation.
	OnOverlay func(set *overlay.Set)
	// OnAccept fires after a suggestion is spliced into the buffer.
	OnAccept func(s service.Suggestion)
	// OnDismiss fires after a suggestion dismissal succeeds.
	OnDismiss func(s service.Suggestion)
	// OnRetry fires after a rewrite retry replaces an offer in place.
	OnRetry func(p service.ParagraphRewrite)
	// OnError fires for failures in background-style operations.
	OnError func(err error)
}

// Session is one document editing session: the buffer, the suggestion
// lifecycle, and the rewrite workflow, wired from configuration.
type Session struct {
	documentID  string
	buf         *buffer.Buffer
	suggestions *suggest.Manager
	rewrites    *rewrite.Session
	hooks       Hooks
	log         zerolog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithHooks binds the host UI callbacks.
func WithHooks(h Hooks) Option {
	return func(s *Session) {
		s.hooks = h
	}
}

// WithLogger sets the diagnostics logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// NewSession builds a session for one document from configuration.
func NewSession(documentID, text string, cfg *config.Config, svc service.Service, opts ...Option) *Session {
	s := &Session{
		documentID: documentID,
		buf:        buffer.NewBufferFromString(text),
		log:        zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	rec := reconcile.New(reconcile.WithWindow(cfg.Reconcile.Window))
	s.suggestions = suggest.NewManager(documentID, s.buf, svc,
		suggest.WithReconciler(rec),
		suggest.WithStaleThreshold(cfg.Reconcile.StaleThreshold),
		suggest.WithOverlayConfig(overlay.Config{
			ShowSpelling: cfg.Overlay.ShowSpelling,
			ShowGrammar:  cfg.Overlay.ShowGrammar,
			ShowStyle:    cfg.Overlay.ShowStyle,
		}),
		suggest.WithOverlayHandler(s.hooks.OnOverlay),
		suggest.WithLogger(s.log),
	)
	s.rewrites = rewrite.NewSession(documentID, s.buf, svc,
		rewrite.WithPageSettings(cfg.PageSettings()),
		rewrite.WithLogger(s.log),
	)

	return s
}

// NewClient builds the HTTP service client from configuration.
func NewClient(cfg *config.Config, log zerolog.Logger) *service.Client {
	opts := []service.ClientOption{
		service.WithRequestTimeout(cfg.Service.RequestTimeout()),
		service.WithRewriteTimeout(cfg.Service.RewriteTimeout()),
		service.WithLogger(log),
	}
	if cfg.Service.AuthToken != "" {
		opts = append(opts, service.WithAuthToken(cfg.Service.AuthToken))
	}
	return service.NewClient(cfg.Service.BaseURL, opts...)
}

// Text returns the current buffer content.
func (s *Session) Text() string {
	return s.buf.Text()
}

// Buffer exposes the underlying buffer for read-mostly rendering paths.
func (s *Session) Buffer() *buffer.Buffer {
	return s.buf
}

// Overlay returns the current overlay set for rendering.
func (s *Session) Overlay() *overlay.Set {
	return s.suggestions.Overlay()
}

// ReplaceRange splices [start, end) with text and reconciles the suggestion
// set against the result.
func (s *Session) ReplaceRange(start, end buffer.Offset, text string) error {
	return s.applyEdit(buffer.NewEdit(buffer.NewRange(start, end), text))
}

// Insert inserts text at offset and reconciles.
func (s *Session) Insert(offset buffer.Offset, text string) error {
	return s.applyEdit(buffer.NewInsert(offset, text))
}

// Delete removes [start, end) and reconciles.
func (s *Session) Delete(start, end buffer.Offset) error {
	return s.applyEdit(buffer.NewDelete(start, end))
}

// applyEdit is the single splice path for host edits: apply, log, reconcile.
func (s *Session) applyEdit(edit buffer.Edit) error {
	result, err := s.buf.ApplyEdit(edit)
	if err != nil {
		return err
	}
	s.log.Debug().
		Str("edit", editKind(edit)).
		Str("range", edit.Range.String()).
		Int("delta", result.Delta).
		Msg("buffer edit")
	s.suggestions.Reconcile()
	return nil
}

func editKind(e buffer.Edit) string {
	switch {
	case e.IsInsert():
		return "insert"
	case e.IsDelete():
		return "delete"
	case e.IsReplace():
		return "replace"
	default:
		return "noop"
	}
}

// ReplaceParagraph swaps a paragraph's content and reconciles.
func (s *Session) ReplaceParagraph(paragraphID int, text string) error {
	if _, err := s.buf.ReplaceParagraph(paragraphID, text); err != nil {
		return err
	}
	s.suggestions.Reconcile()
	return nil
}

// AnalyzeSuggestions runs a full analysis pass. A pass superseded by a newer
// one is not an error worth surfacing to the host.
func (s *Session) AnalyzeSuggestions(ctx context.Context) error {
	err := s.suggestions.Analyze(ctx)
	if errors.Is(err, suggest.ErrSuperseded) {
		return nil
	}
	if err != nil {
		s.fireError(err)
	}
	return err
}

// Click resolves a rendered suggestion by ID and fires the click hook.
func (s *Session) Click(suggestionID string) bool {
	sug, sp, ok := s.suggestions.Resolve(suggestionID)
	if !ok {
		return false
	}
	if s.hooks.OnSuggestionClick != nil {
		s.hooks.OnSuggestionClick(sug, sp)
	}
	return true
}

// Accept applies a suggestion to the buffer.
func (s *Session) Accept(suggestionID string) error {
	sug, _, ok := s.suggestions.Resolve(suggestionID)
	if err := s.suggestions.Accept(suggestionID); err != nil {
		s.fireError(err)
		return err
	}
	if ok && s.hooks.OnAccept != nil {
		s.hooks.OnAccept(sug)
	}
	return nil
}

// Dismiss removes a suggestion and records the dismissal with the service.
func (s *Session) Dismiss(ctx context.Context, suggestionID string) error {
	sug, _, ok := s.suggestions.Resolve(suggestionID)
	if err := s.suggestions.Dismiss(ctx, suggestionID); err != nil {
		s.fireError(err)
		return err
	}
	if ok && s.hooks.OnDismiss != nil {
		s.hooks.OnDismiss(sug)
	}
	return nil
}

// ClearDismissed removes every recorded dismissal for the document.
func (s *Session) ClearDismissed(ctx context.Context) (int, error) {
	return s.suggestions.ClearDismissed(ctx)
}

// AnalyzeLength starts a rewrite workflow toward a word or character target.
func (s *Session) AnalyzeLength(ctx context.Context, target int, unit service.Unit) error {
	err := s.rewrites.Analyze(ctx, target, unit)
	if errors.Is(err, rewrite.ErrSessionSuperseded) {
		return nil
	}
	if err != nil {
		s.fireError(err)
	}
	return err
}

// AnalyzePages starts a rewrite workflow toward a page target, converted to
// characters locally.
func (s *Session) AnalyzePages(ctx context.Context, pages float64) error {
	err := s.rewrites.AnalyzePages(ctx, pages)
	if errors.Is(err, rewrite.ErrSessionSuperseded) {
		return nil
	}
	if err != nil {
		s.fireError(err)
	}
	return err
}

// VisibleRewrites returns the rewrite offers not currently dismissed.
func (s *Session) VisibleRewrites() []service.ParagraphRewrite {
	return s.rewrites.Visible()
}

// AcceptRewrite splices an offered rewrite into its paragraph. The splice
// moves everything after the paragraph, so the suggestion set is reconciled.
func (s *Session) AcceptRewrite(paragraphID int) error {
	if err := s.rewrites.Accept(paragraphID); err != nil {
		s.fireError(err)
		return err
	}
	s.suggestions.Reconcile()
	return nil
}

// RetryRewrite requests a different rewrite for one paragraph.
func (s *Session) RetryRewrite(ctx context.Context, paragraphID int) error {
	if err := s.rewrites.Retry(ctx, paragraphID); err != nil {
		s.fireError(err)
		return err
	}
	if s.hooks.OnRetry != nil {
		for _, e := range s.rewrites.Visible() {
			if e.ParagraphID == paragraphID {
				s.hooks.OnRetry(e)
				break
			}
		}
	}
	return nil
}

// DismissRewrite hides an offer for the rest of the rewrite session.
func (s *Session) DismissRewrite(paragraphID int) error {
	if err := s.rewrites.Dismiss(paragraphID); err != nil {
		s.fireError(err)
		return err
	}
	return nil
}

// UndismissAllRewrites restores every hidden rewrite offer.
func (s *Session) UndismissAllRewrites() {
	s.rewrites.UndismissAll()
}

// Close tears down the session state. In-flight responses are invalidated.
func (s *Session) Close() {
	s.suggestions.Clear()
	s.rewrites.Clear()
}

func (s *Session) fireError(err error) {
	s.log.Debug().Err(err).Str("document", s.documentID).Msg("session operation failed")
	if s.hooks.OnError != nil {
		s.hooks.OnError(err)
	}
}
