package suggest

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/redline/internal/engine/buffer"
	"github.com/dshills/redline/internal/service"
)

// fakeService is a scripted service.Service for lifecycle tests.
type fakeService struct {
	analyzeResponses []*service.AnalyzeResponse
	analyzeCalls     []service.AnalyzeRequest
	analyzeHook      func(req service.AnalyzeRequest)

	dismissCalls []service.DismissRequest
	dismissErr   error
	dismissHook  func(req service.DismissRequest)

	clearCalls int
}

func (f *fakeService) AnalyzeSuggestions(_ context.Context, req service.AnalyzeRequest) (*service.AnalyzeResponse, error) {
	f.analyzeCalls = append(f.analyzeCalls, req)
	if f.analyzeHook != nil {
		f.analyzeHook(req)
	}
	if len(f.analyzeResponses) == 0 {
		return &service.AnalyzeResponse{}, nil
	}
	resp := f.analyzeResponses[0]
	if len(f.analyzeResponses) > 1 {
		f.analyzeResponses = f.analyzeResponses[1:]
	}
	return resp, nil
}

func (f *fakeService) DismissSuggestion(_ context.Context, req service.DismissRequest) (*service.DismissResponse, error) {
	f.dismissCalls = append(f.dismissCalls, req)
	if f.dismissHook != nil {
		f.dismissHook(req)
	}
	if f.dismissErr != nil {
		return nil, f.dismissErr
	}
	return &service.DismissResponse{
		Success:             true,
		DismissalIdentifier: service.DismissalIdentifier(req.OriginalText, req.RuleID),
	}, nil
}

func (f *fakeService) ClearDismissed(_ context.Context, _ string) (*service.ClearDismissedResponse, error) {
	f.clearCalls++
	return &service.ClearDismissedResponse{Success: true, ClearedCount: 3}, nil
}

func (f *fakeService) RewriteForLength(_ context.Context, req service.RewriteRequest) (*service.RewriteResponse, error) {
	return &service.RewriteResponse{DocumentID: req.DocumentID}, nil
}

func (f *fakeService) RetryRewrite(_ context.Context, _ service.RetryRequest) (*service.RetryResponse, error) {
	return &service.RetryResponse{}, nil
}

func tehSuggestion() service.Suggestion {
	return service.Suggestion{
		SuggestionID:   "sug-1",
		RuleID:         "spell.teh",
		Category:       service.CategorySpelling,
		OriginalText:   "teh",
		SuggestionText: "the",
		Message:        "possible typo",
		GlobalStart:    6,
		GlobalEnd:      9,
	}
}

func TestAnalyzeInstallsReconciledSet(t *testing.T) {
	buf := buffer.NewBufferFromString("I saw teh cat")
	svc := &fakeService{
		analyzeResponses: []*service.AnalyzeResponse{
			{Suggestions: []service.Suggestion{tehSuggestion()}},
		},
	}
	m := NewManager("doc-1", buf, svc)

	if err := m.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	active := m.Active()
	if len(active) != 1 {
		t.Fatalf("Active() = %d suggestions, want 1", len(active))
	}
	if active[0].DismissalIdentifier != "teh|spell.teh" {
		t.Errorf("DismissalIdentifier = %q, want derived fallback", active[0].DismissalIdentifier)
	}

	sp, ok := m.Overlay().ByID("sug-1")
	if !ok {
		t.Fatal("overlay missing suggestion span")
	}
	if sp.Range.Start != 6 || sp.Range.End != 9 {
		t.Errorf("span range = [%d,%d), want [6,9)", sp.Range.Start, sp.Range.End)
	}
}

func TestAnalyzeReconcilesAgainstArrivalBuffer(t *testing.T) {
	buf := buffer.NewBufferFromString("I saw teh cat")
	svc := &fakeService{
		analyzeResponses: []*service.AnalyzeResponse{
			{Suggestions: []service.Suggestion{tehSuggestion()}},
		},
	}
	// Edit while the request is in flight; "teh" shifts right by 3.
	svc.analyzeHook = func(service.AnalyzeRequest) {
		if _, err := buf.Insert(0, "Hm "); err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
	m := NewManager("doc-1", buf, svc)

	if err := m.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	sp, ok := m.Overlay().ByID("sug-1")
	if !ok {
		t.Fatal("suggestion should survive an in-window shift")
	}
	if sp.Range.Start != 9 || sp.Range.End != 12 {
		t.Errorf("span range = [%d,%d), want [9,12)", sp.Range.Start, sp.Range.End)
	}
}

func TestAnalyzeDropsUnmatchable(t *testing.T) {
	buf := buffer.NewBufferFromString("completely different text")
	svc := &fakeService{
		analyzeResponses: []*service.AnalyzeResponse{
			{Suggestions: []service.Suggestion{tehSuggestion()}},
		},
	}
	m := NewManager("doc-1", buf, svc)

	if err := m.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if got := len(m.Active()); got != 0 {
		t.Errorf("Active() = %d suggestions, want 0", got)
	}
}

func TestAnalyzeSuperseded(t *testing.T) {
	buf := buffer.NewBufferFromString("I saw teh cat")
	svc := &fakeService{
		analyzeResponses: []*service.AnalyzeResponse{
			{Suggestions: []service.Suggestion{tehSuggestion()}},
		},
	}
	m := NewManager("doc-1", buf, svc)

	// Bump the generation while the first request is in flight, as a newer
	// Analyze would.
	svc.analyzeHook = func(service.AnalyzeRequest) {
		svc.analyzeHook = nil
		m.mu.Lock()
		m.generation++
		m.mu.Unlock()
	}

	if err := m.Analyze(context.Background()); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("Analyze() error = %v, want ErrSuperseded", err)
	}
	if got := len(m.Active()); got != 0 {
		t.Errorf("superseded response mutated the active set: %d entries", got)
	}
}

func TestAnalyzeBatching(t *testing.T) {
	paras := make([]buffer.Paragraph, 0, 12)
	for i := 0; i < 12; i++ {
		paras = append(paras, buffer.Paragraph{ID: i, Text: "short"})
	}
	batches := analyzeBatches(paras)
	if len(batches) != 2 {
		t.Fatalf("analyzeBatches() = %d batches, want 2", len(batches))
	}
	if len(batches[0]) != service.MaxParagraphsPerRequest || len(batches[1]) != 2 {
		t.Errorf("batch sizes = %d, %d, want 10, 2", len(batches[0]), len(batches[1]))
	}
}

func TestStaleEvictionDebounce(t *testing.T) {
	buf := buffer.NewBufferFromString("I saw teh cat")
	svc := &fakeService{
		analyzeResponses: []*service.AnalyzeResponse{
			{Suggestions: []service.Suggestion{tehSuggestion()}},
		},
	}

	var staleIDs []string
	m := NewManager("doc-1", buf, svc,
		WithStateHandler(func(s service.Suggestion, st State) {
			if st == StateStale {
				staleIDs = append(staleIDs, s.SuggestionID)
			}
		}))

	if err := m.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	// Destroy the match; first pass suppresses, second evicts.
	if _, err := buf.Replace(6, 9, "thh"); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	m.Reconcile()
	if got := len(m.Active()); got != 1 {
		t.Fatalf("after first invalid pass Active() = %d, want 1 (debounced)", got)
	}
	if _, ok := m.Overlay().ByID("sug-1"); ok {
		t.Error("invalid suggestion should be suppressed from the overlay")
	}

	m.Reconcile()
	if got := len(m.Active()); got != 0 {
		t.Fatalf("after second invalid pass Active() = %d, want 0", got)
	}
	if len(staleIDs) != 1 || staleIDs[0] != "sug-1" {
		t.Errorf("stale notifications = %v, want [sug-1]", staleIDs)
	}
	if len(svc.dismissCalls) != 0 {
		t.Error("stale eviction must not issue a dismissal call")
	}
}

func TestValidPassResetsStaleStreak(t *testing.T) {
	buf := buffer.NewBufferFromString("I saw teh cat")
	svc := &fakeService{
		analyzeResponses: []*service.AnalyzeResponse{
			{Suggestions: []service.Suggestion{tehSuggestion()}},
		},
	}
	m := NewManager("doc-1", buf, svc)

	if err := m.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	// Break the match, let one pass fail, then repair it.
	if _, err := buf.Replace(6, 9, "thh"); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	m.Reconcile()

	if _, err := buf.Replace(6, 9, "teh"); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	m.Reconcile()

	// Two more invalid passes are needed again.
	if _, err := buf.Replace(6, 9, "thh"); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	m.Reconcile()
	if got := len(m.Active()); got != 1 {
		t.Errorf("streak did not reset: Active() = %d, want 1", got)
	}
}

func TestAcceptSplicesBuffer(t *testing.T) {
	buf := buffer.NewBufferFromString("I saw teh cat")
	svc := &fakeService{
		analyzeResponses: []*service.AnalyzeResponse{
			{Suggestions: []service.Suggestion{tehSuggestion()}},
		},
	}
	m := NewManager("doc-1", buf, svc)

	if err := m.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if err := m.Accept("sug-1"); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	if got := buf.Text(); got != "I saw the cat" {
		t.Errorf("Text() = %q, want %q", got, "I saw the cat")
	}
	if got := len(m.Active()); got != 0 {
		t.Errorf("accepted suggestion still active: %d entries", got)
	}
	if len(svc.dismissCalls) != 0 {
		t.Error("acceptance must not issue a dismissal call")
	}
}

func TestAcceptAfterShift(t *testing.T) {
	buf := buffer.NewBufferFromString("I saw teh cat")
	svc := &fakeService{
		analyzeResponses: []*service.AnalyzeResponse{
			{Suggestions: []service.Suggestion{tehSuggestion()}},
		},
	}
	m := NewManager("doc-1", buf, svc)

	if err := m.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	// Shift the target right by two without a reconcile pass in between;
	// Accept must still splice the right runes.
	if _, err := buf.Insert(0, "A "); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if err := m.Accept("sug-1"); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if got := buf.Text(); got != "A I saw the cat" {
		t.Errorf("Text() = %q, want %q", got, "A I saw the cat")
	}
}

func TestAcceptStale(t *testing.T) {
	buf := buffer.NewBufferFromString("I saw teh cat")
	svc := &fakeService{
		analyzeResponses: []*service.AnalyzeResponse{
			{Suggestions: []service.Suggestion{tehSuggestion()}},
		},
	}
	m := NewManager("doc-1", buf, svc)

	if err := m.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if _, err := buf.Replace(6, 9, "thh"); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	if err := m.Accept("sug-1"); !errors.Is(err, ErrSuggestionStale) {
		t.Fatalf("Accept() error = %v, want ErrSuggestionStale", err)
	}
	if got := buf.Text(); got != "I saw thh cat" {
		t.Errorf("stale accept mutated the buffer: %q", got)
	}
	if got := len(m.Active()); got != 0 {
		t.Errorf("stale suggestion still active: %d entries", got)
	}
}

func TestDismissIsOptimistic(t *testing.T) {
	buf := buffer.NewBufferFromString("I saw teh cat")
	svc := &fakeService{
		analyzeResponses: []*service.AnalyzeResponse{
			{Suggestions: []service.Suggestion{tehSuggestion()}},
		},
	}
	m := NewManager("doc-1", buf, svc)

	if err := m.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	// The suggestion must already be gone when the service call runs.
	svc.dismissHook = func(service.DismissRequest) {
		if got := len(m.Active()); got != 0 {
			t.Errorf("during dismiss call Active() = %d, want 0", got)
		}
	}

	if err := m.Dismiss(context.Background(), "sug-1"); err != nil {
		t.Fatalf("Dismiss() error = %v", err)
	}
	if len(svc.dismissCalls) != 1 {
		t.Fatalf("dismiss calls = %d, want 1", len(svc.dismissCalls))
	}
	if svc.dismissCalls[0].OriginalText != "teh" || svc.dismissCalls[0].RuleID != "spell.teh" {
		t.Errorf("dismiss payload = %+v", svc.dismissCalls[0])
	}
}

func TestDismissFailureRestores(t *testing.T) {
	buf := buffer.NewBufferFromString("I saw teh cat")
	svc := &fakeService{
		analyzeResponses: []*service.AnalyzeResponse{
			{Suggestions: []service.Suggestion{tehSuggestion()}},
		},
		dismissErr: errors.New("service unavailable"),
	}
	m := NewManager("doc-1", buf, svc)

	if err := m.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if err := m.Dismiss(context.Background(), "sug-1"); err == nil {
		t.Fatal("Dismiss() error = nil, want service error")
	}

	// Restored; the action can be re-invoked and succeeds.
	if got := len(m.Active()); got != 1 {
		t.Fatalf("after failed dismiss Active() = %d, want 1", got)
	}
	svc.dismissErr = nil
	if err := m.Dismiss(context.Background(), "sug-1"); err != nil {
		t.Fatalf("retried Dismiss() error = %v", err)
	}
	if got := len(m.Active()); got != 0 {
		t.Errorf("after retried dismiss Active() = %d, want 0", got)
	}
}

func TestRepeatDismissalIsNoOp(t *testing.T) {
	s := tehSuggestion()
	s.DismissalIdentifier = "teh|spell.teh"
	buf := buffer.NewBufferFromString("I saw teh cat")
	svc := &fakeService{
		analyzeResponses: []*service.AnalyzeResponse{
			{Suggestions: []service.Suggestion{s}},
		},
	}
	m := NewManager("doc-1", buf, svc)

	if err := m.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if err := m.Dismiss(context.Background(), "sug-1"); err != nil {
		t.Fatalf("Dismiss() error = %v", err)
	}

	// Same content reappears under a new ID; dismissing it again must not
	// hit the service.
	s2 := s
	s2.SuggestionID = "sug-2"
	svc.analyzeResponses = []*service.AnalyzeResponse{
		{Suggestions: []service.Suggestion{s2}},
	}
	if err := m.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if err := m.Dismiss(context.Background(), "sug-2"); err != nil {
		t.Fatalf("repeat Dismiss() error = %v", err)
	}
	if len(svc.dismissCalls) != 1 {
		t.Errorf("dismiss calls = %d, want 1 (repeat is a no-op)", len(svc.dismissCalls))
	}
}

func TestClearDismissedResetsIdempotency(t *testing.T) {
	buf := buffer.NewBufferFromString("I saw teh cat")
	svc := &fakeService{
		analyzeResponses: []*service.AnalyzeResponse{
			{Suggestions: []service.Suggestion{tehSuggestion()}},
		},
	}
	m := NewManager("doc-1", buf, svc)

	if err := m.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if err := m.Dismiss(context.Background(), "sug-1"); err != nil {
		t.Fatalf("Dismiss() error = %v", err)
	}

	n, err := m.ClearDismissed(context.Background())
	if err != nil {
		t.Fatalf("ClearDismissed() error = %v", err)
	}
	if n != 3 {
		t.Errorf("ClearDismissed() = %d, want 3", n)
	}

	// After clearing, the same content dismisses through the service again.
	s2 := tehSuggestion()
	s2.SuggestionID = "sug-3"
	svc.analyzeResponses = []*service.AnalyzeResponse{
		{Suggestions: []service.Suggestion{s2}},
	}
	if err := m.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if err := m.Dismiss(context.Background(), "sug-3"); err != nil {
		t.Fatalf("Dismiss() error = %v", err)
	}
	if len(svc.dismissCalls) != 2 {
		t.Errorf("dismiss calls = %d, want 2", len(svc.dismissCalls))
	}
}

func TestResolveClick(t *testing.T) {
	buf := buffer.NewBufferFromString("I saw teh cat")
	svc := &fakeService{
		analyzeResponses: []*service.AnalyzeResponse{
			{Suggestions: []service.Suggestion{tehSuggestion()}},
		},
	}
	m := NewManager("doc-1", buf, svc)

	if err := m.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	s, sp, ok := m.Resolve("sug-1")
	if !ok {
		t.Fatal("Resolve() = false, want true")
	}
	if s.SuggestionText != "the" || sp.Range.Start != 6 {
		t.Errorf("Resolve() = %+v, %+v", s, sp)
	}

	if _, _, ok := m.Resolve("no-such-id"); ok {
		t.Error("Resolve() of unknown id = true, want false")
	}
}
