package service

import "context"

// Request limits mirrored from the analysis service. The client enforces them
// locally so an oversized request never goes on the wire.
const (
	MaxParagraphsPerRequest = 10
	MaxParagraphLength      = 2000
)

// Service is the analysis/rewrite backend consumed by the engine.
// Implementations must be safe for concurrent use; every call is bounded by
// its context.
type Service interface {
	// AnalyzeSuggestions requests spelling/grammar/style suggestions for the
	// given paragraphs. Suggestions already dismissed for the document are
	// filtered out by the service.
	AnalyzeSuggestions(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error)

	// DismissSuggestion records a content-keyed dismissal so future analysis
	// passes exclude the suggestion. Idempotent.
	DismissSuggestion(ctx context.Context, req DismissRequest) (*DismissResponse, error)

	// ClearDismissed removes all dismissals for a document.
	ClearDismissed(ctx context.Context, documentID string) (*ClearDismissedResponse, error)

	// RewriteForLength requests paragraph-level rewrites toward a target
	// length. Unit must be words or characters.
	RewriteForLength(ctx context.Context, req RewriteRequest) (*RewriteResponse, error)

	// RetryRewrite requests a variant distinct from a previously offered
	// rewrite for one paragraph. Mode is required here.
	RetryRewrite(ctx context.Context, req RetryRequest) (*RetryResponse, error)
}
