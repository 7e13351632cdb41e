package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// ClientConfig holds HTTP client configuration.
type ClientConfig struct {
	// BaseURL is the root of the analysis service, e.g. "https://api.example.com".
	BaseURL string

	// AuthToken is sent as a bearer token when non-empty.
	AuthToken string

	// RequestTimeout bounds a single request when the caller's context has no
	// earlier deadline.
	RequestTimeout time.Duration

	// RewriteTimeout bounds rewrite requests, which the service takes longer
	// to answer than suggestion analysis.
	RewriteTimeout time.Duration
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		RequestTimeout: 10 * time.Second,
		RewriteTimeout: 15 * time.Second,
	}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAuthToken sets the bearer token sent with every request.
func WithAuthToken(token string) ClientOption {
	return func(c *Client) {
		c.config.AuthToken = token
	}
}

// WithRequestTimeout sets the default per-request timeout.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.config.RequestTimeout = d
	}
}

// WithRewriteTimeout sets the timeout for rewrite and retry requests.
func WithRewriteTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.config.RewriteTimeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the diagnostics logger. Defaults to a no-op logger.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.log = log
	}
}

// Client is the HTTP implementation of Service.
// It is safe for concurrent use.
type Client struct {
	config ClientConfig
	http   *http.Client
	log    zerolog.Logger
}

// NewClient creates a service client for the given base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		config: DefaultClientConfig(),
		http:   &http.Client{},
		log:    zerolog.Nop(),
	}
	c.config.BaseURL = strings.TrimRight(baseURL, "/")

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// AnalyzeSuggestions implements Service.
func (c *Client) AnalyzeSuggestions(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	if len(req.Paragraphs) == 0 {
		return nil, ErrEmptyRequest
	}
	if len(req.Paragraphs) > MaxParagraphsPerRequest {
		return nil, ErrTooManyParagraphs
	}
	for _, p := range req.Paragraphs {
		if utf8.RuneCountInString(p.TextContent) > MaxParagraphLength {
			return nil, ErrParagraphTooLong
		}
	}

	var resp AnalyzeResponse
	if err := c.post(ctx, "analyze", "/suggestions/analyze", c.config.RequestTimeout, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DismissSuggestion implements Service.
func (c *Client) DismissSuggestion(ctx context.Context, req DismissRequest) (*DismissResponse, error) {
	var resp DismissResponse
	if err := c.post(ctx, "dismiss", "/suggestions/dismiss", c.config.RequestTimeout, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ClearDismissed implements Service.
func (c *Client) ClearDismissed(ctx context.Context, documentID string) (*ClearDismissedResponse, error) {
	var resp ClearDismissedResponse
	path := "/suggestions/dismissed/" + url.PathEscape(documentID)
	if err := c.do(ctx, "clear-dismissed", http.MethodDelete, path, c.config.RequestTimeout, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RewriteForLength implements Service.
func (c *Client) RewriteForLength(ctx context.Context, req RewriteRequest) (*RewriteResponse, error) {
	if !req.Unit.IsValid() {
		return nil, ErrInvalidUnit
	}
	if !req.Unit.TargetInRange(req.TargetLength) {
		return nil, ErrInvalidTarget
	}
	if strings.TrimSpace(req.FullText) == "" {
		return nil, ErrEmptyRequest
	}

	var resp RewriteResponse
	if err := c.post(ctx, "rewrite", "/rewrite/length", c.config.RewriteTimeout, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RetryRewrite implements Service.
func (c *Client) RetryRewrite(ctx context.Context, req RetryRequest) (*RetryResponse, error) {
	if !req.Unit.IsValid() {
		return nil, ErrInvalidUnit
	}
	if !req.Unit.TargetInRange(req.TargetLength) {
		return nil, ErrInvalidTarget
	}
	if req.Mode != ModeShorten && req.Mode != ModeLengthen {
		return nil, ErrInvalidMode
	}

	var resp RetryResponse
	if err := c.post(ctx, "retry", "/rewrite/retry", c.config.RewriteTimeout, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post issues a JSON POST request.
func (c *Client) post(ctx context.Context, op, path string, timeout time.Duration, body, out any) error {
	return c.do(ctx, op, http.MethodPost, path, timeout, body, out)
}

// do issues a JSON request and decodes the response into out.
func (c *Client) do(ctx context.Context, op, method, path string, timeout time.Duration, body, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.config.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Str("op", op).Err(err).Msg("service request failed")
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	c.log.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("service request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(data),
		}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
		}
	}

	return nil
}

// errorDetail pulls a human-readable message out of an error body without
// assuming its exact shape. The service reports {"detail": "..."} but proxies
// in front of it produce other shapes, or no JSON at all.
func errorDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	for _, field := range []string{"detail", "message", "error"} {
		if v := gjson.GetBytes(body, field); v.Type == gjson.String {
			return v.String()
		}
	}
	return ""
}
