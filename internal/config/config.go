package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/redline/internal/rewrite"
)

// Validation errors.
var (
	ErrMissingBaseURL = errors.New("service base URL is required")
	ErrBadWindow      = errors.New("reconcile window must be positive")
)

// ParseError wraps a TOML syntax failure with the file it came from.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing config %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Service configures the external suggestion/rewrite service client.
// Timeouts are in seconds.
type Service struct {
	BaseURL           string `toml:"base_url"`
	AuthToken         string `toml:"auth_token"`
	RequestTimeoutSec int    `toml:"request_timeout_sec"`
	RewriteTimeoutSec int    `toml:"rewrite_timeout_sec"`
}

// RequestTimeout returns the analyze/dismiss timeout as a duration.
func (s Service) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSec) * time.Second
}

// RewriteTimeout returns the rewrite/retry timeout as a duration.
func (s Service) RewriteTimeout() time.Duration {
	return time.Duration(s.RewriteTimeoutSec) * time.Second
}

// Reconcile configures position reconciliation.
type Reconcile struct {
	// Window is the maximum probe distance in characters when a suggestion's
	// recorded offsets no longer match.
	Window int `toml:"window"`
	// StaleThreshold is how many consecutive failed passes evict a suggestion.
	StaleThreshold int `toml:"stale_threshold"`
}

// Overlay configures which suggestion categories render.
type Overlay struct {
	ShowSpelling bool `toml:"show_spelling"`
	ShowGrammar  bool `toml:"show_grammar"`
	ShowStyle    bool `toml:"show_style"`
}

// Page configures the layout used to convert page targets to characters.
type Page struct {
	Paper      string  `toml:"paper"`
	Font       string  `toml:"font"`
	FontSizePt float64 `toml:"font_size_pt"`
	Spacing    string  `toml:"spacing"`
	MarginPt   float64 `toml:"margin_pt"`
}

// Logging configures the diagnostics logger.
type Logging struct {
	Level string `toml:"level"`
}

// Config is the full application configuration.
type Config struct {
	Service   Service   `toml:"service"`
	Reconcile Reconcile `toml:"reconcile"`
	Overlay   Overlay   `toml:"overlay"`
	Page      Page      `toml:"page"`
	Logging   Logging   `toml:"logging"`
}

// Default returns the built-in configuration.
func Default() *Config {
	ps := rewrite.DefaultPageSettings()
	return &Config{
		Service: Service{
			BaseURL:           "http://localhost:8000",
			RequestTimeoutSec: 10,
			RewriteTimeoutSec: 15,
		},
		Reconcile: Reconcile{
			Window:         5,
			StaleThreshold: 2,
		},
		Overlay: Overlay{
			ShowSpelling: true,
			ShowGrammar:  true,
			ShowStyle:    true,
		},
		Page: Page{
			Paper:      string(ps.Paper),
			Font:       string(ps.Font),
			FontSizePt: ps.FontSizePt,
			Spacing:    string(ps.Spacing),
			MarginPt:   ps.MarginPt,
		},
		Logging: Logging{Level: "info"},
	}
}

// Load builds the configuration from defaults, the TOML file at path, and
// REDLINE_* environment variables, in that precedence order. A missing file
// is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Defaults stand.
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides fields from REDLINE_* environment variables. Empty
// values are valid overrides; unset variables leave the field alone.
func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("REDLINE_SERVICE_URL"); ok {
		c.Service.BaseURL = v
	}
	if v, ok := os.LookupEnv("REDLINE_AUTH_TOKEN"); ok {
		c.Service.AuthToken = v
	}
	if v, ok := os.LookupEnv("REDLINE_REQUEST_TIMEOUT_SEC"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Service.RequestTimeoutSec = n
		}
	}
	if v, ok := os.LookupEnv("REDLINE_REWRITE_TIMEOUT_SEC"); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Service.RewriteTimeoutSec = n
		}
	}
	if v, ok := os.LookupEnv("REDLINE_RECONCILE_WINDOW"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Reconcile.Window = n
		}
	}
	if v, ok := os.LookupEnv("REDLINE_LOG_LEVEL"); ok {
		c.Logging.Level = v
	}
}

// Validate checks invariants the rest of the application relies on.
func (c *Config) Validate() error {
	if c.Service.BaseURL == "" {
		return ErrMissingBaseURL
	}
	if c.Reconcile.Window <= 0 {
		return ErrBadWindow
	}
	return nil
}

// PageSettings converts the page section to rewrite settings, falling back
// to defaults for unrecognized values.
func (c *Config) PageSettings() rewrite.PageSettings {
	ps := rewrite.DefaultPageSettings()
	switch rewrite.PaperSize(c.Page.Paper) {
	case rewrite.PaperLetter, rewrite.PaperA4, rewrite.PaperLegal:
		ps.Paper = rewrite.PaperSize(c.Page.Paper)
	}
	switch rewrite.FontFamily(c.Page.Font) {
	case rewrite.FontTimes, rewrite.FontArial, rewrite.FontCourier:
		ps.Font = rewrite.FontFamily(c.Page.Font)
	}
	switch rewrite.LineSpacing(c.Page.Spacing) {
	case rewrite.SpacingSingle, rewrite.SpacingOneAndHalf, rewrite.SpacingDouble:
		ps.Spacing = rewrite.LineSpacing(c.Page.Spacing)
	}
	if c.Page.FontSizePt > 0 {
		ps.FontSizePt = c.Page.FontSizePt
	}
	if c.Page.MarginPt > 0 {
		ps.MarginPt = c.Page.MarginPt
	}
	return ps
}
