package app

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger builds the application logger writing to w at the configured
// level. Unknown level strings fall back to info.
func NewLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
