// Package logging builds the zerolog logger shared by the CLI binaries.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a console logger at the given level. Unknown or empty levels
// fall back to info.
func New(level string) zerolog.Logger {
	return NewWriter(level, os.Stderr)
}

// NewWriter is New with an explicit sink, for tests.
func NewWriter(level string, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
