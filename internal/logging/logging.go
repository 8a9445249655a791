// Package logging builds the process-wide zerolog logger used by every
// component: a console writer when attached to a TTY, structured JSON
// otherwise.
package logging

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// New builds a logger writing to w. When w is os.Stderr and it is a TTY,
// output is human-readable; otherwise it is newline-delimited JSON.
func New(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}

	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: "15:04:05"}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Default returns the standard stderr logger for CLI use.
func Default(verbose bool) zerolog.Logger {
	return New(os.Stderr, verbose)
}
