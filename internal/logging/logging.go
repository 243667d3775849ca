// Package logging builds the structured logger shared by every command.
//
// Output goes to stderr so it never mixes with the step tracker or the
// machine-readable output of `version --json`. A terminal gets the human
// text formatter; anything else (CI, pipes) gets JSON lines.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/specify-labs/specify/internal/branding"
)

// Options configures New.
type Options struct {
	// Level is a level name ("debug", "info", "warn", "error").
	// Unknown or empty values fall back to warn.
	Level string
	// Debug forces the debug level regardless of Level.
	Debug bool
	// JSON forces the JSON formatter. When false the formatter is chosen
	// from whether w is a terminal.
	JSON bool
}

// New creates a logger writing to w.
func New(w io.Writer, opts Options) *log.Logger {
	formatter := log.TextFormatter
	if opts.JSON || !isTerminal(w) {
		formatter = log.JSONFormatter
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          branding.CLIName(),
		Level:           ParseLevel(opts.Level, opts.Debug),
		ReportTimestamp: opts.Debug,
		Formatter:       formatter,
	})
}

// ParseLevel maps a configured level name to a log level.
func ParseLevel(name string, debug bool) log.Level {
	if debug {
		return log.DebugLevel
	}
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return log.WarnLevel
	}
	return lvl
}

// Discard returns a logger that drops everything. Packages use it when a
// caller passes a nil logger.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
