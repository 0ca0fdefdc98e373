// Package logging configures the structured logger used by the server and
// CLI. Pipeline packages below the engine stay log-free and return errors.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
)

// Options configures the logger.
type Options struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer
	// Prefix is the component name prefix
	Prefix string
	// ReportCaller adds file:line to log entries
	ReportCaller bool
}

// DefaultOptions returns sensible default options, respecting
// REDACTD_LOG_LEVEL.
func DefaultOptions() Options {
	opts := Options{
		Level:  "info",
		Output: os.Stderr,
	}
	if level := os.Getenv("REDACTD_LOG_LEVEL"); level != "" {
		opts.Level = level
	}
	return opts
}

// parseLevel converts a string level to log.Level.
func parseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// New creates a logger with the given options. Terminal output gets the
// human formatter; everything else gets logfmt for machine consumption.
func New(opts Options) *log.Logger {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	formatter := log.LogfmtFormatter
	if f, ok := opts.Output.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		formatter = log.TextFormatter
	}

	return log.NewWithOptions(opts.Output, log.Options{
		Level:           parseLevel(opts.Level),
		Prefix:          opts.Prefix,
		TimeFormat:      time.RFC3339,
		ReportCaller:    opts.ReportCaller,
		ReportTimestamp: true,
		Formatter:       formatter,
	})
}

// Discard returns a logger that drops everything; used in tests.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel + 1})
}
