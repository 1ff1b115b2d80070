package utils

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// NewLogger creates the structured logger shared by all components. It
// writes to stderr so reports on stdout stay clean.
func NewLogger(verbose bool) *slog.Logger {
	return newLoggerTo(os.Stderr, verbose)
}

// newLoggerTo creates a text logger writing to w
func newLoggerTo(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: func() slog.Level {
			if verbose {
				return slog.LevelDebug
			}
			return slog.LevelWarn
		}(),
	}))
}

// VerboseLogger provides consistent verbose logging across packages
type VerboseLogger struct {
	verbose bool
	out     io.Writer
}

// NewVerboseLogger creates a new verbose logger
func NewVerboseLogger(verbose bool) *VerboseLogger {
	return &VerboseLogger{verbose: verbose, out: os.Stderr}
}

// Logf logs a formatted message to stderr if verbose mode is enabled
func (v *VerboseLogger) Logf(format string, args ...interface{}) {
	if v.verbose {
		fmt.Fprintf(v.out, format, args...)
	}
}

// Log logs a message to stderr if verbose mode is enabled
func (v *VerboseLogger) Log(message string) {
	if v.verbose {
		fmt.Fprint(v.out, message)
	}
}

// IsVerbose returns whether verbose mode is enabled
func (v *VerboseLogger) IsVerbose() bool {
	return v.verbose
}
