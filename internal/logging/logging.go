// Package logging holds the process-wide diagnostic logger. Output goes to
// stderr so it never mixes with streamed replies.
package logging

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu     sync.RWMutex
	logger = New(os.Stderr, false)
)

// New returns a text logger at warn level, or debug when verbose is set.
func New(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Setup replaces the global logger.
func Setup(w io.Writer, verbose bool) *slog.Logger {
	l := New(w, verbose)
	mu.Lock()
	logger = l
	mu.Unlock()
	return l
}

// Logger returns the global logger.
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// WithFields returns the global logger with additional fields.
func WithFields(kv ...any) *slog.Logger {
	return Logger().With(kv...)
}
