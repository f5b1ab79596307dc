// Package logger implements a logging adapter using log/slog.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/packforge/twpatch/internal/core/ports"
)

// Logger implements ports.Logger using log/slog.
type Logger struct {
	logger *slog.Logger
	mu     sync.RWMutex
}

// New creates a logger writing human-readable text to stderr.
func New() *Logger {
	return &Logger{logger: slog.New(newHandler(os.Stderr, slog.LevelInfo))}
}

// NewVerbose creates a logger that also emits debug-level records.
func NewVerbose() *Logger {
	return &Logger{logger: slog.New(newHandler(os.Stderr, slog.LevelDebug))}
}

func newHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

// SetOutput redirects the logger's output. Used by tests.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger = slog.New(newHandler(w, slog.LevelInfo))
}

// Info logs an informational message with optional key/value attributes.
func (l *Logger) Info(msg string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Info(msg, args...)
}

// Warn logs a recoverable failure with optional key/value attributes.
func (l *Logger) Warn(msg string, args ...any) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Warn(msg, args...)
}

// Error logs a fatal run failure.
func (l *Logger) Error(err error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.logger.Error("run failed", "error", err)
}

var _ ports.Logger = (*Logger)(nil)
