package vg

import (
	"io"
	"log/slog"
	"os"
)

// Logger is the structured logging interface used by the context. It
// matches the method set of *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps a *slog.Logger to implement Logger.
//
// Example:
//
//	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
//	ctx, err := vg.New(b, 800, 600, vg.WithLogger(vg.NewSlogAdapter(slog.New(handler))))
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a Logger from a *slog.Logger.
// If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Debug logs a debug-level message with optional key-value pairs.
func (s *SlogAdapter) Debug(msg string, args ...any) {
	s.logger.Debug(msg, args...)
}

// Info logs an info-level message with optional key-value pairs.
func (s *SlogAdapter) Info(msg string, args ...any) {
	s.logger.Info(msg, args...)
}

// Warn logs a warning-level message with optional key-value pairs.
func (s *SlogAdapter) Warn(msg string, args ...any) {
	s.logger.Warn(msg, args...)
}

// Error logs an error-level message with optional key-value pairs.
func (s *SlogAdapter) Error(msg string, args ...any) {
	s.logger.Error(msg, args...)
}

// With returns an adapter that adds args to every record.
func (s *SlogAdapter) With(args ...any) *SlogAdapter {
	return &SlogAdapter{logger: s.logger.With(args...)}
}

// DefaultLogger logs text to stderr at Info level.
func DefaultLogger() Logger {
	return LevelLogger(os.Stderr, slog.LevelInfo)
}

// DebugLogger logs text to stderr at Debug level, including source
// location.
func DebugLogger() Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     slog.LevelDebug,
		AddSource: true,
	})
	return &SlogAdapter{logger: slog.New(handler)}
}

// LevelLogger logs text to w at level.
func LevelLogger(w io.Writer, level slog.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &SlogAdapter{logger: slog.New(handler)}
}

// JSONLogger returns a Logger that writes JSON records to w.
func JSONLogger(w io.Writer, level slog.Level) Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &SlogAdapter{logger: slog.New(handler)}
}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
