// Package logging defines the minimal logger used by the binding engine and
// its zap adapter.
package logging

import (
	"context"
)

// Classification is the severity of a log entry.
type Classification string

const (
	Warn  Classification = "WARN"
	Debug Classification = "DEBUG"
)

// Logger is an interface for logging entries at certain classifications.
type Logger interface {
	// Logf is expected to support the standard fmt package "verbs".
	Logf(level Classification, format string, v ...interface{})
}

// ContextLogger is an optional interface a Logger implementation may expose
// that provides the ability to create context aware log entries.
type ContextLogger interface {
	WithContext(context.Context) Logger
}

// WithContext will pass the provided context to logger if it implements the
// ContextLogger interface and return the resulting logger. Otherwise the
// logger will be returned as is.
func WithContext(ctx context.Context, logger Logger) Logger {
	cl, ok := logger.(ContextLogger)
	if !ok {
		return logger
	}

	return cl.WithContext(ctx)
}

// OrNoop returns logger, or Noop when logger is nil.
func OrNoop(logger Logger) Logger {
	if logger == nil {
		return Noop{}
	}
	return logger
}

// Noop is a Logger implementation that simply does not perform any logging.
type Noop struct{}

func (Noop) Logf(Classification, string, ...interface{}) {}
