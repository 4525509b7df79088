package lexgo

import (
	"context"
	"log/slog"
	"os"

	"github.com/hupe1980/lexgo/model"
	"github.com/hupe1980/lexgo/validate"
)

// Logger wraps slog.Logger with lexgo-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithDomain adds a domain field to the logger.
func (l *Logger) WithDomain(d model.Domain) *Logger {
	return &Logger{
		Logger: l.Logger.With("domain", string(d)),
	}
}

// WithMode adds a mode field to the logger.
func (l *Logger) WithMode(m model.Mode) *Logger {
	return &Logger{
		Logger: l.Logger.With("mode", string(m)),
	}
}

// WithKey adds a normalized key field to the logger.
func (l *Logger) WithKey(key string) *Logger {
	return &Logger{
		Logger: l.Logger.With("key", key),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, domain model.Domain, mode model.Mode, key string, results int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"domain", string(domain),
			"mode", string(mode),
			"key", key,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"domain", string(domain),
			"mode", string(mode),
			"key", key,
			"results", results,
		)
	}
}

// LogLookup logs a single-record lookup.
func (l *Logger) LogLookup(ctx context.Context, domain model.Domain, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "lookup failed",
			"domain", string(domain),
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "lookup completed",
			"domain", string(domain),
			"id", id,
		)
	}
}

// LogValidate logs a validation run.
func (l *Logger) LogValidate(ctx context.Context, mode validate.Mode, violations int, truncated bool) {
	if violations > 0 {
		l.WarnContext(ctx, "validation found violations",
			"mode", string(mode),
			"violations", violations,
			"truncated", truncated,
		)
	} else {
		l.InfoContext(ctx, "validation passed",
			"mode", string(mode),
		)
	}
}
