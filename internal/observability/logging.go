// Package observability carries run-scoped logging context through a pipeline run.
package observability

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/promptpack/internal/logfields"
)

// LogContext holds structured logging context information.
type LogContext struct {
	RunID  string
	Stage  string
	Doc    string
	Logger *slog.Logger
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithRunID adds a run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RunID = runID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithStage adds a stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	lc := extractLogContext(ctx)
	lc.Stage = stage
	return context.WithValue(ctx, logContextKey, lc)
}

// WithDoc adds the document being processed to the context.
func WithDoc(ctx context.Context, doc string) context.Context {
	lc := extractLogContext(ctx)
	lc.Doc = doc
	return context.WithValue(ctx, logContextKey, lc)
}

// WithLogger routes context logging to logger instead of slog.Default().
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	lc := extractLogContext(ctx)
	lc.Logger = logger
	return context.WithValue(ctx, logContextKey, lc)
}

func extractLogContext(ctx context.Context) LogContext {
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func getLogAttrs(ctx context.Context) []slog.Attr {
	lc := extractLogContext(ctx)
	attrs := []slog.Attr{}

	if lc.RunID != "" {
		attrs = append(attrs, logfields.RunID(lc.RunID))
	}
	if lc.Stage != "" {
		attrs = append(attrs, logfields.Stage(lc.Stage))
	}
	if lc.Doc != "" {
		attrs = append(attrs, logfields.Doc(lc.Doc))
	}

	return attrs
}

func logger(ctx context.Context) *slog.Logger {
	if l := extractLogContext(ctx).Logger; l != nil {
		return l
	}
	return slog.Default()
}

func logAttrs(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr) {
	l := logger(ctx)
	if !l.Enabled(ctx, level) {
		return
	}
	l.LogAttrs(ctx, level, msg, append(getLogAttrs(ctx), attrs...)...)
}

// InfoContext logs an info message with context information.
func InfoContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, slog.LevelInfo, msg, attrs)
}

// WarnContext logs a warning message with context information.
func WarnContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, slog.LevelWarn, msg, attrs)
}

// ErrorContext logs an error message with context information.
func ErrorContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, slog.LevelError, msg, attrs)
}

// DebugContext logs a debug message with context information.
func DebugContext(ctx context.Context, msg string, attrs ...slog.Attr) {
	logAttrs(ctx, slog.LevelDebug, msg, attrs)
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}
