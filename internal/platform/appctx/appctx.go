// Package appctx provides context-based utilities for cross-cutting concerns:
// the request-scoped logger and the share event id.
package appctx

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type loggerKey struct{}

type eventIDKey struct{}

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// LoggerFromContext returns the logger from the context (if present).
func LoggerFromContext(ctx context.Context) (*slog.Logger, bool) {
	l, ok := ctx.Value(loggerKey{}).(*slog.Logger)
	return l, ok && l != nil
}

// GetLogger returns the logger from the context, or slog.Default() if missing.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := LoggerFromContext(ctx); ok {
		return l
	}
	return slog.Default()
}

// NewEventID returns a fresh UUIDv7 share event id.
func NewEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// WithEventID attaches a share event id to the context and enriches the
// context logger with it.
func WithEventID(ctx context.Context, eventID string) context.Context {
	ctx = context.WithValue(ctx, eventIDKey{}, eventID)
	return WithLogger(ctx, GetLogger(ctx).With("event_id", eventID))
}

// EventIDFromContext returns the share event id, or "" if none is attached.
func EventIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(eventIDKey{}).(string)
	return id
}
