package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext extracts a logger from the context.
// Returns zap.NewNop() if no logger is found.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// WithRequestID returns a context whose logger carries the request_id field.
// Used by entry points that do not pass through the HTTP middleware (CLI, watcher).
func WithRequestID(ctx context.Context, base *zap.Logger, requestID string) context.Context {
	return ContextWithLogger(ctx, base.With(zap.String("request_id", requestID)))
}
