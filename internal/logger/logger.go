package logger

import (
	"context"
	"log/slog"
	"os"
)

// New builds the JSON logger every binary in this module installs as the
// slog default.
func New(level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: level,
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

type ctxKey struct{}

// WithContext attaches l to ctx so request-scoped attributes travel with it.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger attached by WithContext, or the process
// default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}
