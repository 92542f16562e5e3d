// Package appctx carries request-scoped values through a context.Context.
// Handlers pull their logger from here so every log line inherits the
// request id and client attributes attached by the middleware chain.
package appctx

import (
	"context"
	"log/slog"
)

type ctxKey int

const loggerCtxKey ctxKey = iota

// WithLogger returns a child context carrying l.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerCtxKey, l)
}

// GetLogger returns the logger carried by ctx, falling back to
// slog.Default so call sites never nil-check.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerCtxKey).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
