package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger returns a context carrying the given logger. Request middleware
// uses it to thread per-request fields down to handlers and services.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx returns the logger carried by the context, falling back to the global
// one. Pointer so call sites can chain level methods directly.
func Ctx(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return &l
	}
	return L()
}
