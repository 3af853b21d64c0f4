// Package logctx carries the request or event scoped logger through a
// context so use cases log with the fields their entry point attached.
package logctx

import (
	"context"

	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
)

type ctxKey int

const scopedLogger ctxKey = iota

// With attaches logger to ctx. A nil logger leaves ctx untouched.
func With(ctx context.Context, logger observability.Logger) context.Context {
	if ctx == nil || logger == nil {
		return ctx
	}
	return context.WithValue(ctx, scopedLogger, logger)
}

// Derive narrows base by fields and attaches the result to ctx. Entry
// points (HTTP requests, bus deliveries) call it once per unit of work.
func Derive(ctx context.Context, base observability.Logger, fields ...observability.Field) (context.Context, observability.Logger) {
	if base == nil {
		base = observability.NopLogger()
	}
	scoped := base
	if len(fields) > 0 {
		scoped = base.With(fields...)
	}
	return With(ctx, scoped), scoped
}

func From(ctx context.Context) observability.Logger {
	if ctx == nil {
		return nil
	}
	l, _ := ctx.Value(scopedLogger).(observability.Logger)
	return l
}

// FromOr is From with a fallback for contexts that never passed an entry point.
func FromOr(ctx context.Context, fallback observability.Logger) observability.Logger {
	if l := From(ctx); l != nil {
		return l
	}
	return fallback
}
