package logctx_test

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability/logctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDeriveAttachesNarrowedLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zaplogger.Wrap(zap.New(core))

	ctx, scoped := logctx.Derive(context.Background(), base, observability.F("request_id", "r-1"))
	scoped.Info("direct")
	logctx.FromOr(ctx, observability.NopLogger()).Info("from_context")

	entries := logs.All()
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "r-1", e.ContextMap()["request_id"])
	}
}

func TestDeriveWithoutBaseDiscards(t *testing.T) {
	ctx, scoped := logctx.Derive(context.Background(), nil)
	require.NotNil(t, scoped)
	assert.NotNil(t, logctx.From(ctx))
}

func TestFromOrFallsBackOutsideEntryPoints(t *testing.T) {
	assert.Nil(t, logctx.From(context.Background()))
	fallback := observability.NopLogger()
	assert.Equal(t, fallback, logctx.FromOr(context.Background(), fallback))
	assert.Equal(t, context.Background(), logctx.With(context.Background(), nil))
}
