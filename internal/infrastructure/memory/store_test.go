package memory_test

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/storetest"
	"github.com/stretchr/testify/assert"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) application.Transactor {
		return memory.NewStore()
	})
}

func TestStore_CanceledContext(t *testing.T) {
	s := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithinTx(ctx, func(context.Context, application.Stores) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
