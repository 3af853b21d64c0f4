package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

type IDGenerator interface {
	NewID() string
}

// Stores is the set of repositories bound to one transaction.
type Stores interface {
	Products() product.Repository
	Orders() order.Repository
	Carts() cart.Repository
}

// Transactor runs fn inside a single atomic, isolated unit. Every write made
// through the supplied Stores is rolled back when fn returns an error or
// panics; nothing is visible to other callers before fn returns nil.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, s Stores) error) error
}

var (
	ErrValidation = errors.New("validation")
	ErrRepository = errors.New("repository failure")
)

// NewValidation builds an input error that reads "validation: <msg>".
func NewValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
