package inventory

import (
	"context"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
)

// Stock is the slice of product persistence the ledger needs.
type Stock interface {
	Get(ctx context.Context, productID string) (*product.Product, error)
	DecrementStock(ctx context.Context, productID string, quantity int) (bool, error)
}
