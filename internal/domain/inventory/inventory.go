package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
)

var (
	ErrInvalidQuantity   = errors.New("inventory: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
)

// InsufficientStockError names the product that could not cover a request.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("inventory: product %q does not have enough stock (requested %d, available %d)",
		name, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NewInsufficientStock builds the error from the product as last read.
func NewInsufficientStock(p *product.Product, requested int) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID:   p.ID,
		ProductName: p.Name,
		Requested:   requested,
		Available:   p.Stock,
	}
}

// Ledger is the only writer of product stock. Implementations must run
// against the same transaction handle as the order lines they back.
type Ledger interface {
	CheckAvailability(ctx context.Context, productID string, quantity int) (bool, error)
	Decrement(ctx context.Context, productID string, quantity int) error
}
