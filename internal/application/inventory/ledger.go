package inventory

import (
	"context"
	"errors"
	"fmt"

	dominv "github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
)

// Ledger checks and decrements stock through the Stock it was built on,
// which is always the product repository of the current transaction.
type Ledger struct {
	stock dominv.Stock
}

var _ dominv.Ledger = (*Ledger)(nil)

func NewLedger(stock dominv.Stock) *Ledger {
	return &Ledger{stock: stock}
}

func (l *Ledger) CheckAvailability(ctx context.Context, productID string, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, dominv.ErrInvalidQuantity
	}
	p, err := l.stock.Get(ctx, productID)
	if err != nil {
		return false, err
	}
	return p.IsAvailable(quantity), nil
}

// Decrement never trusts an earlier read: the store applies the decrement
// only while stock still covers quantity.
func (l *Ledger) Decrement(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return dominv.ErrInvalidQuantity
	}
	applied, err := l.stock.DecrementStock(ctx, productID, quantity)
	if err != nil {
		return fmt.Errorf("inventory: decrement %s: %w", productID, err)
	}
	if applied {
		return nil
	}

	p, err := l.stock.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return err
		}
		return fmt.Errorf("inventory: reload %s: %w", productID, err)
	}
	return dominv.NewInsufficientStock(p, quantity)
}
