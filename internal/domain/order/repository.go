package order

import (
	"context"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
)

const DefaultListLimit = 50

// ListFilter selects orders; set fields are ANDed, results are newest first.
type ListFilter struct {
	UserID        string
	Status        Status
	PaymentMethod payment.Method
	Limit         int
	Offset        int
}

func (f ListFilter) Normalized() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

func (f ListFilter) Matches(o *Order) bool {
	if f.UserID != "" && o.UserID != f.UserID {
		return false
	}
	if f.Status != "" && o.Status != f.Status {
		return false
	}
	if f.PaymentMethod != "" && o.PaymentMethod != f.PaymentMethod {
		return false
	}
	return true
}

type Repository interface {
	// Insert persists the order together with its lines.
	Insert(ctx context.Context, order *Order) error
	// Get returns the order with lines and their products loaded.
	Get(ctx context.Context, id string) (*Order, error)
	// Update persists status, transaction id and timestamps.
	Update(ctx context.Context, order *Order) error
	List(ctx context.Context, filter ListFilter) ([]*Order, error)
}
