package product

import (
	"context"

	"github.com/shopspring/decimal"
)

const DefaultListLimit = 50

// ListFilter narrows a catalog listing. Every set field is ANDed.
type ListFilter struct {
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	MinStock *int
	Limit    int
	Offset   int
}

// Normalized applies the default page size and clamps a negative offset.
func (f ListFilter) Normalized() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Matches reports whether p passes every filter predicate (paging excluded).
func (f ListFilter) Matches(p *Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.MinStock != nil && p.Stock < *f.MinStock {
		return false
	}
	return true
}

type Repository interface {
	Insert(ctx context.Context, p *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
	// DecrementStock subtracts quantity only while stock >= quantity and
	// reports whether the decrement was applied.
	DecrementStock(ctx context.Context, id string, quantity int) (bool, error)
}
