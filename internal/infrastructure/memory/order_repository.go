package memory

import (
	"context"
	"fmt"
	"sort"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
)

type OrderRepository struct {
	data *state
}

func (r *OrderRepository) Insert(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	if _, exists := r.data.orders[order.ID]; exists {
		return domain.ErrConflict
	}
	for _, l := range order.Lines {
		if _, ok := r.data.products[l.ProductID]; !ok {
			return fmt.Errorf("order repository: line %s references unknown product %s", l.ID, l.ProductID)
		}
	}

	stored := order.Clone()
	for i := range stored.Lines {
		stored.Lines[i].Product = nil
	}
	r.data.orders[order.ID] = orderRecord{seq: r.data.nextSeq(), o: stored}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	_ = ctx
	rec, ok := r.data.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.load(rec.o), nil
}

func (r *OrderRepository) Update(ctx context.Context, order *domain.Order) error {
	_ = ctx
	if order == nil || order.ID == "" {
		return fmt.Errorf("order repository: id is required")
	}
	rec, exists := r.data.orders[order.ID]
	if !exists {
		return domain.ErrNotFound
	}
	rec.o.Status = order.Status
	rec.o.TransactionID = order.TransactionID
	rec.o.UpdatedAt = order.UpdatedAt
	return nil
}

// List returns matches newest first.
func (r *OrderRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Order, error) {
	_ = ctx
	filter = filter.Normalized()

	recs := make([]orderRecord, 0, len(r.data.orders))
	for _, rec := range r.data.orders {
		if filter.Matches(rec.o) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq > recs[j].seq })

	out := make([]*domain.Order, 0, filter.Limit)
	for i := filter.Offset; i < len(recs) && len(out) < filter.Limit; i++ {
		out = append(out, r.load(recs[i].o))
	}
	return out, nil
}

// load clones the order and attaches each line's current product.
func (r *OrderRepository) load(o *domain.Order) *domain.Order {
	clone := o.Clone()
	for i := range clone.Lines {
		if rec, ok := r.data.products[clone.Lines[i].ProductID]; ok {
			clone.Lines[i].Product = rec.p.Clone()
		}
	}
	return clone
}
