package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
)

// ProductRepository is only reachable inside Store.WithinTx, which holds
// the store lock.
type ProductRepository struct {
	data *state
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return fmt.Errorf("product repository: id is required")
	}
	if _, exists := r.data.products[p.ID]; exists {
		return fmt.Errorf("product repository: %s already exists", p.ID)
	}
	r.data.products[p.ID] = productRecord{seq: r.data.nextSeq(), p: p.Clone()}
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx
	rec, ok := r.data.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rec.p.Clone(), nil
}

func (r *ProductRepository) List(ctx context.Context, filter domain.ListFilter) ([]*domain.Product, error) {
	_ = ctx
	filter = filter.Normalized()

	recs := make([]productRecord, 0, len(r.data.products))
	for _, rec := range r.data.products {
		if filter.Matches(rec.p) {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })

	out := make([]*domain.Product, 0, filter.Limit)
	for i := filter.Offset; i < len(recs) && len(out) < filter.Limit; i++ {
		out = append(out, recs[i].p.Clone())
	}
	return out, nil
}

func (r *ProductRepository) DecrementStock(ctx context.Context, id string, quantity int) (bool, error) {
	_ = ctx
	rec, ok := r.data.products[id]
	if !ok || rec.p.Stock < quantity {
		return false, nil
	}
	rec.p.Stock -= quantity
	rec.p.UpdatedAt = time.Now().UTC()
	return true, nil
}
