package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
)

// Store keeps every aggregate in process memory. A single mutex is held for
// the whole of a transaction, so transactions are serialized; a failed one
// restores the snapshot taken when it began.
type Store struct {
	mu   sync.Mutex
	data *state
}

var _ application.Transactor = (*Store)(nil)

type state struct {
	seq      uint64
	products map[string]productRecord
	orders   map[string]orderRecord
	carts    map[string]*cart.Cart
}

type productRecord struct {
	seq uint64
	p   *product.Product
}

type orderRecord struct {
	seq uint64
	o   *order.Order
}

func NewStore() *Store {
	return &Store{data: &state{
		products: make(map[string]productRecord),
		orders:   make(map[string]orderRecord),
		carts:    make(map[string]*cart.Cart),
	}}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, st application.Stores) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	defer func() {
		if r := recover(); r != nil {
			s.data = snapshot
			panic(r)
		}
		if err != nil {
			s.data = snapshot
		}
	}()

	if err = fn(ctx, stores{data: s.data}); err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return fmt.Errorf("memory: commit: %w", err)
	}
	return nil
}

func (st *state) nextSeq() uint64 {
	st.seq++
	return st.seq
}

func (st *state) clone() *state {
	out := &state{
		seq:      st.seq,
		products: make(map[string]productRecord, len(st.products)),
		orders:   make(map[string]orderRecord, len(st.orders)),
		carts:    make(map[string]*cart.Cart, len(st.carts)),
	}
	for k, v := range st.products {
		out.products[k] = productRecord{seq: v.seq, p: v.p.Clone()}
	}
	for k, v := range st.orders {
		out.orders[k] = orderRecord{seq: v.seq, o: v.o.Clone()}
	}
	for k, v := range st.carts {
		out.carts[k] = v.Clone()
	}
	return out
}

type stores struct{ data *state }

func (s stores) Products() product.Repository { return &ProductRepository{data: s.data} }
func (s stores) Orders() order.Repository     { return &OrderRepository{data: s.data} }
func (s stores) Carts() cart.Repository       { return &CartRepository{data: s.data} }
