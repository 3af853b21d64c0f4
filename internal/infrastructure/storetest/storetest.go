// Package storetest is a behaviour suite every application.Transactor
// backend must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	appinventory "github.com/Zhima-Mochi/minishop-commerce/internal/application/inventory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	dominv "github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty, ready-to-use store.
type Factory func(t *testing.T) application.Transactor

var errAbort = errors.New("abort")

// Run executes the whole suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("ProductRoundTrip", func(t *testing.T) { testProductRoundTrip(t, newStore(t)) })
	t.Run("ProductListFilters", func(t *testing.T) { testProductListFilters(t, newStore(t)) })
	t.Run("RollbackOnError", func(t *testing.T) { testRollbackOnError(t, newStore(t)) })
	t.Run("RollbackOnPanic", func(t *testing.T) { testRollbackOnPanic(t, newStore(t)) })
	t.Run("ConditionalDecrement", func(t *testing.T) { testConditionalDecrement(t, newStore(t)) })
	t.Run("OrderLifecycle", func(t *testing.T) { testOrderLifecycle(t, newStore(t)) })
	t.Run("OrderListNewestFirst", func(t *testing.T) { testOrderListNewestFirst(t, newStore(t)) })
	t.Run("CartSaveReplacesItems", func(t *testing.T) { testCartSave(t, newStore(t)) })
	t.Run("ConcurrentCheckoutNeverOversells", func(t *testing.T) { testConcurrentDecrement(t, newStore(t)) })
}

func mustProduct(t *testing.T, id, price string, stock int, category string) *product.Product {
	t.Helper()
	p, err := product.New(id, "Product "+id, "desc "+id, decimal.RequireFromString(price), stock, category, "https://img/"+id)
	require.NoError(t, err)
	return p
}

func insertProducts(t *testing.T, s application.Transactor, ps ...*product.Product) {
	t.Helper()
	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, st application.Stores) error {
		for _, p := range ps {
			if err := st.Products().Insert(ctx, p); err != nil {
				return err
			}
		}
		return nil
	}))
}

func getProduct(t *testing.T, s application.Transactor, id string) *product.Product {
	t.Helper()
	var out *product.Product
	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, st application.Stores) error {
		var err error
		out, err = st.Products().Get(ctx, id)
		return err
	}))
	return out
}

func newOrder(t *testing.T, id, user string, p *product.Product, qty int) *order.Order {
	t.Helper()
	line, err := order.NewLine(id+"-l1", p, qty)
	require.NoError(t, err)
	o, err := order.New(id, user, payment.MethodPix, []order.Line{line})
	require.NoError(t, err)
	return o
}

func testProductRoundTrip(t *testing.T, s application.Transactor) {
	p := mustProduct(t, "p1", "1234.56", 7, "electronics")
	insertProducts(t, s, p)

	got := getProduct(t, s, "p1")
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Description, got.Description)
	assert.True(t, p.Price.Equal(got.Price), got.Price.String())
	assert.Equal(t, 7, got.Stock)
	assert.Equal(t, "https://img/p1", got.ImageURL)
	assert.WithinDuration(t, p.CreatedAt, got.CreatedAt, time.Microsecond)

	err := s.WithinTx(context.Background(), func(ctx context.Context, st application.Stores) error {
		_, err := st.Products().Get(ctx, "missing")
		return err
	})
	assert.ErrorIs(t, err, product.ErrNotFound)
}

func testProductListFilters(t *testing.T, s application.Transactor) {
	insertProducts(t, s,
		mustProduct(t, "a", "10.00", 0, "books"),
		mustProduct(t, "b", "99.90", 3, "books"),
		mustProduct(t, "c", "100.00", 9, "games"),
	)
	list := func(f product.ListFilter) []string {
		var ids []string
		require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, st application.Stores) error {
			ps, err := st.Products().List(ctx, f)
			for _, p := range ps {
				ids = append(ids, p.ID)
			}
			return err
		}))
		return ids
	}
	min := decimal.RequireFromString("50")
	max := decimal.RequireFromString("99.90")
	one := 1

	assert.Equal(t, []string{"a", "b", "c"}, list(product.ListFilter{}))
	assert.Equal(t, []string{"a", "b"}, list(product.ListFilter{Category: "books"}))
	assert.Equal(t, []string{"b"}, list(product.ListFilter{MinPrice: &min, MaxPrice: &max}))
	assert.Equal(t, []string{"b", "c"}, list(product.ListFilter{MinStock: &one}))
	assert.Equal(t, []string{"b"}, list(product.ListFilter{Limit: 1, Offset: 1}))
}

func testRollbackOnError(t *testing.T, s application.Transactor) {
	insertProducts(t, s, mustProduct(t, "p1", "5.00", 5, "misc"))

	err := s.WithinTx(context.Background(), func(ctx context.Context, st application.Stores) error {
		p, err := st.Products().Get(ctx, "p1")
		if err != nil {
			return err
		}
		if err := st.Orders().Insert(ctx, newOrder(t, "o1", "u1", p, 2)); err != nil {
			return err
		}
		if _, err := st.Products().DecrementStock(ctx, "p1", 2); err != nil {
			return err
		}
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	assert.Equal(t, 5, getProduct(t, s, "p1").Stock)
	err = s.WithinTx(context.Background(), func(ctx context.Context, st application.Stores) error {
		_, err := st.Orders().Get(ctx, "o1")
		return err
	})
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func testRollbackOnPanic(t *testing.T, s application.Transactor) {
	insertProducts(t, s, mustProduct(t, "p1", "5.00", 5, "misc"))

	assert.Panics(t, func() {
		_ = s.WithinTx(context.Background(), func(ctx context.Context, st application.Stores) error {
			if _, err := st.Products().DecrementStock(ctx, "p1", 5); err != nil {
				return err
			}
			panic("boom")
		})
	})
	assert.Equal(t, 5, getProduct(t, s, "p1").Stock)
}

func testConditionalDecrement(t *testing.T, s application.Transactor) {
	insertProducts(t, s, mustProduct(t, "p1", "5.00", 3, "misc"))

	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, st application.Stores) error {
		ok, err := st.Products().DecrementStock(ctx, "p1", 3)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = st.Products().DecrementStock(ctx, "p1", 1)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = st.Products().DecrementStock(ctx, "ghost", 1)
		require.NoError(t, err)
		assert.False(t, ok)
		return nil
	}))
	assert.Equal(t, 0, getProduct(t, s, "p1").Stock)
}

func testOrderLifecycle(t *testing.T, s application.Transactor) {
	p := mustProduct(t, "p1", "19.99", 10, "misc")
	insertProducts(t, s, p)
	o := newOrder(t, "o1", "u1", p, 3)
	ctx := context.Background()

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, st application.Stores) error {
		return st.Orders().Insert(ctx, o)
	}))
	err := s.WithinTx(ctx, func(ctx context.Context, st application.Stores) error {
		return st.Orders().Insert(ctx, o)
	})
	assert.ErrorIs(t, err, order.ErrConflict)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, st application.Stores) error {
		got, err := st.Orders().Get(ctx, "o1")
		if err != nil {
			return err
		}
		assert.Equal(t, order.StatusPending, got.Status)
		assert.Empty(t, got.TransactionID)
		assert.Equal(t, "59.97", got.TotalAmount.StringFixed(2))
		require.Len(t, got.Lines, 1)
		assert.Equal(t, 3, got.Lines[0].Quantity)
		require.NotNil(t, got.Lines[0].Product)
		assert.Equal(t, "Product p1", got.Lines[0].Product.Name)

		if err := got.PaymentSucceeded("PIX-1"); err != nil {
			return err
		}
		return st.Orders().Update(ctx, got)
	}))

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, st application.Stores) error {
		got, err := st.Orders().Get(ctx, "o1")
		if err != nil {
			return err
		}
		assert.Equal(t, order.StatusPaid, got.Status)
		assert.Equal(t, "PIX-1", got.TransactionID)
		return nil
	}))

	err = s.WithinTx(ctx, func(ctx context.Context, st application.Stores) error {
		return st.Orders().Update(ctx, &order.Order{ID: "ghost", Status: order.StatusPaid})
	})
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func testOrderListNewestFirst(t *testing.T, s application.Transactor) {
	p := mustProduct(t, "p1", "1.00", 100, "misc")
	insertProducts(t, s, p)
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		user := "u1"
		if i%2 == 0 {
			user = "u2"
		}
		o := newOrder(t, fmt.Sprintf("o%d", i), user, p, 1)
		require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, st application.Stores) error {
			return st.Orders().Insert(ctx, o)
		}))
	}

	ids := func(f order.ListFilter) []string {
		var out []string
		require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, st application.Stores) error {
			os, err := st.Orders().List(ctx, f)
			for _, o := range os {
				out = append(out, o.ID)
			}
			return err
		}))
		return out
	}
	assert.Equal(t, []string{"o4", "o3", "o2", "o1"}, ids(order.ListFilter{}))
	assert.Equal(t, []string{"o3", "o1"}, ids(order.ListFilter{UserID: "u1"}))
	assert.Equal(t, []string{"o3"}, ids(order.ListFilter{Limit: 1, Offset: 1}))
	assert.Empty(t, ids(order.ListFilter{Status: order.StatusPaid}))
}

func testCartSave(t *testing.T, s application.Transactor) {
	a := mustProduct(t, "a", "2.00", 10, "misc")
	b := mustProduct(t, "b", "3.00", 10, "misc")
	insertProducts(t, s, a, b)
	ctx := context.Background()

	c, err := cart.New("c1", "", "sess")
	require.NoError(t, err)
	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, st application.Stores) error {
		return st.Carts().Insert(ctx, c)
	}))

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, st application.Stores) error {
		got, err := st.Carts().FindBySession(ctx, "sess")
		if err != nil {
			return err
		}
		if _, err := got.AddItem("i1", a, 2); err != nil {
			return err
		}
		if _, err := got.AddItem("i2", b, 1); err != nil {
			return err
		}
		return st.Carts().Save(ctx, got)
	}))

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, st application.Stores) error {
		got, err := st.Carts().Get(ctx, "c1")
		if err != nil {
			return err
		}
		require.Len(t, got.Items, 2)
		assert.Equal(t, "a", got.Items[0].ProductID)
		require.NotNil(t, got.Items[0].Product)
		assert.Equal(t, "7.00", got.TotalAmount.StringFixed(2))

		require.NoError(t, got.RemoveItem("i1"))
		return st.Carts().Save(ctx, got)
	}))

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, st application.Stores) error {
		got, err := st.Carts().Get(ctx, "c1")
		if err != nil {
			return err
		}
		require.Len(t, got.Items, 1)
		assert.Equal(t, "3.00", got.TotalAmount.StringFixed(2))

		_, err = st.Carts().FindByUser(ctx, "nobody")
		assert.ErrorIs(t, err, cart.ErrNotFound)
		return nil
	}))
}

// testConcurrentDecrement runs the read-check-decrement sequence of order
// creation from many goroutines at once.
func testConcurrentDecrement(t *testing.T, s application.Transactor) {
	const (
		stock   = 7
		buyers  = 20
		perUnit = 1
	)
	insertProducts(t, s, mustProduct(t, "p1", "1.00", stock, "misc"))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.WithinTx(context.Background(), func(ctx context.Context, st application.Stores) error {
				ledger := appinventory.NewLedger(st.Products())
				ok, err := ledger.CheckAvailability(ctx, "p1", perUnit)
				if err != nil {
					return err
				}
				if !ok {
					return dominv.ErrInsufficientStock
				}
				p, err := st.Products().Get(ctx, "p1")
				if err != nil {
					return err
				}
				if err := st.Orders().Insert(ctx, newOrder(t, fmt.Sprintf("o%02d", i), "u", p, perUnit)); err != nil {
					return err
				}
				return ledger.Decrement(ctx, "p1", perUnit)
			})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, dominv.ErrInsufficientStock)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, stock, accepted)
	assert.Equal(t, 0, getProduct(t, s, "p1").Stock)

	var orders []*order.Order
	require.NoError(t, s.WithinTx(context.Background(), func(ctx context.Context, st application.Stores) error {
		var err error
		orders, err = st.Orders().List(ctx, order.ListFilter{Limit: 100})
		return err
	}))
	assert.Len(t, orders, stock)
}
