package cart_test

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProduct(t *testing.T, id, price string, stock int) *product.Product {
	t.Helper()
	p, err := product.New(id, "P"+id, "", decimal.RequireFromString(price), stock, "misc", "")
	require.NoError(t, err)
	return p
}

func TestNew_RequiresExactlyOneOwner(t *testing.T) {
	_, err := cart.New("c", "", "")
	assert.ErrorIs(t, err, cart.ErrOwnerRequired)
	_, err = cart.New("c", "u", "s")
	assert.ErrorIs(t, err, cart.ErrOwnerRequired)

	c, err := cart.New("c", "u", "")
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
	assert.True(t, c.TotalAmount.IsZero())
}

func TestAddItem_MergesSameProduct(t *testing.T) {
	c, _ := cart.New("c", "u", "")
	p := newProduct(t, "p1", "10.00", 10)

	first, err := c.AddItem("i1", p, 2)
	require.NoError(t, err)
	second, err := c.AddItem("i2", p, 3)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.Equal(t, "50.00", c.TotalAmount.StringFixed(2))
}

func TestAddItem_KeepsPriceSnapshot(t *testing.T) {
	c, _ := cart.New("c", "u", "")
	p := newProduct(t, "p1", "10.00", 10)
	_, err := c.AddItem("i1", p, 1)
	require.NoError(t, err)

	p.Price = decimal.RequireFromString("99.00")
	_, err = c.AddItem("i2", p, 1)
	require.NoError(t, err)

	assert.Equal(t, "10.00", c.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "20.00", c.TotalAmount.StringFixed(2))
}

func TestAddItem_StockAndQuantityChecks(t *testing.T) {
	c, _ := cart.New("c", "", "sess")
	p := newProduct(t, "p1", "1.00", 3)

	_, err := c.AddItem("i1", p, 0)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)

	_, err = c.AddItem("i1", p, 4)
	var ise *inventory.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 4, ise.Requested)
	assert.Equal(t, 3, ise.Available)

	_, err = c.AddItem("i1", p, 2)
	require.NoError(t, err)
	_, err = c.AddItem("i2", p, 2)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
	assert.Equal(t, 2, c.Items[0].Quantity)
}

func TestUpdateRemoveClear(t *testing.T) {
	c, _ := cart.New("c", "u", "")
	a := newProduct(t, "a", "2.50", 10)
	b := newProduct(t, "b", "1.25", 10)
	ia, _ := c.AddItem("ia", a, 1)
	_, _ = c.AddItem("ib", b, 2)

	_, err := c.UpdateItemQuantity(ia.ID, a, 4)
	require.NoError(t, err)
	assert.Equal(t, "12.50", c.TotalAmount.StringFixed(2))

	_, err = c.UpdateItemQuantity("missing", a, 1)
	assert.ErrorIs(t, err, cart.ErrItemNotFound)

	require.NoError(t, c.RemoveItem(ia.ID))
	assert.Equal(t, "2.50", c.TotalAmount.StringFixed(2))
	assert.ErrorIs(t, c.RemoveItem(ia.ID), cart.ErrItemNotFound)

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, c.TotalAmount.IsZero())
}
