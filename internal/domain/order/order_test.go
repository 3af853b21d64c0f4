package order_test

import (
	"testing"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustProduct(t *testing.T, id, price string, stock int) *product.Product {
	t.Helper()
	p, err := product.New(id, "Item "+id, "", decimal.RequireFromString(price), stock, "misc", "")
	require.NoError(t, err)
	return p
}

func TestNew_TotalIsSumOfSubtotals(t *testing.T) {
	a := mustProduct(t, "a", "10.10", 5)
	b := mustProduct(t, "b", "0.335", 5)

	la, err := order.NewLine("l1", a, 3)
	require.NoError(t, err)
	lb, err := order.NewLine("l2", b, 3)
	require.NoError(t, err)

	o, err := order.New("o1", "u1", payment.MethodPix, []order.Line{la, lb})
	require.NoError(t, err)

	assert.Equal(t, "30.30", la.Subtotal.StringFixed(2))
	// 0.335 rounds to 0.34 at creation, 3 x 0.34 = 1.02
	assert.Equal(t, "1.02", lb.Subtotal.StringFixed(2))
	assert.Equal(t, "31.32", o.TotalAmount.StringFixed(2))
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Empty(t, o.TransactionID)
}

func TestNew_Rejections(t *testing.T) {
	p := mustProduct(t, "a", "1.00", 1)
	line, err := order.NewLine("l1", p, 1)
	require.NoError(t, err)

	_, err = order.New("o1", " ", payment.MethodPix, []order.Line{line})
	assert.ErrorIs(t, err, order.ErrUserRequired)

	_, err = order.New("o1", "u1", payment.MethodPix, nil)
	assert.ErrorIs(t, err, order.ErrNoLines)

	_, err = order.NewLine("l2", p, 0)
	assert.ErrorIs(t, err, order.ErrInvalidQuantity)
}

func TestPaymentSucceeded_PendingToPaidOnce(t *testing.T) {
	p := mustProduct(t, "a", "5.00", 1)
	line, _ := order.NewLine("l1", p, 1)
	o, err := order.New("o1", "u1", payment.MethodCreditCard, []order.Line{line})
	require.NoError(t, err)

	require.True(t, o.CanProcessPayment())
	require.ErrorIs(t, o.PaymentSucceeded(""), order.ErrTransactionIDRequired)
	require.Equal(t, order.StatusPending, o.Status)

	require.NoError(t, o.PaymentSucceeded("CC-1"))
	assert.Equal(t, order.StatusPaid, o.Status)
	assert.Equal(t, "CC-1", o.TransactionID)
	assert.False(t, o.CanProcessPayment())

	assert.ErrorIs(t, o.PaymentSucceeded("CC-2"), order.ErrInvalidStateTransition)
	assert.ErrorIs(t, o.PaymentDeclined("late"), order.ErrInvalidStateTransition)
	assert.Equal(t, "CC-1", o.TransactionID)
}

func TestPaymentDeclined_StaysPending(t *testing.T) {
	p := mustProduct(t, "a", "5.00", 1)
	line, _ := order.NewLine("l1", p, 1)
	o, _ := order.New("o1", "u1", payment.MethodPix, []order.Line{line})

	require.NoError(t, o.PaymentDeclined("no funds"))
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Empty(t, o.TransactionID)
}

func TestFulfillmentStatesRejectPayment(t *testing.T) {
	for _, st := range []order.Status{order.StatusProcessing, order.StatusShipped, order.StatusDelivered, order.StatusCancelled} {
		o := &order.Order{ID: "o", Status: st}
		assert.ErrorIs(t, o.PaymentSucceeded("X"), order.ErrInvalidStateTransition, st)
		assert.Equal(t, st, o.Status)
	}
}

func TestParseStatus(t *testing.T) {
	st, ok := order.ParseStatus(" PAID ")
	require.True(t, ok)
	assert.Equal(t, order.StatusPaid, st)

	_, ok = order.ParseStatus("refunded")
	assert.False(t, ok)
}

func TestClone_IsDeep(t *testing.T) {
	p := mustProduct(t, "a", "5.00", 1)
	line, _ := order.NewLine("l1", p, 1)
	o, _ := order.New("o1", "u1", payment.MethodPix, []order.Line{line})

	c := o.Clone()
	c.Lines[0].Quantity = 9
	c.Lines[0].Product.Name = "changed"
	assert.Equal(t, 1, o.Lines[0].Quantity)
	assert.Equal(t, "Item a", o.Lines[0].Product.Name)
}
