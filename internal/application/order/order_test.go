package order_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	appcart "github.com/Zhima-Mochi/minishop-commerce/internal/application/cart"
	"github.com/Zhima-Mochi/minishop-commerce/internal/application/order"
	"github.com/Zhima-Mochi/minishop-commerce/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	dominv "github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	domnotif "github.com/Zhima-Mochi/minishop-commerce/internal/domain/notification"
	domorder "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/id"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability/testkit"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

type sentMessage struct {
	channel   domnotif.Channel
	recipient string
	message   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, ch domnotif.Channel, recipient, message string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	f.sent = append(f.sent, sentMessage{ch, recipient, message})
	return true, nil
}

type fixture struct {
	store    *memory.Store
	rec      *testkit.Recorder
	notifier *fakeNotifier
	place    *order.PlaceOrderUseCase
	carts    *appcart.Service
}

func newFixture(t *testing.T, enabled ...dompay.Method) *fixture {
	t.Helper()
	f := &fixture{
		store:    memory.NewStore(),
		rec:      testkit.New(),
		notifier: &fakeNotifier{},
	}
	ids := id.NewUUID()
	resolver := payment.NewResolver(enabled, payment.CreditCard{}, payment.Pix{}, payment.NewBoleto(nil))
	payments := payment.NewProcessPaymentUseCase(resolver, time.Second, f.rec.Tel)
	creator := order.NewCreateOrderUseCase(f.store, ids, f.rec.Tel)
	f.place = order.NewPlaceOrderUseCase(creator, payments, f.store, f.notifier, "", f.rec.Tel)
	f.carts = appcart.NewService(f.store, ids, f.rec.Tel)
	return f
}

func (f *fixture) addProduct(t *testing.T, id, price string, stock int) {
	t.Helper()
	p, err := product.New(id, "Product "+id, "", decimal.RequireFromString(price), stock, "misc", "")
	require.NoError(t, err)
	require.NoError(t, f.store.WithinTx(context.Background(), func(ctx context.Context, s application.Stores) error {
		return s.Products().Insert(ctx, p)
	}))
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	var n int
	require.NoError(t, f.store.WithinTx(context.Background(), func(ctx context.Context, s application.Stores) error {
		p, err := s.Products().Get(ctx, id)
		if err != nil {
			return err
		}
		n = p.Stock
		return nil
	}))
	return n
}

func (f *fixture) orders(t *testing.T) []*domorder.Order {
	t.Helper()
	var out []*domorder.Order
	require.NoError(t, f.store.WithinTx(context.Background(), func(ctx context.Context, s application.Stores) error {
		var err error
		out, err = s.Orders().List(ctx, domorder.ListFilter{}.Normalized())
		return err
	}))
	return out
}

func TestPlaceOrder_PixApproved(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p1", "100.00", 10)

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{
		UserID:        "u1",
		Lines:         []order.LineRequest{{ProductID: "p1", Quantity: 2}},
		PaymentMethod: "pix",
		PaymentData:   map[string]string{"pix_key": "u1@pix"},
	})
	require.NoError(t, err)

	assert.True(t, res.Payment.Success)
	assert.Equal(t, domorder.StatusPaid, res.Order.Status)
	assert.True(t, strings.HasPrefix(res.Order.TransactionID, "PIX-"))
	assert.Equal(t, res.Payment.TransactionID, res.Order.TransactionID)
	assert.Equal(t, "200.00", res.Order.TotalAmount.StringFixed(2))
	require.Len(t, res.Order.Lines, 1)
	require.NotNil(t, res.Order.Lines[0].Product)
	assert.Equal(t, 8, f.stock(t, "p1"))

	require.Len(t, f.notifier.sent, 1)
	sent := f.notifier.sent[0]
	assert.Equal(t, domnotif.ChannelEmail, sent.channel)
	assert.Equal(t, order.DefaultRecipient, sent.recipient)
	assert.Equal(t, "Your order #"+res.Order.ID+" has been confirmed! Total: R$ 200,00", sent.message)

	assert.Contains(t, f.rec.SpanNames(), "UC.PlaceOrder")
	assert.Contains(t, f.rec.SpanNames(), "UC.CreateOrder")
}

func TestPlaceOrder_PixDeclinedLeavesPendingOrder(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p1", "100.00", 10)

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{
		UserID:        "u1",
		Lines:         []order.LineRequest{{ProductID: "p1", Quantity: 1}},
		PaymentMethod: "pix",
	})
	require.NoError(t, err)

	assert.False(t, res.Payment.Success)
	assert.Equal(t, domorder.StatusPending, res.Order.Status)
	assert.Empty(t, res.Order.TransactionID)
	assert.Equal(t, 9, f.stock(t, "p1"))
	assert.Empty(t, f.notifier.sent)

	stored := f.orders(t)
	require.Len(t, stored, 1)
	assert.Equal(t, domorder.StatusPending, stored[0].Status)
}

func TestPlaceOrder_InsufficientStockWritesNothing(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p1", "10.00", 5)

	_, err := f.place.Execute(context.Background(), order.PlaceOrderInput{
		UserID:        "u1",
		Lines:         []order.LineRequest{{ProductID: "p1", Quantity: 10}},
		PaymentMethod: "pix",
		PaymentData:   map[string]string{"pix_key": "k"},
	})
	require.ErrorIs(t, err, dominv.ErrInsufficientStock)

	var ise *dominv.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "Product p1", ise.ProductName)

	assert.Empty(t, f.orders(t))
	assert.Equal(t, 5, f.stock(t, "p1"))
}

func TestPlaceOrder_PartialLineFailureRollsBackEarlierLines(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "a", "1.00", 5)
	f.addProduct(t, "b", "1.00", 1)

	_, err := f.place.Execute(context.Background(), order.PlaceOrderInput{
		UserID: "u1",
		Lines: []order.LineRequest{
			{ProductID: "a", Quantity: 2},
			{ProductID: "b", Quantity: 2},
		},
		PaymentMethod: "boleto",
	})
	require.ErrorIs(t, err, dominv.ErrInsufficientStock)
	assert.Equal(t, 5, f.stock(t, "a"))
	assert.Equal(t, 1, f.stock(t, "b"))
	assert.Empty(t, f.orders(t))
}

func TestPlaceOrder_UnknownMethodRejectedBeforeCreation(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p1", "10.00", 5)

	_, err := f.place.Execute(context.Background(), order.PlaceOrderInput{
		UserID:        "u1",
		Lines:         []order.LineRequest{{ProductID: "p1", Quantity: 1}},
		PaymentMethod: "crypto",
	})
	require.ErrorIs(t, err, dompay.ErrUnsupportedMethod)
	assert.Empty(t, f.orders(t))
	assert.Equal(t, 5, f.stock(t, "p1"))
}

func TestPlaceOrder_DisabledMethodLeavesOrderPending(t *testing.T) {
	f := newFixture(t, dompay.MethodPix)
	f.addProduct(t, "p1", "10.00", 5)

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{
		UserID:        "u1",
		Lines:         []order.LineRequest{{ProductID: "p1", Quantity: 1}},
		PaymentMethod: "cartao",
		PaymentData:   map[string]string{"card_number": "1", "cvv": "2"},
	})
	require.ErrorIs(t, err, dompay.ErrUnsupportedMethod)
	require.NotNil(t, res)
	assert.Equal(t, domorder.StatusPending, res.Order.Status)

	stored := f.orders(t)
	require.Len(t, stored, 1)
	assert.Equal(t, domorder.StatusPending, stored[0].Status)
	assert.Empty(t, stored[0].TransactionID)
	assert.Equal(t, dompay.MethodCreditCard, stored[0].PaymentMethod)
}

func TestPlaceOrder_NotificationFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.notifier.err = errors.New("smtp down")
	f.addProduct(t, "p1", "10.00", 5)

	res, err := f.place.Execute(context.Background(), order.PlaceOrderInput{
		UserID:          "u1",
		Lines:           []order.LineRequest{{ProductID: "p1", Quantity: 1}},
		PaymentMethod:   "boleto",
		NotifyRecipient: "buyer@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, domorder.StatusPaid, res.Order.Status)
	assert.Len(t, res.Payment.Barcode, 44)

	logs := f.rec.Messages("notification_failed")
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	assert.Equal(t, "smtp down", logs[0].ContextMap()["error"])
}

func TestPlaceOrder_Validation(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p1", "10.00", 5)
	ctx := context.Background()

	cases := []order.PlaceOrderInput{
		{Lines: []order.LineRequest{{ProductID: "p1", Quantity: 1}}, PaymentMethod: "pix"},
		{UserID: "u1", PaymentMethod: "pix"},
		{UserID: "u1", Lines: []order.LineRequest{{ProductID: "p1", Quantity: 0}}, PaymentMethod: "pix"},
		{UserID: "u1", Lines: []order.LineRequest{{Quantity: 1}}, PaymentMethod: "pix"},
	}
	for _, in := range cases {
		_, err := f.place.Execute(ctx, in)
		assert.ErrorIs(t, err, application.ErrValidation)
	}

	_, err := f.place.Execute(ctx, order.PlaceOrderInput{
		UserID:        "u1",
		Lines:         []order.LineRequest{{ProductID: "ghost", Quantity: 1}},
		PaymentMethod: "pix",
	})
	assert.ErrorIs(t, err, product.ErrNotFound)
	assert.Empty(t, f.orders(t))
}

func TestPlaceOrder_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p1", "1.00", 5)

	const buyers = 12
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.place.Execute(context.Background(), order.PlaceOrderInput{
				UserID:        "u",
				Lines:         []order.LineRequest{{ProductID: "p1", Quantity: 1}},
				PaymentMethod: "boleto",
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, dominv.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, 0, f.stock(t, "p1"))
	assert.Len(t, f.orders(t), 5)
}

func TestPlaceOrderFromCart_ClearsCartEvenWhenDeclined(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p1", "15.50", 10)
	f.addProduct(t, "p2", "4.25", 10)
	ctx := context.Background()

	c, err := f.carts.GetOrCreate(ctx, "", "sess-1")
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, c.ID, "p1", 2)
	require.NoError(t, err)
	_, err = f.carts.AddItem(ctx, c.ID, "p2", 1)
	require.NoError(t, err)

	res, err := f.place.PlaceOrderFromCart(ctx, order.PlaceOrderFromCartInput{
		CartID:        c.ID,
		PaymentMethod: "pix",
	})
	require.NoError(t, err)
	assert.False(t, res.Payment.Success)
	assert.Equal(t, "sess-1", res.Order.UserID)
	assert.Equal(t, "35.25", res.Order.TotalAmount.StringFixed(2))
	assert.Equal(t, 8, f.stock(t, "p1"))

	after, err := f.carts.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.True(t, after.IsEmpty())
	assert.True(t, after.TotalAmount.IsZero())
}

func TestPlaceOrderFromCart_EmptyCart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	c, err := f.carts.GetOrCreate(ctx, "u1", "")
	require.NoError(t, err)

	_, err = f.place.PlaceOrderFromCart(ctx, order.PlaceOrderFromCartInput{CartID: c.ID, PaymentMethod: "pix"})
	assert.ErrorIs(t, err, cart.ErrEmpty)
	assert.Empty(t, f.orders(t))
}

func TestFormatBRL(t *testing.T) {
	cases := map[string]string{
		"0.5":        "0,50",
		"999.99":     "999,99",
		"1234.56":    "1.234,56",
		"1234567.8":  "1.234.567,80",
		"-1000":      "-1.000,00",
		"100000.005": "100.000,01",
	}
	for in, want := range cases {
		assert.Equal(t, want, order.FormatBRL(decimal.RequireFromString(in)), in)
	}
}

func TestListOrders_FiltersNewestFirst(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p1", "10.00", 10)
	ctx := context.Background()

	place := func(user, method string, data map[string]string) *domorder.Order {
		res, err := f.place.Execute(ctx, order.PlaceOrderInput{
			UserID:        user,
			Lines:         []order.LineRequest{{ProductID: "p1", Quantity: 1}},
			PaymentMethod: method,
			PaymentData:   data,
		})
		require.NoError(t, err)
		return res.Order
	}
	first := place("u1", "pix", map[string]string{"pix_key": "k"})
	second := place("u1", "pix", nil)
	third := place("u2", "boleto", nil)

	list := order.NewListOrdersUseCase(f.store, f.rec.Tel)

	all, err := list.Execute(ctx, order.ListOrdersInput{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{third.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	mine, err := list.Execute(ctx, order.ListOrdersInput{UserID: "u1", Status: "PENDING"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, second.ID, mine[0].ID)

	boletos, err := list.Execute(ctx, order.ListOrdersInput{PaymentMethod: "boleto"})
	require.NoError(t, err)
	require.Len(t, boletos, 1)

	_, err = list.Execute(ctx, order.ListOrdersInput{Status: "lost"})
	assert.ErrorIs(t, err, application.ErrValidation)
	_, err = list.Execute(ctx, order.ListOrdersInput{PaymentMethod: "crypto"})
	assert.ErrorIs(t, err, dompay.ErrUnsupportedMethod)
}

type stubCreator struct{ o *domorder.Order }

func (s stubCreator) Execute(context.Context, order.CreateOrderInput) (*domorder.Order, error) {
	return s.o.Clone(), nil
}

type countingPayments struct {
	calls  int
	result dompay.Result
}

func (p *countingPayments) Execute(context.Context, payment.ProcessPaymentInput) (dompay.Result, error) {
	p.calls++
	return p.result, nil
}

func stubOrder(t *testing.T, status domorder.Status, txID string) *domorder.Order {
	t.Helper()
	p, err := product.New("p1", "Phone", "", decimal.RequireFromString("10.00"), 5, "misc", "")
	require.NoError(t, err)
	line, err := domorder.NewLine("l1", p, 1)
	require.NoError(t, err)
	o, err := domorder.New("o1", "u1", dompay.MethodPix, []domorder.Line{line})
	require.NoError(t, err)
	o.Status = status
	o.TransactionID = txID
	return o
}

func TestPlaceOrder_RefusesToSettleANonPendingOrder(t *testing.T) {
	payments := &countingPayments{result: dompay.Result{Method: dompay.MethodPix, Success: true, TransactionID: "PIX-1"}}
	uc := order.NewPlaceOrderUseCase(stubCreator{o: stubOrder(t, domorder.StatusPaid, "PIX-0")}, payments, memory.NewStore(), &fakeNotifier{}, "", nil)

	res, err := uc.Execute(context.Background(), order.PlaceOrderInput{
		UserID:        "u1",
		Lines:         []order.LineRequest{{ProductID: "p1", Quantity: 1}},
		PaymentMethod: "pix",
		PaymentData:   map[string]string{"pix_key": "k"},
	})
	require.ErrorIs(t, err, domorder.ErrInvalidStateTransition)
	assert.Zero(t, payments.calls)
	require.NotNil(t, res)
	assert.Equal(t, "PIX-0", res.Order.TransactionID)
}

func TestPlaceOrder_DeclineRunsThroughPendingState(t *testing.T) {
	payments := &countingPayments{result: dompay.Declined(dompay.MethodPix, "pix key is required")}
	notifier := &fakeNotifier{}
	uc := order.NewPlaceOrderUseCase(stubCreator{o: stubOrder(t, domorder.StatusPending, "stale")}, payments, memory.NewStore(), notifier, "", nil)

	res, err := uc.Execute(context.Background(), order.PlaceOrderInput{
		UserID:        "u1",
		Lines:         []order.LineRequest{{ProductID: "p1", Quantity: 1}},
		PaymentMethod: "pix",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, payments.calls)
	assert.False(t, res.Payment.Success)
	assert.Equal(t, domorder.StatusPending, res.Order.Status)
	assert.Empty(t, res.Order.TransactionID)
	assert.Empty(t, notifier.sent)
}
