package order

import (
	"context"
	"fmt"
	"strings"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	apppayment "github.com/Zhima-Mochi/minishop-commerce/internal/application/payment"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/cart"
	domnotif "github.com/Zhima-Mochi/minishop-commerce/internal/domain/notification"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	checkoutService           = "checkout-service"
	useCasePlaceOrder         = "order.place"
	useCasePlaceOrderFromCart = "order.place_from_cart"
	DefaultRecipient          = "cliente@example.com"
)

type PlaceOrderInput struct {
	UserID          string
	Lines           []LineRequest
	PaymentMethod   string
	PaymentData     map[string]string
	NotifyRecipient string
}

type PlaceOrderFromCartInput struct {
	CartID          string
	UserID          string
	PaymentMethod   string
	PaymentData     map[string]string
	NotifyRecipient string
}

// PlaceOrderResult carries the order as persisted after settlement and the
// settlement outcome. A declined payment is reported here, not as an error.
type PlaceOrderResult struct {
	Order   *domain.Order
	Payment dompay.Result
}

// PlaceOrderUseCase runs checkout: create the order, settle it, mark it
// paid and send the confirmation.
type PlaceOrderUseCase struct {
	creator          Creator
	payments         PaymentPort
	tx               application.Transactor
	notifier         domnotif.Notifier
	defaultRecipient string
	in               application.Instruments
}

func NewPlaceOrderUseCase(
	creator Creator,
	payments PaymentPort,
	tx application.Transactor,
	notifier domnotif.Notifier,
	defaultRecipient string,
	tel observability.Observability,
) *PlaceOrderUseCase {
	if defaultRecipient == "" {
		defaultRecipient = DefaultRecipient
	}
	return &PlaceOrderUseCase{
		creator:          creator,
		payments:         payments,
		tx:               tx,
		notifier:         notifier,
		defaultRecipient: defaultRecipient,
		in:               application.NewInstruments(tel, checkoutService),
	}
}

func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderInput) (_ *PlaceOrderResult, err error) {
	ctx, run := uc.in.Track(ctx, useCasePlaceOrder, "PlaceOrder",
		attribute.String("order.user_id", cmd.UserID),
		attribute.String("payment.method", cmd.PaymentMethod),
	)
	defer func() { run.Done(ctx, err) }()

	method, err := dompay.ParseMethod(cmd.PaymentMethod)
	if err != nil {
		run.Fail("UNSUPPORTED_METHOD")
		return nil, err
	}
	created, err := uc.creator.Execute(ctx, CreateOrderInput{
		UserID:        cmd.UserID,
		Lines:         cmd.Lines,
		PaymentMethod: string(method),
	})
	if err != nil {
		run.Fail("ORDER_CREATE_FAILED")
		return nil, err
	}
	return uc.settle(ctx, run, created, method, cmd.PaymentData, cmd.NotifyRecipient)
}

// PlaceOrderFromCart checks out every item of a cart. The cart is emptied as
// soon as the order exists, whatever the settlement outcome.
func (uc *PlaceOrderUseCase) PlaceOrderFromCart(ctx context.Context, cmd PlaceOrderFromCartInput) (_ *PlaceOrderResult, err error) {
	ctx, run := uc.in.Track(ctx, useCasePlaceOrderFromCart, "PlaceOrderFromCart",
		attribute.String("cart.id", cmd.CartID),
		attribute.String("payment.method", cmd.PaymentMethod),
	)
	defer func() { run.Done(ctx, err) }()

	var (
		lines  []LineRequest
		userID = cmd.UserID
	)
	err = uc.tx.WithinTx(ctx, func(ctx context.Context, s application.Stores) error {
		c, err := s.Carts().Get(ctx, cmd.CartID)
		if err != nil {
			return err
		}
		if c.IsEmpty() {
			return cart.ErrEmpty
		}
		for _, it := range c.Items {
			lines = append(lines, LineRequest{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		if userID == "" {
			userID = c.UserID
		}
		if userID == "" {
			userID = c.SessionID
		}
		return nil
	})
	if err != nil {
		run.Fail("CART_LOAD_FAILED")
		return nil, err
	}

	method, err := dompay.ParseMethod(cmd.PaymentMethod)
	if err != nil {
		run.Fail("UNSUPPORTED_METHOD")
		return nil, err
	}
	created, err := uc.creator.Execute(ctx, CreateOrderInput{
		UserID:        userID,
		Lines:         lines,
		PaymentMethod: string(method),
	})
	if err != nil {
		run.Fail("ORDER_CREATE_FAILED")
		return nil, err
	}

	if clearErr := uc.clearCart(ctx, cmd.CartID); clearErr != nil {
		run.Logger().Error("cart_clear_failed",
			observability.F("cart_id", cmd.CartID),
			observability.F("order_id", created.ID),
			observability.F("error", clearErr.Error()),
		)
	}
	return uc.settle(ctx, run, created, method, cmd.PaymentData, cmd.NotifyRecipient)
}

func (uc *PlaceOrderUseCase) settle(
	ctx context.Context,
	run *application.Tracked,
	created *domain.Order,
	method dompay.Method,
	data map[string]string,
	recipient string,
) (*PlaceOrderResult, error) {
	run.Field("order_id", created.ID)
	run.Span().SetAttributes(attribute.String("order.id", created.ID))
	result := &PlaceOrderResult{Order: created}
	if !created.CanProcessPayment() {
		run.Fail("ORDER_NOT_PAYABLE")
		return result, fmt.Errorf("order %s is %s: %w", created.ID, created.Status, domain.ErrInvalidStateTransition)
	}

	res, err := uc.payments.Execute(ctx, apppayment.ProcessPaymentInput{
		Method:  string(method),
		Amount:  created.TotalAmount,
		Data:    data,
		OrderID: created.ID,
	})
	if err != nil {
		run.Fail("PAYMENT_FAILED")
		return result, err
	}
	result.Payment = res
	if !res.Success {
		if err := created.PaymentDeclined(res.Message); err != nil {
			run.Fail("STATE_TRANSITION_FAILED")
			return result, err
		}
		run.Status("DECLINED")
		return result, nil
	}

	err = uc.tx.WithinTx(ctx, func(ctx context.Context, s application.Stores) error {
		o, err := s.Orders().Get(ctx, created.ID)
		if err != nil {
			return wrapRepositoryError(err)
		}
		if err := o.PaymentSucceeded(res.TransactionID); err != nil {
			return err
		}
		if err := s.Orders().Update(ctx, o); err != nil {
			return wrapRepositoryError(err)
		}
		paid, err := s.Orders().Get(ctx, created.ID)
		if err != nil {
			return wrapRepositoryError(err)
		}
		result.Order = paid
		return nil
	})
	if err != nil {
		run.Fail("STATE_TRANSITION_FAILED")
		return result, err
	}

	uc.confirm(ctx, run.Logger(), result.Order, recipient)
	return result, nil
}

// confirm sends the email confirmation. Failures are logged and dropped.
func (uc *PlaceOrderUseCase) confirm(ctx context.Context, logger observability.Logger, o *domain.Order, recipient string) {
	if uc.notifier == nil {
		return
	}
	if recipient == "" {
		recipient = uc.defaultRecipient
	}
	ok, err := uc.notifier.Send(ctx, domnotif.ChannelEmail, recipient, ConfirmationMessage(o))
	if err != nil || !ok {
		fields := []observability.Field{
			observability.F("order_id", o.ID),
			observability.F("channel", string(domnotif.ChannelEmail)),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Warn("notification_failed", fields...)
	}
}

func (uc *PlaceOrderUseCase) clearCart(ctx context.Context, cartID string) error {
	return uc.tx.WithinTx(ctx, func(ctx context.Context, s application.Stores) error {
		c, err := s.Carts().Get(ctx, cartID)
		if err != nil {
			return err
		}
		c.Clear()
		return s.Carts().Save(ctx, c)
	})
}

func ConfirmationMessage(o *domain.Order) string {
	return fmt.Sprintf("Your order #%s has been confirmed! Total: R$ %s", o.ID, FormatBRL(o.TotalAmount))
}

// FormatBRL renders an amount as 1.234,56.
func FormatBRL(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var sb strings.Builder
	if d.IsNegative() {
		sb.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte('.')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte(',')
	sb.WriteString(frac)
	return sb.String()
}
