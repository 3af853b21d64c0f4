package order

import (
	"errors"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound               = errors.New("order: not found")
	ErrConflict               = errors.New("order: already exists")
	ErrUserRequired           = errors.New("order: user id is required")
	ErrNoLines                = errors.New("order: at least one line is required")
	ErrInvalidQuantity        = errors.New("order: quantity must be greater than zero")
	ErrInvalidStateTransition = errors.New("order: invalid state transition")
	ErrTransactionIDRequired  = errors.New("order: transaction id is required")
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// ParseStatus accepts any declared status, case-insensitively.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusPaid, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return st, true
	}
	return "", false
}

// Line is one product entry of an order; its price is fixed at creation.
type Line struct {
	ID        string
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
	Subtotal  decimal.Decimal

	// Product is the loaded association; nil until a repository fills it.
	Product *product.Product
}

func NewLine(id string, p *product.Product, quantity int) (Line, error) {
	if quantity <= 0 {
		return Line{}, ErrInvalidQuantity
	}
	return Line{
		ID:        id,
		ProductID: p.ID,
		Quantity:  quantity,
		UnitPrice: p.Price,
		Subtotal:  p.Subtotal(quantity),
		Product:   p.Clone(),
	}, nil
}

type Order struct {
	ID            string
	UserID        string
	Lines         []Line
	TotalAmount   decimal.Decimal
	PaymentMethod payment.Method
	Status        Status
	// TransactionID stays empty until a settlement succeeds.
	TransactionID string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func New(id, userID string, method payment.Method, lines []Line) (*Order, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserRequired
	}
	if len(lines) == 0 {
		return nil, ErrNoLines
	}

	total := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		total = total.Add(l.Subtotal)
	}

	now := time.Now().UTC()
	return &Order{
		ID:            id,
		UserID:        userID,
		Lines:         append([]Line(nil), lines...),
		TotalAmount:   total.Round(2),
		PaymentMethod: method,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// PaymentSucceeded moves a pending order to paid and records the settlement id.
func (o *Order) PaymentSucceeded(transactionID string) error {
	next, err := o.state().OnPaymentSucceeded(o, transactionID)
	if err != nil {
		return err
	}
	o.Status = next.Status()
	o.touch()
	return nil
}

// PaymentDeclined keeps a pending order pending.
func (o *Order) PaymentDeclined(reason string) error {
	next, err := o.state().OnPaymentDeclined(o, reason)
	if err != nil {
		return err
	}
	o.Status = next.Status()
	return nil
}

func (o *Order) CanProcessPayment() bool {
	return o.Status == StatusPending
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Lines = make([]Line, len(o.Lines))
	for i, l := range o.Lines {
		l.Product = l.Product.Clone()
		clone.Lines[i] = l
	}
	return &clone
}

func (o *Order) state() OrderState {
	return stateFor(o.Status)
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
