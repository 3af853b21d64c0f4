package payment

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"

	dompay "github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	boletoBarcodeDigits = 44
	boletoDueIn         = 3 * 24 * time.Hour
)

// Clock is the time source used for due dates.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

// CreditCard settles when card_number and cvv are both present.
type CreditCard struct{}

func (CreditCard) Method() dompay.Method { return dompay.MethodCreditCard }

func (CreditCard) Settle(ctx context.Context, _ decimal.Decimal, data map[string]string) (dompay.Result, error) {
	if err := ctx.Err(); err != nil {
		return dompay.Result{}, err
	}
	if blank(data["card_number"]) || blank(data["cvv"]) {
		return dompay.Declined(dompay.MethodCreditCard, "card number and cvv are required"), nil
	}
	return dompay.Result{
		Method:        dompay.MethodCreditCard,
		Success:       true,
		Message:       "credit card payment approved",
		TransactionID: "CC-" + uuid.NewString(),
	}, nil
}

// Pix settles when a pix_key is present.
type Pix struct{}

func (Pix) Method() dompay.Method { return dompay.MethodPix }

func (Pix) Settle(ctx context.Context, _ decimal.Decimal, data map[string]string) (dompay.Result, error) {
	if err := ctx.Err(); err != nil {
		return dompay.Result{}, err
	}
	if blank(data["pix_key"]) {
		return dompay.Declined(dompay.MethodPix, "pix key is required"), nil
	}
	return dompay.Result{
		Method:        dompay.MethodPix,
		Success:       true,
		Message:       "pix payment approved",
		TransactionID: "PIX-" + uuid.NewString(),
	}, nil
}

// Boleto always issues a slip payable within three days.
type Boleto struct {
	Now Clock
}

func NewBoleto(now Clock) Boleto {
	if now == nil {
		now = systemClock
	}
	return Boleto{Now: now}
}

func (Boleto) Method() dompay.Method { return dompay.MethodBoleto }

func (b Boleto) Settle(ctx context.Context, _ decimal.Decimal, _ map[string]string) (dompay.Result, error) {
	if err := ctx.Err(); err != nil {
		return dompay.Result{}, err
	}
	now := b.Now
	if now == nil {
		now = systemClock
	}
	return dompay.Result{
		Method:        dompay.MethodBoleto,
		Success:       true,
		Message:       "boleto issued",
		TransactionID: "BOL-" + uuid.NewString(),
		Barcode:       barcode(boletoBarcodeDigits),
		DueDate:       now().Add(boletoDueIn),
	}, nil
}

func barcode(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(byte('0' + rand.IntN(10)))
	}
	return sb.String()
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
