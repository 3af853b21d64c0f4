package order

import (
	"context"

	apppayment "github.com/Zhima-Mochi/minishop-commerce/internal/application/payment"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
)

// Creator persists a pending order and its stock decrements atomically.
type Creator interface {
	Execute(ctx context.Context, cmd CreateOrderInput) (*domain.Order, error)
}

// PaymentPort settles an amount; it is satisfied by the ProcessPayment use case.
type PaymentPort interface {
	Execute(ctx context.Context, cmd apppayment.ProcessPaymentInput) (dompay.Result, error)
}
