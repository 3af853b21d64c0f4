package order

import (
	"context"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseOrderList = "order.list"

type ListOrdersInput struct {
	UserID        string
	Status        string
	PaymentMethod string
	Limit         int
	Offset        int
}

// ListOrdersUseCase returns orders newest first, lines and products loaded.
type ListOrdersUseCase struct {
	tx application.Transactor
	in application.Instruments
}

func NewListOrdersUseCase(tx application.Transactor, tel observability.Observability) *ListOrdersUseCase {
	return &ListOrdersUseCase{tx: tx, in: application.NewInstruments(tel, orderService)}
}

func (uc *ListOrdersUseCase) Execute(ctx context.Context, cmd ListOrdersInput) (_ []*domain.Order, err error) {
	ctx, run := uc.in.Track(ctx, useCaseOrderList, "ListOrders",
		attribute.String("order.user_id", cmd.UserID),
		attribute.String("order.status", cmd.Status),
	)
	defer func() { run.Done(ctx, err) }()

	filter := domain.ListFilter{UserID: cmd.UserID, Limit: cmd.Limit, Offset: cmd.Offset}
	if cmd.Status != "" {
		st, ok := domain.ParseStatus(cmd.Status)
		if !ok {
			run.Fail("STATUS_INVALID")
			return nil, application.NewValidation("unknown order status " + cmd.Status)
		}
		filter.Status = st
	}
	if cmd.PaymentMethod != "" {
		m, err := dompay.ParseMethod(cmd.PaymentMethod)
		if err != nil {
			run.Fail("UNSUPPORTED_METHOD")
			return nil, err
		}
		filter.PaymentMethod = m
	}

	var out []*domain.Order
	err = uc.tx.WithinTx(ctx, func(ctx context.Context, s application.Stores) error {
		var err error
		out, err = s.Orders().List(ctx, filter.Normalized())
		return err
	})
	if err != nil {
		run.Fail("REPO_LIST_FAILED")
		return nil, wrapRepositoryError(err)
	}
	run.Field("count", len(out))
	return out, nil
}
