package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	appinventory "github.com/Zhima-Mochi/minishop-commerce/internal/application/inventory"
	dominv "github.com/Zhima-Mochi/minishop-commerce/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/minishop-commerce/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-commerce/internal/domain/product"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	orderService       = "order-service"
	useCaseOrderCreate = "order.create"
)

var (
	ErrConflict   = domain.ErrConflict
	ErrNotFound   = domain.ErrNotFound
	ErrRepository = fmt.Errorf("order: %w", application.ErrRepository)
)

// CreateOrderUseCase encapsulates the order creation workflow with observability hooks.
type CreateOrderUseCase struct {
	tx          application.Transactor
	idGenerator application.IDGenerator
	tel         observability.Observability

	// Base logger with fixed fields prebound (vendor must remain hidden).
	log observability.Logger
	// RED metrics (supplied via DI; do not instantiate inside methods).
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

// NewCreateOrderUseCase wires the dependencies required to execute the use case.
func NewCreateOrderUseCase(
	tx application.Transactor,
	idGen application.IDGenerator,
	tel observability.Observability,
) *CreateOrderUseCase {
	tel = observability.Or(tel)
	metricsProvider := tel.Metrics()

	return &CreateOrderUseCase{
		tx:           tx,
		idGenerator:  idGen,
		tel:          tel,
		log:          tel.Logger().With(observability.F("service", orderService)),
		reqCounter:   metricsProvider.Counter(observability.MUsecaseRequests),
		durHistogram: metricsProvider.Histogram(observability.MUsecaseDuration),
	}
}

type LineRequest struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	UserID        string
	Lines         []LineRequest
	PaymentMethod string
}

// Execute validates the request, then inserts the order, its lines and the
// stock decrements in one transaction. The returned order has its lines and
// products loaded.
func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderInput) (_ *domain.Order, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseOrderCreate))

	ctx, span := uc.tel.Tracer().Start(ctx, application.SpanPrefix+"CreateOrder",
		attribute.String("use_case", useCaseOrderCreate),
		attribute.String("order.user_id", cmd.UserID),
		attribute.Int("order.lines", len(cmd.Lines)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var created *domain.Order

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseOrderCreate),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseOrderCreate),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if created != nil {
			fields = append(fields,
				observability.F("order_id", created.ID),
				observability.F("total_amount", created.TotalAmount.StringFixed(2)),
			)
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	if cmd.UserID == "" {
		outcome, statusText = "error", "USER_ID_REQUIRED"
		return nil, application.NewValidation("user id is required")
	}
	if len(cmd.Lines) == 0 {
		outcome, statusText = "error", "LINES_REQUIRED"
		return nil, application.NewValidation("at least one item is required")
	}
	for _, l := range cmd.Lines {
		if l.ProductID == "" {
			outcome, statusText = "error", "PRODUCT_ID_REQUIRED"
			return nil, application.NewValidation("product id is required")
		}
		if l.Quantity <= 0 {
			outcome, statusText = "error", "QUANTITY_INVALID"
			return nil, application.NewValidation("quantity must be greater than zero")
		}
	}
	method, err := dompay.ParseMethod(cmd.PaymentMethod)
	if err != nil {
		outcome, statusText = "error", "UNSUPPORTED_METHOD"
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	orderID := uc.idGenerator.NewID()
	err = uc.tx.WithinTx(ctx, func(ctx context.Context, s application.Stores) error {
		ledger := appinventory.NewLedger(s.Products())

		lines := make([]domain.Line, 0, len(cmd.Lines))
		for _, req := range cmd.Lines {
			p, err := s.Products().Get(ctx, req.ProductID)
			if err != nil {
				statusText = "PRODUCT_LOOKUP_FAILED"
				return err
			}
			ok, err := ledger.CheckAvailability(ctx, p.ID, req.Quantity)
			if err != nil {
				statusText = "AVAILABILITY_CHECK_FAILED"
				return err
			}
			if !ok {
				statusText = "INSUFFICIENT_STOCK"
				return dominv.NewInsufficientStock(p, req.Quantity)
			}
			line, err := domain.NewLine(uc.idGenerator.NewID(), p, req.Quantity)
			if err != nil {
				statusText = "DOMAIN_CONSTRUCTION_FAILED"
				return err
			}
			lines = append(lines, line)
		}

		entity, err := domain.New(orderID, cmd.UserID, method, lines)
		if err != nil {
			statusText = "DOMAIN_CONSTRUCTION_FAILED"
			return fmt.Errorf("order: construct: %w", err)
		}
		if err := s.Orders().Insert(ctx, entity); err != nil {
			statusText = "REPO_INSERT_FAILED"
			return wrapRepositoryError(err)
		}
		for _, l := range entity.Lines {
			if err := ledger.Decrement(ctx, l.ProductID, l.Quantity); err != nil {
				statusText = "STOCK_DECREMENT_FAILED"
				if errors.Is(err, dominv.ErrInsufficientStock) {
					statusText = "INSUFFICIENT_STOCK"
				}
				return err
			}
		}

		created, err = s.Orders().Get(ctx, orderID)
		if err != nil {
			statusText = "REPO_RELOAD_FAILED"
			return wrapRepositoryError(err)
		}
		return nil
	})
	if err != nil {
		outcome = "error"
		if errors.Is(err, product.ErrNotFound) {
			statusText = "PRODUCT_NOT_FOUND"
		}
		created = nil
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.status", string(created.Status)),
		attribute.String("order.total_amount", created.TotalAmount.StringFixed(2)),
	)
	span.AddEvent("order.created",
		trace.WithAttributes(attribute.String("order.id", created.ID)),
	)

	return created, nil
}

func wrapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, domain.ErrConflict):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
}
