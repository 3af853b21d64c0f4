package payment

import (
	"context"
	"errors"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/application"
	dompay "github.com/Zhima-Mochi/minishop-commerce/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability/logctx"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	paymentService        = "payment-service"
	useCasePaymentProcess = "payment.process"
	paymentSpanName       = "ProcessPayment"
	gatewayPeer           = "payment_gateway"
	DefaultTimeout        = 5 * time.Second
	timedOutMessage       = "payment timed out"
)

type ProcessPaymentInput struct {
	Method string
	Amount decimal.Decimal
	Data   map[string]string
	// OrderID only labels logs and spans.
	OrderID string
}

type ProcessPaymentUseCase struct {
	resolver *Resolver
	timeout  time.Duration
	tel      observability.Observability
	log      observability.Logger

	reqCounter  observability.Counter   // usecase_requests_total{use_case,outcome}
	durHist     observability.Histogram // usecase_duration_seconds{use_case}
	settlements observability.Counter   // payment_settlements_total{method,result}
	extCounter  observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHist     observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewProcessPaymentUseCase(resolver *Resolver, timeout time.Duration, tel observability.Observability) *ProcessPaymentUseCase {
	tel = observability.Or(tel)
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	m := tel.Metrics()
	return &ProcessPaymentUseCase{
		resolver:    resolver,
		timeout:     timeout,
		tel:         tel,
		log:         tel.Logger().With(observability.F("service", paymentService)),
		reqCounter:  m.Counter(observability.MUsecaseRequests),
		durHist:     m.Histogram(observability.MUsecaseDuration),
		settlements: m.Counter(observability.MPaymentSettlements),
		extCounter:  m.Counter(observability.MExternalRequests),
		extHist:     m.Histogram(observability.MExternalRequestDuration),
	}
}

// Execute resolves the strategy and settles the amount. A decline or an
// expired timeout is returned as a Result with Success=false and a nil error.
func (uc *ProcessPaymentUseCase) Execute(ctx context.Context, cmd ProcessPaymentInput) (_ dompay.Result, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(
		observability.F("use_case", useCasePaymentProcess),
		observability.F("payment_method", cmd.Method),
		observability.F("amount", cmd.Amount.StringFixed(2)),
	)
	if cmd.OrderID != "" {
		logger = logger.With(observability.F("order_id", cmd.OrderID))
	}

	ctx, span := uc.tel.Tracer().Start(ctx, application.SpanPrefix+paymentSpanName,
		attribute.String("use_case", useCasePaymentProcess),
		attribute.String("payment.method", cmd.Method),
		attribute.String("payment.amount", cmd.Amount.StringFixed(2)),
		attribute.String("order.id", cmd.OrderID),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"
	var result dompay.Result

	defer func() {
		if span != nil {
			span.SetAttributes(attribute.Bool("payment.success", result.Success))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		latency := time.Since(start).Seconds()
		uc.reqCounter.Add(1,
			observability.L("use_case", useCasePaymentProcess),
			observability.L("outcome", outcome),
		)
		uc.durHist.Observe(latency, observability.L("use_case", useCasePaymentProcess))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", latency),
			observability.F("payment_success", result.Success),
		}
		if result.TransactionID != "" {
			fields = append(fields, observability.F("transaction_id", result.TransactionID))
		}
		if !result.Success && result.Message != "" {
			fields = append(fields, observability.F("decline_reason", result.Message))
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

	method, err := dompay.ParseMethod(cmd.Method)
	if err != nil {
		outcome, statusText = "error", "UNSUPPORTED_METHOD"
		return result, err
	}
	if !cmd.Amount.IsPositive() {
		outcome, statusText = "error", "AMOUNT_INVALID"
		return result, application.NewValidation("amount must be greater than zero")
	}
	strategy, err := uc.resolver.Resolve(method)
	if err != nil {
		outcome, statusText = "error", "METHOD_DISABLED"
		return result, err
	}

	result, err = uc.settle(ctx, strategy, cmd.Amount.Round(2), cmd.Data)
	switch {
	case err != nil:
		outcome, statusText = "error", "SETTLEMENT_FAILED"
		uc.settlements.Add(1, observability.L("method", string(method)), observability.L("result", "error"))
		return dompay.Result{}, err
	case result.Success:
		uc.settlements.Add(1, observability.L("method", string(method)), observability.L("result", "approved"))
		span.AddEvent("payment.approved",
			trace.WithAttributes(attribute.String("payment.transaction_id", result.TransactionID)),
		)
	case result.Message == timedOutMessage:
		statusText = "TIMEOUT"
		uc.settlements.Add(1, observability.L("method", string(method)), observability.L("result", "timeout"))
	default:
		statusText = "DECLINED"
		uc.settlements.Add(1, observability.L("method", string(method)), observability.L("result", "declined"))
	}
	return result, nil
}

// settle bounds the strategy call by the configured timeout. Only the
// caller's own cancellation surfaces as an error.
func (uc *ProcessPaymentUseCase) settle(ctx context.Context, s dompay.Strategy, amount decimal.Decimal, data map[string]string) (dompay.Result, error) {
	payCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	type settled struct {
		res dompay.Result
		err error
	}
	done := make(chan settled, 1)
	callStart := time.Now()
	go func() {
		res, err := s.Settle(payCtx, amount, data)
		done <- settled{res: res, err: err}
	}()

	var out settled
	select {
	case out = <-done:
	case <-payCtx.Done():
		out = settled{err: payCtx.Err()}
	}

	callOutcome := "success"
	if out.err != nil {
		callOutcome = "error"
		if ctx.Err() == nil && errors.Is(out.err, context.DeadlineExceeded) {
			callOutcome = "timeout"
			out = settled{res: dompay.Declined(s.Method(), timedOutMessage)}
		}
	}
	uc.extCounter.Add(1,
		observability.L("peer", gatewayPeer),
		observability.L("endpoint", string(s.Method())),
		observability.L("outcome", callOutcome),
	)
	uc.extHist.Observe(time.Since(callStart).Seconds(),
		observability.L("peer", gatewayPeer),
		observability.L("endpoint", string(s.Method())),
	)
	return out.res, out.err
}
