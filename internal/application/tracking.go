package application

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const SpanPrefix = "UC."

// Instruments holds the RED metrics and base logger shared by a service's
// use cases. Build once at wiring time.
type Instruments struct {
	tracer       observability.Tracer
	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewInstruments(tel observability.Observability, service string) Instruments {
	tel = observability.Or(tel)
	m := tel.Metrics()
	return Instruments{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", service)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
	}
}

func (in Instruments) Logger() observability.Logger { return in.log }

// Tracked is one in-flight use case invocation. Callers set the outcome
// through Fail/Status and must call Done exactly once, usually deferred.
type Tracked struct {
	useCase    string
	span       trace.Span
	log        observability.Logger
	start      time.Time
	outcome    string
	statusText string
	fields     []observability.Field
	in         Instruments
}

// Track opens a UC.<name> span and a use-case scoped logger.
func (in Instruments) Track(ctx context.Context, useCase, name string, attrs ...attribute.KeyValue) (context.Context, *Tracked) {
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, SpanPrefix+name, attrs...)
	logger := logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase))
	return ctx, &Tracked{
		useCase:    useCase,
		span:       span,
		log:        logger,
		start:      time.Now(),
		outcome:    "success",
		statusText: "OK",
		in:         in,
	}
}

func (t *Tracked) Span() trace.Span              { return t.span }
func (t *Tracked) Logger() observability.Logger { return t.log }

// Fail marks the invocation as an error with a machine-readable status.
func (t *Tracked) Fail(status string) {
	t.outcome, t.statusText = "error", status
}

// Status keeps the outcome but replaces the status text (e.g. DECLINED).
func (t *Tracked) Status(status string) {
	t.statusText = status
}

// Field adds a field to the closing use_case_done line.
func (t *Tracked) Field(k string, v any) {
	t.fields = append(t.fields, observability.F(k, v))
}

// Done ends the span, records metrics and writes use_case_done.
func (t *Tracked) Done(ctx context.Context, err error) {
	if err != nil && t.outcome == "success" {
		t.outcome, t.statusText = "error", "INTERNAL"
	}
	lat := time.Since(t.start).Seconds()

	if t.span != nil {
		if err != nil {
			t.span.RecordError(err)
			t.span.SetStatus(codes.Error, t.statusText)
		} else {
			t.span.SetStatus(codes.Ok, t.statusText)
		}
		t.span.End()
	}

	t.in.reqCounter.Add(1,
		observability.L("use_case", t.useCase),
		observability.L("outcome", t.outcome),
	)
	t.in.durHistogram.Observe(lat, observability.L("use_case", t.useCase))

	fields := append([]observability.Field{
		observability.F("outcome", t.outcome),
		observability.F("status", t.statusText),
		observability.F("latency_seconds", lat),
	}, t.fields...)
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	t.log.Info("use_case_done", fields...)
}
