package workerpresentation

import (
	"context"

	domoutbox "github.com/Zhima-Mochi/minishop-commerce/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const componentWorker = "event_worker"

// identified is implemented by events that carry their own id.
type identified interface {
	EventID() string
}

// WithEventContext injects an event-scoped logger for background executions.
// Dynamic fields only: trace_id/span_id (if valid), event_id (generated if empty),
// plus caller-provided low-cardinality attributes (e.g. "event", "tenant_id").
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	traceID trace.TraceID,
	spanID trace.SpanID,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = observability.NopLogger()
	}

	fields := make([]observability.Field, 0, 4+len(attrs))

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields = append(fields, observability.F("event_id", evtID))

	if traceID.IsValid() {
		fields = append(fields, observability.F("trace_id", traceID.String()))
	}
	if spanID.IsValid() {
		fields = append(fields, observability.F("span_id", spanID.String()))
	}

	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	ctx, _ = logctx.Derive(ctx, base, fields...)
	return ctx
}

// Subscriber decorates a bus subscription so every handler runs with an
// event-scoped logger in its context.
type Subscriber struct {
	inner domoutbox.Subscriber
	base  observability.Logger
}

func NewSubscriber(inner domoutbox.Subscriber, tel observability.Observability) *Subscriber {
	tel = observability.Or(tel)
	return &Subscriber{
		inner: inner,
		base:  tel.Logger().With(observability.F("component", componentWorker)),
	}
}

func (s *Subscriber) Subscribe(eventName string, h domoutbox.Handler) {
	s.inner.Subscribe(eventName, func(ctx context.Context, e domoutbox.Event) error {
		attrs := map[string]string{"event": eventName}
		if ev, ok := e.(identified); ok {
			attrs["event_id"] = ev.EventID()
		}
		sc := trace.SpanContextFromContext(ctx)
		ctx = WithEventContext(ctx, s.base, sc.TraceID(), sc.SpanID(), attrs)
		return h(ctx, e)
	})
}
