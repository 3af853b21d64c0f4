package observability

import (
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
)

type metricKind uint8

const (
	kindCounter metricKind = iota
	kindHistogram
)

// metricSpec declares one series the shop emits. Histograms use the
// registry's latency buckets.
type metricSpec struct {
	key    observability.MetricKey
	kind   metricKind
	help   string
	labels []string
}

// catalog is every series the shop emits, with its label keys.
var catalog = []metricSpec{
	{observability.MUsecaseRequests, kindCounter, "Use case invocations.", []string{"use_case", "outcome"}},
	{observability.MUsecaseDuration, kindHistogram, "Use case latency.", []string{"use_case"}},
	{observability.MHTTPRequests, kindCounter, "HTTP requests served.", []string{"method", "route", "status"}},
	{observability.MHTTPRequestDuration, kindHistogram, "HTTP request latency.", []string{"method", "route", "status"}},
	{observability.MExternalRequests, kindCounter, "Calls to external peers.", []string{"peer", "endpoint", "outcome"}},
	{observability.MExternalRequestDuration, kindHistogram, "External call latency.", []string{"peer", "endpoint"}},
	{observability.MPaymentSettlements, kindCounter, "Payment settlement attempts.", []string{"method", "result"}},
	{observability.MNotificationsSent, kindCounter, "Notification deliveries.", []string{"channel", "outcome"}},
	{observability.MEventsPublished, kindCounter, "Events handed to the bus.", []string{"event", "outcome"}},
}

// shopMetrics resolves catalog keys; a key missing from the catalog
// resolves to a discarding instrument.
type shopMetrics struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

// Register creates every catalog series on r.
func Register(r prometrics.Registry) observability.Metrics {
	m := &shopMetrics{
		counters:   make(map[observability.MetricKey]observability.Counter),
		histograms: make(map[observability.MetricKey]observability.Histogram),
	}
	for _, s := range catalog {
		switch s.kind {
		case kindCounter:
			m.counters[s.key] = r.Counter(string(s.key), s.help, s.labels...)
		case kindHistogram:
			m.histograms[s.key] = r.Histogram(string(s.key), s.help, nil, s.labels...)
		}
	}
	return m
}

func (m *shopMetrics) Counter(key observability.MetricKey) observability.Counter {
	if c, ok := m.counters[key]; ok {
		return c
	}
	return observability.NopCounter()
}

func (m *shopMetrics) Histogram(key observability.MetricKey) observability.Histogram {
	if h, ok := m.histograms[key]; ok {
		return h
	}
	return observability.NopHistogram()
}

type telemetry struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

// New bundles the three signals; any nil part is replaced by its Nop.
func New(tracer observability.Tracer, logger observability.Logger, metrics observability.Metrics) observability.Observability {
	t := &telemetry{tracer: tracer, logger: logger, metrics: metrics}
	if t.tracer == nil {
		t.tracer = observability.NopTracer()
	}
	if t.logger == nil {
		t.logger = observability.NopLogger()
	}
	if t.metrics == nil {
		t.metrics = observability.NopMetrics()
	}
	return t
}

func (t *telemetry) Tracer() observability.Tracer   { return t.tracer }
func (t *telemetry) Logger() observability.Logger   { return t.logger }
func (t *telemetry) Metrics() observability.Metrics { return t.metrics }
