// Package testkit builds an Observability whose logs, spans and metrics can
// be inspected from tests.
package testkit

import (
	infraobs "github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-commerce/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// Recorder captures everything emitted through Tel.
type Recorder struct {
	Tel      observability.Observability
	Logs     *observer.ObservedLogs
	Spans    *tracetest.SpanRecorder
	Registry *prometheus.Registry
}

// New records at debug level into fresh, unshared sinks. Metrics carry no
// namespace so tests can query them by their plain names.
func New() *Recorder {
	core, logs := observer.New(zapcore.DebugLevel)
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))
	reg := prometheus.NewRegistry()

	tel := infraobs.New(
		oteltrace.New("test", tp),
		zaplogger.Wrap(zap.New(core)),
		infraobs.Register(prometrics.New("", "", reg)),
	)
	return &Recorder{Tel: tel, Logs: logs, Spans: spans, Registry: reg}
}

// SpanNames lists ended spans in end order.
func (r *Recorder) SpanNames() []string {
	ended := r.Spans.Ended()
	out := make([]string, 0, len(ended))
	for _, s := range ended {
		out = append(out, s.Name())
	}
	return out
}

// Messages returns the entries logged with msg.
func (r *Recorder) Messages(msg string) []observer.LoggedEntry {
	return r.Logs.FilterMessage(msg).All()
}

// CounterValue sums the counter series of name whose labels include every
// pair in match.
func (r *Recorder) CounterValue(name string, match map[string]string) float64 {
	families, err := r.Registry.Gather()
	if err != nil {
		return 0
	}
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m.GetLabel(), match) {
				total += m.GetCounter().GetValue()
			}
		}
	}
	return total
}

func labelsMatch(pairs []*dto.LabelPair, match map[string]string) bool {
	found := 0
	for _, lp := range pairs {
		if want, ok := match[lp.GetName()]; ok {
			if lp.GetValue() != want {
				return false
			}
			found++
		}
	}
	return found == len(match)
}
