package prometrics

import (
	"sync"

	"github.com/Zhima-Mochi/minishop-commerce/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
)

// LatencyBuckets covers in-process use cases (sub-millisecond) up to a
// payment gateway hitting its timeout.
var LatencyBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// Registry hands out metric vectors registered once per name.
type Registry interface {
	Counter(name, help string, labelKeys ...string) observability.Counter
	Histogram(name, help string, buckets []float64, labelKeys ...string) observability.Histogram
}

type registry struct {
	mu         sync.Mutex
	counters   map[string]*counter
	histograms map[string]*histogram
	reg        prometheus.Registerer
	namespace  string
	subsystem  string
}

// New registers collectors on reg, or on the default registerer when nil.
func New(namespace, subsystem string, reg prometheus.Registerer) Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &registry{
		counters:   make(map[string]*counter),
		histograms: make(map[string]*histogram),
		reg:        reg,
		namespace:  namespace,
		subsystem:  subsystem,
	}
}

// labelSet fills every declared key so a caller passing a partial or
// unknown set never makes the vector panic. Undeclared keys are dropped.
type labelSet []string

func (ks labelSet) values(ls []observability.Label) prometheus.Labels {
	out := make(prometheus.Labels, len(ks))
	for _, k := range ks {
		out[k] = ""
	}
	for _, l := range ls {
		if _, ok := out[l.Key]; ok {
			out[l.Key] = l.Value
		}
	}
	return out
}

type counter struct {
	v    *prometheus.CounterVec
	keys labelSet
}

func (c *counter) Add(d float64, labels ...observability.Label) {
	if d < 0 {
		return
	}
	c.v.With(c.keys.values(labels)).Add(d)
}

type histogram struct {
	v    *prometheus.HistogramVec
	keys labelSet
}

func (h *histogram) Observe(v float64, labels ...observability.Label) {
	h.v.With(h.keys.values(labels)).Observe(v)
}

func (r *registry) Counter(name, help string, labelKeys ...string) observability.Counter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[name]; ok {
		return c
	}
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help,
	}, labelKeys)
	r.reg.MustRegister(cv)
	c := &counter{v: cv, keys: labelKeys}
	r.counters[name] = c
	return c
}

func (r *registry) Histogram(name, help string, buckets []float64, labelKeys ...string) observability.Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()
	if h, ok := r.histograms[name]; ok {
		return h
	}
	if buckets == nil {
		buckets = LatencyBuckets
	}
	hv := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace, Subsystem: r.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labelKeys)
	r.reg.MustRegister(hv)
	h := &histogram{v: hv, keys: labelKeys}
	r.histograms[name] = h
	return h
}
