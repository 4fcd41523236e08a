package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	gu "github.com/xraph/go-utils/metrics"
)

// Event outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeFiltered = "filtered"
	OutcomeDropped  = "dropped"
)

// Delivery statuses.
const (
	StatusDelivered = "delivered"
	StatusRetried   = "retried"
	StatusFailed    = "failed"
	StatusInvalid   = "invalid"
)

var (
	outcomes = []string{OutcomeAccepted, OutcomeFiltered, OutcomeDropped}
	statuses = []string{StatusDelivered, StatusRetried, StatusFailed, StatusInvalid}
)

// Metrics holds the forwarder's instruments, backed by any go-utils
// MetricFactory and optionally mirrored to a Prometheus registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	events     map[string]gu.Counter
	deliveries map[string]gu.Counter
	latency    gu.Histogram
	depth      gu.Gauge

	prom *promInstruments
}

type promInstruments struct {
	events     *prometheus.CounterVec
	deliveries *prometheus.CounterVec
	latency    prometheus.Histogram
	depth      prometheus.Gauge
}

// MetricsOption configures NewMetrics.
type MetricsOption func(*Metrics)

// WithRegistry mirrors every instrument to Prometheus collectors registered
// with reg.
func WithRegistry(reg prometheus.Registerer) MetricsOption {
	return func(m *Metrics) {
		if reg == nil {
			return
		}
		p := newPromInstruments()
		reg.MustRegister(p.events, p.deliveries, p.latency, p.depth)
		m.prom = p
	}
}

// NewMetrics creates the instruments from factory. Pass fapp.Metrics() from
// a forge app, or nil for a standalone metrics.NewMetricsCollector.
func NewMetrics(factory gu.MetricFactory, opts ...MetricsOption) *Metrics {
	if factory == nil {
		factory = gu.NewMetricsCollector("logrelay")
	}

	// Labeled children are created once: go-utils WithLabels returns a new
	// counter on every call.
	events := factory.Counter("logrelay_events_total", gu.WithDescription("Captured events by outcome."))
	deliveries := factory.Counter("logrelay_deliveries_total", gu.WithDescription("Webhook delivery attempts by status."))

	latency := factory.Histogram("logrelay_delivery_latency_seconds",
		gu.WithDescription("Latency of webhook delivery attempts."),
		gu.WithBuckets(prometheus.DefBuckets...))
	depth := factory.Gauge("logrelay_queue_depth", gu.WithDescription("Messages waiting for delivery."))

	m := &Metrics{
		events:     make(map[string]gu.Counter, len(outcomes)),
		deliveries: make(map[string]gu.Counter, len(statuses)),
		latency:    latency,
		depth:      depth,
	}
	for _, o := range outcomes {
		m.events[o] = events.WithLabels(map[string]string{"outcome": o})
	}
	for _, s := range statuses {
		m.deliveries[s] = deliveries.WithLabels(map[string]string{"status": s})
	}

	for _, opt := range opts {
		opt(m)
	}
	return m
}

func newPromInstruments() *promInstruments {
	return &promInstruments{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logrelay_events_total",
			Help: "Captured events by outcome.",
		}, []string{"outcome"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "logrelay_deliveries_total",
			Help: "Webhook delivery attempts by status.",
		}, []string{"status"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "logrelay_delivery_latency_seconds",
			Help:    "Latency of webhook delivery attempts.",
			Buckets: prometheus.DefBuckets,
		}),
		depth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "logrelay_queue_depth",
			Help: "Messages waiting for delivery.",
		}),
	}
}

// RecordEvent counts n events with the given outcome.
func (m *Metrics) RecordEvent(outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	if c, ok := m.events[outcome]; ok {
		c.Add(float64(n))
	}
	if m.prom != nil {
		m.prom.events.WithLabelValues(outcome).Add(float64(n))
	}
}

// RecordDelivery records a delivery attempt with the given status and latency.
func (m *Metrics) RecordDelivery(status string, latencySeconds float64) {
	if m == nil {
		return
	}
	if c, ok := m.deliveries[status]; ok {
		c.Inc()
	}
	m.latency.Observe(latencySeconds)
	if m.prom != nil {
		m.prom.deliveries.WithLabelValues(status).Inc()
		m.prom.latency.Observe(latencySeconds)
	}
}

// SetQueueDepth reports the current queue length.
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.depth.Set(float64(n))
	if m.prom != nil {
		m.prom.depth.Set(float64(n))
	}
}

// Events returns the number of events recorded with outcome.
func (m *Metrics) Events(outcome string) float64 {
	if m == nil {
		return 0
	}
	if c, ok := m.events[outcome]; ok {
		return c.Value()
	}
	return 0
}

// Deliveries returns the number of delivery attempts recorded with status.
func (m *Metrics) Deliveries(status string) float64 {
	if m == nil {
		return 0
	}
	if c, ok := m.deliveries[status]; ok {
		return c.Value()
	}
	return 0
}

// LatencySamples returns the number of latency observations.
func (m *Metrics) LatencySamples() uint64 {
	if m == nil {
		return 0
	}
	return m.latency.Count()
}

// QueueDepth returns the last reported queue length.
func (m *Metrics) QueueDepth() float64 {
	if m == nil {
		return 0
	}
	return m.depth.Value()
}
