package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/serroba/motoconnect/internal/ratelimit"
)

const namespace = "motoconnect"

// Metrics holds the rate limiter collectors on a private registry.
// safe labels only (preset, outcome) to avoid identifier cardinality explosions
type Metrics struct {
	reg       *prometheus.Registry
	handler   http.Handler
	decisions *prometheus.CounterVec
	entries   *prometheus.GaugeVec
	evictions *prometheus.CounterVec
	published *prometheus.CounterVec
}

// New returns a fresh registry with the Go and process collectors plus rate limit metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_decisions_total",
			Help:      "Rate limit decisions by preset and outcome",
		}, []string{"preset", "outcome"}),
		entries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ratelimit_entries",
			Help:      "Counter entries held per preset after the last sweep",
		}, []string{"preset"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_evictions_total",
			Help:      "Stale counter entries removed by the sweep",
		}, []string{"preset"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_denial_events_total",
			Help:      "Denial events handed to the broker by result",
		}, []string{"result"}),
	}

	reg.MustRegister(m.decisions, m.entries, m.evictions, m.published)

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	m.reg = reg

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}

// Registry exposes the underlying registry, used by tests to gather values.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

func (m *Metrics) ObserveDecision(preset ratelimit.Preset, decision ratelimit.Decision) {
	outcome := "allowed"
	if !decision.Allowed {
		outcome = "denied"
	}

	m.decisions.WithLabelValues(string(preset), outcome).Inc()
}

func (m *Metrics) ObserveSweep(preset ratelimit.Preset, evicted, remaining int) {
	m.evictions.WithLabelValues(string(preset)).Add(float64(evicted))
	m.entries.WithLabelValues(string(preset)).Set(float64(remaining))
}

// IncDenialPublished counts a denial event publish attempt.
func (m *Metrics) IncDenialPublished(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}

	m.published.WithLabelValues(result).Inc()
}

var _ ratelimit.Observer = (*Metrics)(nil)
