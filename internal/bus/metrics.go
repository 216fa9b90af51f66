package bus

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routingMetrics tracks what the routing path does to traffic. A nil
// receiver is a valid no-op so cores with metrics disabled skip all of it.
type routingMetrics struct {
	registry *prometheus.Registry

	routed   *prometheus.CounterVec
	dropped  prometheus.Counter
	cloned   prometheus.Counter
	rerouted prometheus.Counter
	faults   prometheus.Counter
	filters  prometheus.Gauge
}

func newRoutingMetrics(coreName string) *routingMetrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"core": coreName}

	m := &routingMetrics{
		registry: registry,
		routed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "simwire",
			Name:        "messages_routed_total",
			Help:        "Messages folded through a filter chain, by side.",
			ConstLabels: labels,
		}, []string{"side"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "simwire",
			Name:        "messages_dropped_total",
			Help:        "Messages discarded by a filter operation.",
			ConstLabels: labels,
		}),
		cloned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "simwire",
			Name:        "messages_cloned_total",
			Help:        "Duplicate messages emitted by cloning filters.",
			ConstLabels: labels,
		}),
		rerouted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "simwire",
			Name:        "messages_rerouted_total",
			Help:        "Messages whose destination was rewritten in flight.",
			ConstLabels: labels,
		}),
		faults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "simwire",
			Name:        "operation_faults_total",
			Help:        "Filter operations that panicked or misbehaved; the message passed through unmodified.",
			ConstLabels: labels,
		}),
		filters: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "simwire",
			Name:        "active_filters",
			Help:        "Routing records currently registered.",
			ConstLabels: labels,
		}),
	}

	registry.MustRegister(m.routed, m.dropped, m.cloned, m.rerouted, m.faults, m.filters)
	return m
}

func (m *routingMetrics) handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *routingMetrics) incRouted(side string) {
	if m != nil {
		m.routed.WithLabelValues(side).Inc()
	}
}

func (m *routingMetrics) incDropped() {
	if m != nil {
		m.dropped.Inc()
	}
}

func (m *routingMetrics) addCloned(n int) {
	if m != nil && n > 0 {
		m.cloned.Add(float64(n))
	}
}

func (m *routingMetrics) incRerouted() {
	if m != nil {
		m.rerouted.Inc()
	}
}

func (m *routingMetrics) incFaults() {
	if m != nil {
		m.faults.Inc()
	}
}

func (m *routingMetrics) setActiveFilters(n int) {
	if m != nil {
		m.filters.Set(float64(n))
	}
}
