// Package metrics exposes Prometheus instrumentation for the relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Alert outcome label values
const (
	OutcomeRelayed        = "relayed"
	OutcomeInvalid        = "invalid"
	OutcomeNotFound       = "not_found"
	OutcomeLookupFailed   = "lookup_failed"
	OutcomeDeliveryFailed = "delivery_failed"
)

// Metrics holds all Prometheus metrics for the relay.
type Metrics struct {
	registry *prometheus.Registry

	AlertsTotal       *prometheus.CounterVec // labels: outcome, level
	ChartFailures     prometheus.Counter
	LookupDuration    prometheus.Histogram
	DeliveryDuration  prometheus.Histogram
	EventPublishFails prometheus.Counter
}

// New registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		AlertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_alerts_total",
			Help: "Price alerts handled, by outcome and level",
		}, []string{"outcome", "level"}),
		ChartFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_chart_fetch_failures_total",
			Help: "Chart image fetches that failed and were skipped",
		}),
		LookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_watchlist_lookup_seconds",
			Help:    "Watchlist lookup latency",
			Buckets: prometheus.DefBuckets,
		}),
		DeliveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_delivery_seconds",
			Help:    "Webhook delivery latency",
			Buckets: prometheus.DefBuckets,
		}),
		EventPublishFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_event_publish_failures_total",
			Help: "Relayed-alert events that could not be published",
		}),
	}

	reg.MustRegister(m.AlertsTotal, m.ChartFailures, m.LookupDuration, m.DeliveryDuration, m.EventPublishFails)
	return m
}

// ObserveAlert counts one handled alert
func (m *Metrics) ObserveAlert(outcome, level string) {
	m.AlertsTotal.WithLabelValues(outcome, level).Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
