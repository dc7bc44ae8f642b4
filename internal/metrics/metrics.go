// Package metrics provides Prometheus metrics for the bot.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the bot.
type Metrics struct {
	DispatchesTotal  *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	SendFailures     prometheus.Counter
	AuthLookups      *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		DispatchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_dispatches_total",
				Help: "Total number of dispatched events by command and outcome.",
			},
			[]string{"command", "outcome"},
		),
		DispatchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bot_dispatch_duration_seconds",
				Help:    "Event dispatch duration by command.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		SendFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bot_transport_send_failures_total",
				Help: "Total outbound transport calls that failed.",
			},
		),
		AuthLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_auth_lookups_total",
				Help: "Identity cache lookups by result (hit, miss, absent).",
			},
			[]string{"result"},
		),
		registry: reg,
	}

	reg.MustRegister(m.DispatchesTotal)
	reg.MustRegister(m.DispatchDuration)
	reg.MustRegister(m.SendFailures)
	reg.MustRegister(m.AuthLookups)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordDispatch increments the dispatch counter.
func (m *Metrics) RecordDispatch(command, outcome string) {
	m.DispatchesTotal.WithLabelValues(command, outcome).Inc()
}

// ObserveDispatch records dispatch duration.
func (m *Metrics) ObserveDispatch(command string, seconds float64) {
	m.DispatchDuration.WithLabelValues(command).Observe(seconds)
}

// RecordSendFailure increments the transport failure counter.
func (m *Metrics) RecordSendFailure() {
	m.SendFailures.Inc()
}

// RecordAuthLookup increments the identity lookup counter.
func (m *Metrics) RecordAuthLookup(result string) {
	m.AuthLookups.WithLabelValues(result).Inc()
}
