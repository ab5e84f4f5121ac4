// Package prometheus implements metrics.Metrics on top of
// github.com/prometheus/client_golang.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rob-gra/go-caproto/metrics"
)

// caMetrics is the Prometheus-backed metrics.Metrics implementation.
type caMetrics struct {
	commandsSent      *prometheus.CounterVec
	commandsReceived  *prometheus.CounterVec
	protocolErrors    *prometheus.CounterVec
	searchesCompleted prometheus.Counter
	activeChannels    prometheus.Gauge
	activeSubs        prometheus.Gauge
}

// New registers and returns a metrics.Metrics backed by the default
// Prometheus registry.
func New() metrics.Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer is New, registering against reg instead of the default
// registry; useful in tests or to run multiple independent peers in one
// process.
func NewWithRegisterer(reg prometheus.Registerer) metrics.Metrics {
	factory := promauto.With(reg)
	return &caMetrics{
		commandsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caproto_commands_sent_total",
			Help: "Total commands sent, by command name.",
		}, []string{"command"}),
		commandsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caproto_commands_received_total",
			Help: "Total commands received, by command name.",
		}, []string{"command"}),
		protocolErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "caproto_protocol_errors_total",
			Help: "Total protocol errors surfaced, by kind (local, remote).",
		}, []string{"kind"}),
		searchesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "caproto_searches_completed_total",
			Help: "Total SearchRequests matched to a SearchResponse.",
		}),
		activeChannels: factory.NewGauge(prometheus.GaugeOpts{
			Name: "caproto_active_channels",
			Help: "Current number of channels open on this circuit.",
		}),
		activeSubs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "caproto_active_subscriptions",
			Help: "Current number of live subscriptions on this circuit.",
		}),
	}
}

func (m *caMetrics) RecordCommandSent(command string) {
	m.commandsSent.WithLabelValues(command).Inc()
}

func (m *caMetrics) RecordCommandReceived(command string) {
	m.commandsReceived.WithLabelValues(command).Inc()
}

func (m *caMetrics) RecordProtocolError(kind string) {
	m.protocolErrors.WithLabelValues(kind).Inc()
}

func (m *caMetrics) RecordSearchCompleted() {
	m.searchesCompleted.Inc()
}

func (m *caMetrics) SetActiveChannels(count int) {
	m.activeChannels.Set(float64(count))
}

func (m *caMetrics) SetActiveSubscriptions(count int) {
	m.activeSubs.Set(float64(count))
}
