// Package metrics holds the prometheus collectors of the authenticated request gateway.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	RefreshResultSuccess string = "success"
	RefreshResultFailure string = "failure"
)

type GatewayMetrics struct {
	Refreshes  *prometheus.CounterVec
	QueueDepth prometheus.Gauge
	Replays    *prometheus.CounterVec
	SignOuts   prometheus.Counter
}

// NewGatewayMetrics registers the collectors with reg. A nil registerer creates unregistered collectors.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	factory := promauto.With(reg)
	return &GatewayMetrics{
		Refreshes: factory.NewCounterVec(
			prometheus.CounterOpts{Name: "notes_gateway_refresh_total", Help: "Credential refresh calls by result"},
			[]string{"result"},
		),
		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{Name: "notes_gateway_pending_requests", Help: "Requests parked while a refresh is in flight"},
		),
		Replays: factory.NewCounterVec(
			prometheus.CounterOpts{Name: "notes_gateway_replay_total", Help: "Requests replayed after a refresh by origin"},
			[]string{"origin"},
		),
		SignOuts: factory.NewCounter(
			prometheus.CounterOpts{Name: "notes_gateway_sign_out_total", Help: "Sessions ended by an irrecoverable refresh failure"},
		),
	}
}

// Noop returns collectors that are not registered anywhere.
func Noop() *GatewayMetrics {
	return NewGatewayMetrics(nil)
}

func (m *GatewayMetrics) RefreshSucceeded() {
	m.Refreshes.WithLabelValues(RefreshResultSuccess).Inc()
}

func (m *GatewayMetrics) RefreshFailed() {
	m.Refreshes.WithLabelValues(RefreshResultFailure).Inc()
}

func (m *GatewayMetrics) Replayed(origin string) {
	m.Replays.WithLabelValues(origin).Inc()
}
