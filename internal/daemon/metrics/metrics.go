// Package metrics exposes the daemon's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every daemon counter on a private registry so tests can
// build isolated instances. Proposal lifecycle counters are driven off the
// proposal store's update feed; the rest are incremented at the call sites.
type Metrics struct {
	registry *prometheus.Registry

	ProposalsCreated   prometheus.Counter
	ProposalsFinalized *prometheus.CounterVec
	ProposalsExpired   prometheus.Counter

	Turns      prometheus.Counter
	TurnErrors prometheus.Counter
	Frames     *prometheus.CounterVec

	WSConnections prometheus.Gauge
}

// New builds a Metrics instance with all collectors registered, including the
// standard Go runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	m := &Metrics{
		registry: registry,
		ProposalsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "seriem_proposals_created_total",
			Help: "Number of file-change proposals created by agent tools.",
		}),
		ProposalsFinalized: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "seriem_proposals_finalized_total",
			Help: "Number of proposals decided by a human, by decision.",
		}, []string{"decision"}),
		ProposalsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "seriem_proposals_expired_total",
			Help: "Number of proposals dropped by the pending-list TTL sweep.",
		}),
		Turns: factory.NewCounter(prometheus.CounterOpts{
			Name: "seriem_chat_turns_total",
			Help: "Number of agent turns started.",
		}),
		TurnErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "seriem_chat_turn_errors_total",
			Help: "Number of agent turns that ended with an error frame.",
		}),
		Frames: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "seriem_chat_frames_total",
			Help: "Number of frames sent to chat clients, by frame type.",
		}, []string{"type"}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "seriem_ws_connections",
			Help: "Number of currently open chat websocket connections.",
		}),
	}

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
