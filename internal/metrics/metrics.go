package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "parley_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Relay metrics
	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "parley_connected_clients",
			Help: "Currently connected WebSocket clients",
		},
	)

	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_events_received_total",
			Help: "Inbound client events by type",
		},
		[]string{"event"},
	)

	MessagesRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parley_messages_relayed_total",
			Help: "Messages relayed to clients",
		},
		[]string{"kind"}, // "broadcast" or "private"
	)

	// Persistence metrics
	PersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "parley_history_persist_failures_total",
			Help: "Failed history mirror writes",
		},
	)
)
