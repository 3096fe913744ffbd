package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealership_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dealership_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Realtime metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dealership_ws_connections",
			Help: "Open WebSocket connections",
		},
	)

	MessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealership_chat_messages_total",
			Help: "Chat messages stored",
		},
		[]string{"sender_role"},
	)

	AccessDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealership_chat_denied_total",
			Help: "Realtime actions dropped by the access guard",
		},
		[]string{"action"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealership_ws_events_dropped_total",
			Help: "Realtime events dropped before or after handling",
		},
		[]string{"reason"},
	)

	NotificationsPushed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealership_notifications_pushed_total",
			Help: "Notification events queued to connections",
		},
		[]string{"event"},
	)

	// Retention metrics
	RetentionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealership_retention_runs_total",
			Help: "Retention sweeper runs",
		},
		[]string{"result"},
	)

	RetentionPurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dealership_retention_purged_total",
			Help: "Messages deleted by the retention sweeper",
		},
	)

	// Cluster metrics
	RelayMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dealership_relay_messages_total",
			Help: "Fan-out envelopes exchanged with other instances",
		},
		[]string{"direction"},
	)
)
