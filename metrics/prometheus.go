// Package metrics holds the Prometheus collectors of the camera.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsNegotiated counts successful SetupEndpoints exchanges.
	SessionsNegotiated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hc_camera_sessions_negotiated_total",
		Help: "Total number of negotiated stream sessions",
	})

	// StreamStarts counts transport starts and reconfigures by result.
	StreamStarts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hc_camera_stream_starts_total",
		Help: "Total number of streaming process starts",
	}, []string{"command", "result"})

	// StreamStops counts stopped processes by how they exited: graceful,
	// killed or failed.
	StreamStops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hc_camera_stream_stops_total",
		Help: "Total number of streaming process stops",
	}, []string{"mode"})

	StreamingStatus = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "hc_camera_streaming_status",
		Help: "Streaming status per stream index (0 available, 1 streaming, 2 busy)",
	}, []string{"stream"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "hc_camera_active_sessions",
		Help: "Current number of registered stream sessions",
	})

	RequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hc_camera_request_errors_total",
		Help: "Total number of rejected controller requests",
	}, []string{"request"})
)
