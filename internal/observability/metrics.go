package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counter: Total HTTP requests
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlna_http_requests_total",
			Help: "The total number of processed HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Histogram: Response time
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dlna_http_request_duration_seconds",
			Help:    "The latency of the HTTP requests",
			Buckets: prometheus.DefBuckets, // .005s to 10s
		},
		[]string{"method", "path"},
	)

	// Gauge: Active Streams (Goes up and down)
	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dlna_active_streams_current",
			Help: "The current number of active media deliveries in progress",
		},
	)

	// Counter: SSDP NOTIFY messages sent (alive advertisements + byebye)
	SSDPNotificationsSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dlna_ssdp_notifications_sent_total",
			Help: "The total number of SSDP NOTIFY messages sent",
		},
	)
)
