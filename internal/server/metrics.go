package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fancard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fancard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Card processing metrics
	cardRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fancard_card_requests_total",
			Help: "Total number of card generation requests",
		},
		[]string{"status"}, // status: ok, client_error, timeout, server_error
	)

	cardProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fancard_card_processing_duration_seconds",
			Help:    "Card generation duration in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50, 100},
		},
	)

	// File upload metrics
	uploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fancard_upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: []float64{1024, 10 * 1024, 100 * 1024, 1024 * 1024, 4 * 1024 * 1024, 16 * 1024 * 1024},
		},
	)

	// Download metrics
	downloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fancard_downloads_total",
			Help: "Total number of card downloads",
		},
		[]string{"status"}, // status: ok, not_found
	)
)
