// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "camctl_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "camctl_http_requests_in_flight",
		Help: "Current number of HTTP requests being served",
	})

	rateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camctl_ratelimit_exceeded_total",
		Help: "Requests rejected by the ingress rate limiter",
	}, []string{"path"})

	eventSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "camctl_event_subscribers",
		Help: "Connected stream event websocket clients",
	})
)

// HTTPInFlight adjusts the in-flight gauge by delta.
func HTTPInFlight(delta int) {
	httpRequestsInFlight.Add(float64(delta))
}

// ObserveHTTPRequest records one served request.
func ObserveHTTPRequest(method, path string, status int, d time.Duration) {
	httpRequestDuration.WithLabelValues(method, path, strconv.Itoa(status)).Observe(d.Seconds())
}

// IncRateLimitExceeded records a request rejected by the rate limiter.
func IncRateLimitExceeded(path string) {
	rateLimitExceeded.WithLabelValues(path).Inc()
}

// SetEventSubscribers publishes the number of websocket event subscribers.
func SetEventSubscribers(n int) {
	eventSubscribers.Set(float64(n))
}
