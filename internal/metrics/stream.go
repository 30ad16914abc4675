// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StreamStartTotal tracks the outcome of stream start attempts.
	StreamStartTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camctl_stream_start_total",
		Help: "Total number of stream start attempts by stream and result",
	}, []string{"stream", "result"})

	// StreamEvictTotal counts streams removed from the registry, by reason
	// (superseded, stopped, idle, exited, shutdown).
	StreamEvictTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camctl_stream_evict_total",
		Help: "Total number of streams evicted by reason",
	}, []string{"reason"})

	// StreamActive is 1 while a stream subprocess is registered and alive.
	StreamActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "camctl_stream_active",
		Help: "Number of live stream subprocesses (0 or 1)",
	})

	// StreamUptime records how long a stream ran before it left the registry.
	StreamUptime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "camctl_stream_uptime_seconds",
		Help:    "Lifetime of stream subprocesses by eviction reason",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 900, 1800, 3600},
	}, []string{"reason"})

	// StreamIdleChecks counts idle monitor evaluations by outcome.
	StreamIdleChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camctl_stream_idle_checks_total",
		Help: "Idle monitor evaluations by outcome (active, evicted, empty)",
	}, []string{"outcome"})
)

// IncStreamStart records a stream start attempt outcome.
func IncStreamStart(stream string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	StreamStartTotal.WithLabelValues(stream, result).Inc()
}

// RecordStreamEvicted records an eviction along with the lifetime of the evicted process.
func RecordStreamEvicted(reason string, uptime time.Duration) {
	StreamEvictTotal.WithLabelValues(reason).Inc()
	StreamUptime.WithLabelValues(reason).Observe(uptime.Seconds())
}

// SetStreamActive publishes the number of live stream subprocesses.
func SetStreamActive(n int) {
	StreamActive.Set(float64(n))
}

// IncIdleCheck records one idle monitor evaluation.
func IncIdleCheck(outcome string) {
	StreamIdleChecks.WithLabelValues(outcome).Inc()
}
