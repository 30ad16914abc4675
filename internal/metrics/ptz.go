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
	ptzCommandTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camctl_ptz_command_total",
		Help: "PTZ commands sent to cameras by camera, command and result",
	}, []string{"camera", "command", "result"})

	ptzCommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "camctl_ptz_command_duration_seconds",
		Help:    "Round-trip latency of PTZ commands",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	}, []string{"camera", "command"})
)

// ObservePTZCommand records the outcome and latency of one camera API call.
func ObservePTZCommand(camera, command, result string, d time.Duration) {
	ptzCommandTotal.WithLabelValues(camera, command, result).Inc()
	ptzCommandDuration.WithLabelValues(camera, command).Observe(d.Seconds())
}
