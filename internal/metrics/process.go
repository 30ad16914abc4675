// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	procTerminateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camctl_proc_terminate_total",
		Help: "Signals sent to child process groups by signal and result",
	}, []string{"signal", "result"})

	procWaitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camctl_proc_wait_total",
		Help: "Child process exits observed during termination by outcome",
	}, []string{"outcome"})
)

// IncProcTerminate records a signal delivery attempt (result: sent, esrch, error).
func IncProcTerminate(signal, result string) {
	procTerminateTotal.WithLabelValues(signal, result).Inc()
}

// IncProcWait records how a terminated process was reaped
// (exited, forced, timeout).
func IncProcWait(outcome string) {
	procWaitTotal.WithLabelValues(outcome).Inc()
}
