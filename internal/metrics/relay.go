// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	relayForwardTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camctl_relay_forward_total",
		Help: "Commands forwarded to the selected Pi by result",
	}, []string{"result"})

	relayStoreReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camctl_relay_store_reload_total",
		Help: "Reloads of the Pi mapping file by result",
	}, []string{"result"})
)

// IncRelayForward records one forwarded command (result: ok, no_selection, unreachable).
func IncRelayForward(result string) {
	relayForwardTotal.WithLabelValues(result).Inc()
}

// IncRelayStoreReload records a mapping file reload.
func IncRelayStoreReload(success bool) {
	result := "error"
	if success {
		result = "ok"
	}
	relayStoreReloads.WithLabelValues(result).Inc()
}
