// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package stream supervises the single active camera stream: it spawns the
// streaming subprocess, guarantees that at most one is live at any instant,
// and evicts it once the panel has been idle for too long.
package stream

import "sort"

// Key identifies a configured stream (for example "cam1").
type Key string

func (k Key) String() string { return string(k) }

// EvictReason records why a stream left the registry.
type EvictReason string

const (
	ReasonSuperseded EvictReason = "superseded"
	ReasonStopped    EvictReason = "stopped"
	ReasonIdle       EvictReason = "idle"
	ReasonExited     EvictReason = "exited"
	ReasonShutdown   EvictReason = "shutdown"
)

func sortKeys(keys []Key) {
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
}
