// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stream

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/pyronear/camctl/internal/log"
	"github.com/pyronear/camctl/internal/metrics"
)

const (
	DefaultIdleInterval  = 60 * time.Second
	DefaultIdleThreshold = 60 * time.Second
)

// IdleConfig controls the idle monitor.
type IdleConfig struct {
	Interval  time.Duration // how often activity is checked
	Threshold time.Duration // inactivity after which the active stream is evicted
}

// IdleMonitor evicts the active stream once no command has been accepted
// for longer than the threshold.
type IdleMonitor struct {
	registry *Registry
	activity *ActivityClock
	conf     IdleConfig
	logger   zerolog.Logger
}

// NewIdleMonitor creates a monitor; zero config values take the defaults.
func NewIdleMonitor(registry *Registry, activity *ActivityClock, conf IdleConfig) *IdleMonitor {
	if conf.Interval <= 0 {
		conf.Interval = DefaultIdleInterval
	}
	if conf.Threshold <= 0 {
		conf.Threshold = DefaultIdleThreshold
	}
	return &IdleMonitor{
		registry: registry,
		activity: activity,
		conf:     conf,
		logger:   log.WithComponent("idle"),
	}
}

// Run checks for inactivity every interval until ctx is cancelled.
func (m *IdleMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.conf.Interval)
	defer ticker.Stop()

	m.logger.Info().
		Str(log.FieldEvent, "idle.monitor.started").
		Dur("interval", m.conf.Interval).
		Dur("threshold", m.conf.Threshold).
		Msg("idle monitor started")

	for {
		select {
		case <-ctx.Done():
			m.logger.Debug().Str(log.FieldEvent, "idle.monitor.stopped").Msg("idle monitor stopped")
			return nil
		case <-ticker.C:
			m.CheckOnce()
		}
	}
}

// CheckOnce performs one evaluation and returns the evicted key, if any.
// Idleness is read with the registry lock held, so a command recorded before
// the decision always keeps the stream alive.
func (m *IdleMonitor) CheckOnce() (Key, bool) {
	var (
		idle    time.Duration
		expired bool
	)
	key, ok := m.registry.EvictIf(ReasonIdle, func() bool {
		idle = m.activity.IdleFor()
		expired = idle > m.conf.Threshold
		return expired
	})

	switch {
	case !expired:
		metrics.IncIdleCheck("active")
		return "", false
	case !ok:
		metrics.IncIdleCheck("empty")
		return "", false
	}

	metrics.IncIdleCheck("evicted")
	m.logger.Info().
		Str(log.FieldEvent, "stream.idle_evicted").
		Str(log.FieldStreamKey, string(key)).
		Dur("idle", idle).
		Msgf("Stream for %s stopped due to inactivity", key)
	return key, true
}
