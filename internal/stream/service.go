// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stream

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pyronear/camctl/internal/telemetry"
)

// StopResult reports the outcome of Stop.
type StopResult struct {
	Stopped Key // empty if nothing was running
}

// StatusEntry is the verbose status of one live stream.
type StatusEntry struct {
	ProcessInfo
	Stats *ProcessStats `json:"stats,omitempty"`
}

// Service is the operator-facing stream API. Every call counts as activity.
type Service struct {
	registry *Registry
	activity *ActivityClock
	commands map[Key][]string
	tracer   trace.Tracer
}

// NewService binds the registry to the static stream table (key to argv).
func NewService(registry *Registry, activity *ActivityClock, commands map[Key][]string) *Service {
	table := make(map[Key][]string, len(commands))
	for k, argv := range commands {
		table[k] = append([]string(nil), argv...)
	}
	return &Service{
		registry: registry,
		activity: activity,
		commands: table,
		tracer:   telemetry.Tracer("camctl/stream"),
	}
}

// Touch records operator activity without any other effect.
func (s *Service) Touch() { s.activity.Touch() }

// Keys returns the configured stream keys, sorted.
func (s *Service) Keys() []Key {
	keys := make([]Key, 0, len(s.commands))
	for k := range s.commands {
		keys = append(keys, k)
	}
	sortKeys(keys)
	return keys
}

// Start makes key the only running stream. Unknown keys are rejected without
// touching the registry.
func (s *Service) Start(ctx context.Context, key Key) (StartResult, error) {
	_, span := s.tracer.Start(ctx, "stream.start",
		trace.WithAttributes(telemetry.StreamAttributes(string(key), "")...))
	defer span.End()

	s.activity.Touch()

	argv, ok := s.commands[key]
	if !ok {
		span.SetStatus(codes.Error, ErrUnknownStream.Error())
		return StartResult{}, ErrUnknownStream
	}

	res, err := s.registry.StartExclusive(key, argv)
	span.SetAttributes(telemetry.StreamAttributes("", string(res.Previous))...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "spawn failed")
		return res, err
	}
	return res, nil
}

// Stop evicts the active stream, if any.
func (s *Service) Stop(ctx context.Context) (StopResult, error) {
	_, span := s.tracer.Start(ctx, "stream.stop")
	defer span.End()

	s.activity.Touch()

	key, _ := s.registry.EvictActive(ReasonStopped)
	span.SetAttributes(telemetry.StreamAttributes(string(key), "")...)
	return StopResult{Stopped: key}, nil
}

// Status returns the keys of live streams.
func (s *Service) Status(ctx context.Context) []Key {
	_, span := s.tracer.Start(ctx, "stream.status")
	defer span.End()

	s.activity.Touch()
	return s.registry.ActiveKeys()
}

// Describe returns verbose status including resource usage where available.
func (s *Service) Describe(ctx context.Context) []StatusEntry {
	_, span := s.tracer.Start(ctx, "stream.describe")
	defer span.End()

	s.activity.Touch()
	infos := s.registry.Describe()
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })

	out := make([]StatusEntry, 0, len(infos))
	for _, info := range infos {
		entry := StatusEntry{ProcessInfo: info}
		if h, ok := s.registry.Lookup(info.Key); ok {
			if sp, ok := h.(interface{ Stats() (ProcessStats, error) }); ok {
				if st, err := sp.Stats(); err == nil {
					entry.Stats = &st
				}
			}
		}
		out = append(out, entry)
	}
	return out
}
