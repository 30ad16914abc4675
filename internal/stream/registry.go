// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stream

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pyronear/camctl/internal/log"
	"github.com/pyronear/camctl/internal/metrics"
)

// StartResult reports the outcome of StartExclusive.
type StartResult struct {
	Key      Key
	Previous Key // stream evicted to make room; empty if none was running
}

// Registry is the single owner of stream subprocesses. Every mutation runs
// under one mutex, so "evict the active stream" and "start a new one" can
// never interleave with each other or with the idle monitor.
type Registry struct {
	mu      sync.Mutex
	entries map[Key]Handle
	spawn   Spawner
	logger  zerolog.Logger
	observe Observer
	seq     uint64 // last event sequence number, guarded by mu
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithObserver registers a callback for registry events.
func WithObserver(o Observer) RegistryOption {
	return func(r *Registry) { r.observe = o }
}

// NewRegistry creates an empty registry that launches processes with spawn.
func NewRegistry(spawn Spawner, opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[Key]Handle),
		spawn:   spawn,
		logger:  log.WithComponent("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EvictActive terminates and removes the live stream, if any, and returns
// its key. Dead entries found on the way are pruned.
func (r *Registry) EvictActive(reason EvictReason) (Key, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key, ok, events := r.evictLocked(reason)
	r.emitLocked(events)
	return key, ok
}

// EvictIf is EvictActive guarded by cond, which is evaluated with the
// registry lock held. When cond reports false only dead entries are pruned.
// Callers that record activity before entering the registry are therefore
// ordered strictly before or after the decision.
func (r *Registry) EvictIf(reason EvictReason, cond func() bool) (Key, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !cond() {
		r.emitLocked(r.pruneLocked())
		return "", false
	}
	key, ok, events := r.evictLocked(reason)
	r.emitLocked(events)
	return key, ok
}

// StartExclusive evicts the live stream and spawns key in one critical
// section. On spawn failure the registry is left empty and the returned
// result still names the evicted stream.
func (r *Registry) StartExclusive(key Key, argv []string) (StartResult, error) {
	r.mu.Lock()
	prev, _, events := r.evictLocked(ReasonSuperseded)
	res := StartResult{Key: key, Previous: prev}

	h, err := r.spawn(key, argv)
	if err != nil {
		var se *SpawnError
		if !errors.As(err, &se) {
			err = &SpawnError{Key: key, Argv: argv, Err: err}
		}
		r.emitLocked(append(events, Event{Type: EventStartFailed, Stream: key, Previous: prev, Error: err.Error(), At: time.Now()}))
		r.mu.Unlock()

		metrics.IncStreamStart(string(key), false)
		r.logger.Error().Err(err).
			Str(log.FieldEvent, "stream.start_failed").
			Str(log.FieldStreamKey, string(key)).
			Str(log.FieldPrevious, string(prev)).
			Msg("failed to start stream")
		return res, err
	}

	r.entries[key] = h
	metrics.SetStreamActive(len(r.entries))
	r.emitLocked(append(events, Event{Type: EventStarted, Stream: key, Previous: prev, At: time.Now()}))
	r.mu.Unlock()

	metrics.IncStreamStart(string(key), true)
	r.logger.Info().
		Str(log.FieldEvent, "stream.started").
		Str(log.FieldStreamKey, string(key)).
		Str(log.FieldPrevious, string(prev)).
		Msg("stream started")
	return res, nil
}

// ActiveKeys returns the sorted keys of live streams, pruning dead entries.
func (r *Registry) ActiveKeys() []Key {
	r.mu.Lock()
	r.emitLocked(r.pruneLocked())
	keys := make([]Key, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	sortKeys(keys)
	return keys
}

// Describe returns process details for live streams, pruning dead entries.
func (r *Registry) Describe() []ProcessInfo {
	r.mu.Lock()
	r.emitLocked(r.pruneLocked())
	infos := make([]ProcessInfo, 0, len(r.entries))
	for _, h := range r.entries {
		infos = append(infos, h.Info())
	}
	r.mu.Unlock()

	return infos
}

// Lookup returns the live handle for key.
func (r *Registry) Lookup(key Key) (Handle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.entries[key]
	if !ok || !h.Alive() {
		return nil, false
	}
	return h, true
}

// Shutdown evicts whatever is running so no child outlives the daemon.
func (r *Registry) Shutdown() {
	if key, ok := r.EvictActive(ReasonShutdown); ok {
		r.logger.Info().
			Str(log.FieldEvent, "stream.shutdown").
			Str(log.FieldStreamKey, string(key)).
			Msg("stream stopped for shutdown")
	}
}

// evictLocked must be called with r.mu held.
func (r *Registry) evictLocked(reason EvictReason) (Key, bool, []Event) {
	var (
		evicted Key
		found   bool
		events  []Event
	)
	for key, h := range r.entries {
		if !h.Alive() {
			events = append(events, r.removeLocked(key, h, ReasonExited))
			continue
		}
		if err := h.Terminate(); err != nil {
			r.logger.Error().Err(err).
				Str(log.FieldEvent, "stream.terminate_failed").
				Str(log.FieldStreamKey, string(key)).
				Msg("stream did not terminate cleanly")
		}
		events = append(events, r.removeLocked(key, h, reason))
		if !found {
			evicted, found = key, true
		}
	}
	return evicted, found, events
}

// pruneLocked must be called with r.mu held.
func (r *Registry) pruneLocked() []Event {
	var events []Event
	for key, h := range r.entries {
		if !h.Alive() {
			events = append(events, r.removeLocked(key, h, ReasonExited))
		}
	}
	return events
}

func (r *Registry) removeLocked(key Key, h Handle, reason EvictReason) Event {
	delete(r.entries, key)
	metrics.SetStreamActive(len(r.entries))
	metrics.RecordStreamEvicted(string(reason), time.Since(h.Info().StartedAt))

	evt := r.logger.Info()
	if reason == ReasonExited {
		evt = r.logger.Warn()
	}
	evt.Str(log.FieldEvent, "stream.evicted").
		Str(log.FieldStreamKey, string(key)).
		Str(log.FieldReason, string(reason)).
		Msg("stream removed from registry")

	return Event{Type: EventEvicted, Stream: key, Reason: reason, At: time.Now()}
}

// emitLocked numbers events and hands them to the observer in registry
// order. It must be called with r.mu held.
func (r *Registry) emitLocked(events []Event) {
	for _, ev := range events {
		r.seq++
		ev.Seq = r.seq
		if r.observe != nil {
			r.observe(ev)
		}
	}
}
