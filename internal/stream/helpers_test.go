// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stream

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// fakeHandle is an in-memory Handle. live counts handles alive across a test
// so that exclusivity can be asserted without real processes.
type fakeHandle struct {
	key        Key
	alive      atomic.Bool
	terminates atomic.Int32
	live       *atomic.Int32
	startedAt  time.Time
}

func (h *fakeHandle) Key() Key      { return h.key }
func (h *fakeHandle) Alive() bool   { return h.alive.Load() }
func (h *fakeHandle) Info() ProcessInfo {
	return ProcessInfo{Key: h.key, StartedAt: h.startedAt, Alive: h.Alive()}
}

func (h *fakeHandle) Terminate() error {
	h.terminates.Add(1)
	if h.alive.CompareAndSwap(true, false) {
		h.live.Add(-1)
	}
	return nil
}

// crash simulates the process exiting on its own.
func (h *fakeHandle) crash() {
	if h.alive.CompareAndSwap(true, false) {
		h.live.Add(-1)
	}
}

type fakeSpawner struct {
	mu      sync.Mutex
	live    atomic.Int32
	maxLive atomic.Int32
	handles []*fakeHandle
	fail    map[Key]error
}

func newFakeSpawner() *fakeSpawner {
	return &fakeSpawner{fail: map[Key]error{}}
}

func (s *fakeSpawner) Spawn(key Key, argv []string) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.fail[key]; ok {
		return nil, err
	}
	h := &fakeHandle{key: key, live: &s.live, startedAt: time.Now()}
	h.alive.Store(true)
	n := s.live.Add(1)
	for {
		cur := s.maxLive.Load()
		if n <= cur || s.maxLive.CompareAndSwap(cur, n) {
			break
		}
	}
	s.handles = append(s.handles, h)
	return h, nil
}

func (s *fakeSpawner) last() *fakeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.handles) == 0 {
		return nil
	}
	return s.handles[len(s.handles)-1]
}

var errNoBinary = errors.New("exec: \"ffmpeg\": executable file not found in $PATH")
