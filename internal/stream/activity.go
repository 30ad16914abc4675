// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stream

import (
	"sync"
	"time"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// ActivityClock holds the time of the last accepted operator command.
type ActivityClock struct {
	mu    sync.Mutex
	last  time.Time
	clock Clock
}

// NewActivityClock starts the clock at the current time. A nil clock means wall time.
func NewActivityClock(c Clock) *ActivityClock {
	if c == nil {
		c = realClock{}
	}
	return &ActivityClock{last: c.Now(), clock: c}
}

// Touch records activity now.
func (a *ActivityClock) Touch() {
	a.mu.Lock()
	a.last = a.clock.Now()
	a.mu.Unlock()
}

// Last returns the time of the most recent activity.
func (a *ActivityClock) Last() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

// IdleFor returns how long no command has been accepted.
func (a *ActivityClock) IdleFor() time.Duration {
	return a.clock.Now().Sub(a.Last())
}
