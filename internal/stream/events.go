// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stream

import (
	"sync"
	"time"
)

// EventType names a registry transition.
type EventType string

const (
	EventStarted     EventType = "stream.started"
	EventStartFailed EventType = "stream.start_failed"
	EventEvicted     EventType = "stream.evicted"
)

// Event is published for every registry transition.
type Event struct {
	Seq      uint64      `json:"seq"` // strictly increasing per registry
	Type     EventType   `json:"type"`
	Stream   Key         `json:"stream"`
	Reason   EvictReason `json:"reason,omitempty"`
	Previous Key         `json:"previous_stream,omitempty"`
	Error    string      `json:"error,omitempty"`
	At       time.Time   `json:"at"`
}

// Observer receives registry events in order. It is called with the registry
// lock held, so it must not block or call back into the registry.
type Observer func(Event)

// Broadcaster fans events out to subscribers. Slow subscribers lose events
// rather than stalling the registry.
type Broadcaster struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

// NewBroadcaster creates an empty Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan Event)}
}

// Subscribe registers a subscriber with the given buffer. The returned cancel
// func unregisters it and closes the channel; it is safe to call twice.
func (b *Broadcaster) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev to every subscriber without blocking.
func (b *Broadcaster) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the current subscriber count.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
