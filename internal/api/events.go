// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pyronear/camctl/internal/log"
	"github.com/pyronear/camctl/internal/metrics"
	"github.com/pyronear/camctl/internal/stream"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 54 * time.Second
	wsBuffer     = 32
)

// eventHub streams registry events to websocket clients as JSON text frames.
type eventHub struct {
	events   *stream.Broadcaster
	upgrader websocket.Upgrader

	mu     sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
}

func newEventHub(events *stream.Broadcaster, allowedOrigins []string) *eventHub {
	h := &eventHub{
		events: events,
		conns:  make(map[*websocket.Conn]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// originChecker accepts same-host requests and configured origins.
func originChecker(allowed []string) func(*http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] || set[origin] {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}

func (h *eventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "events")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	if !h.add(conn) {
		_ = conn.Close()
		return
	}
	ch, cancel := h.events.Subscribe(wsBuffer)
	metrics.SetEventSubscribers(h.events.Subscribers())
	logger.Info().Str(log.FieldEvent, "events.subscribed").Str(log.FieldRemoteAddr, r.RemoteAddr).Msg("event subscriber connected")

	done := make(chan struct{})
	go h.readPump(conn, done)
	h.writePump(conn, ch, done)

	cancel()
	h.remove(conn)
	metrics.SetEventSubscribers(h.events.Subscribers())
	logger.Info().Str(log.FieldEvent, "events.unsubscribed").Msg("event subscriber disconnected")
}

// readPump drains control frames and reports when the client goes away.
func (h *eventHub) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *eventHub) writePump(conn *websocket.Conn, ch <-chan stream.Event, done <-chan struct{}) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-done:
			return
		case ev, ok := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *eventHub) add(conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[conn] = struct{}{}
	return true
}

func (h *eventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
}

// Close disconnects every client; their handlers then return.
func (h *eventHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn := range h.conns {
		_ = conn.Close()
	}
}
