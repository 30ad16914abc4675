// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the camera daemon's HTTP interface: stream control,
// PTZ commands, live stream events and health probes.
package api

import (
	"context"
	"net/http"

	"github.com/pyronear/camctl/internal/api/middleware"
	"github.com/pyronear/camctl/internal/health"
	"github.com/pyronear/camctl/internal/stream"
)

// StreamService is the stream supervisor surface used by the handlers.
type StreamService interface {
	Touch()
	Start(ctx context.Context, key stream.Key) (stream.StartResult, error)
	Stop(ctx context.Context) (stream.StopResult, error)
	Status(ctx context.Context) []stream.Key
	Describe(ctx context.Context) []stream.StatusEntry
}

// CameraController is the PTZ surface used by the handlers.
type CameraController interface {
	Move(ctx context.Context, id, op string, speed int) (int, error)
	Stop(ctx context.Context, id string) error
	Zoom(ctx context.Context, id string, pos int) error
}

// Deps wires the server to its collaborators. Events and Health may be nil.
type Deps struct {
	Streams StreamService
	Cameras CameraController
	Events  *stream.Broadcaster
	Health  *health.Manager
	Stack   middleware.StackConfig
}

// Server is the camctl HTTP API.
type Server struct {
	streams StreamService
	cameras CameraController
	events  *eventHub
	health  *health.Manager
	stack   middleware.StackConfig
}

// New creates the API server.
func New(d Deps) *Server {
	s := &Server{
		streams: d.Streams,
		cameras: d.Cameras,
		health:  d.Health,
		stack:   d.Stack,
	}
	if d.Events != nil {
		s.events = newEventHub(d.Events, d.Stack.AllowedOrigins)
	}
	return s
}

// Handler returns the routed handler with the middleware stack applied.
func (s *Server) Handler() http.Handler {
	r := middleware.NewRouter(s.stack)

	r.Post("/start_stream/{camera_id}", s.handleStartStream)
	r.Post("/stop_stream", s.handleStopStream)
	r.Get("/status", s.handleStatus)

	r.Post("/move/{camera_id}/{direction}", s.handleMove)
	r.Post("/move/{camera_id}/{direction}/{speed}", s.handleMove)
	r.Post("/stop/{camera_id}", s.handleStopCamera)
	r.Post("/zoom/{camera_id}/{level}", s.handleZoom)

	if s.events != nil {
		r.Get("/events", s.events.ServeHTTP)
	}
	if s.health != nil {
		r.Get("/healthz", s.health.ServeHealth)
		r.Get("/readyz", s.health.ServeReady)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "not_found", "route not found")
	})
	return r
}

// CloseEvents disconnects all websocket subscribers.
func (s *Server) CloseEvents() {
	if s.events != nil {
		s.events.Close()
	}
}
