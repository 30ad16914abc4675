// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pyronear/camctl/internal/log"
	"github.com/pyronear/camctl/internal/stream"
)

const (
	msgNoPrevious  = "No previous stream was running"
	msgNoActive    = "No active stream was running"
	msgNoneRunning = "No stream is running"
)

// StartResponse answers POST /start_stream/{camera_id}.
type StartResponse struct {
	Message  string `json:"message"`
	Stream   string `json:"stream"`
	Previous string `json:"previous_stream"`
}

// StopResponse answers POST /stop_stream.
type StopResponse struct {
	Message string `json:"message"`
	Stopped string `json:"stopped,omitempty"`
}

// StatusResponse answers GET /status.
type StatusResponse struct {
	ActiveStreams []string       `json:"active_streams"`
	Message       string         `json:"message,omitempty"`
	Streams       []StreamDetail `json:"streams,omitempty"`
}

// StreamDetail is the verbose view of one live stream.
type StreamDetail struct {
	stream.StatusEntry
	UptimeSeconds int64 `json:"uptime_seconds"`
}

func (s *Server) handleStartStream(w http.ResponseWriter, r *http.Request) {
	key := stream.Key(chi.URLParam(r, "camera_id"))
	ctx := log.ContextWithCameraID(r.Context(), string(key))
	logger := log.FromContext(ctx)

	res, err := s.streams.Start(ctx, key)
	switch {
	case errors.Is(err, stream.ErrUnknownStream):
		writeError(w, r, http.StatusNotFound, CodeUnknownStream, "Invalid camera ID.")
		return
	case err != nil:
		logger.Error().Err(err).Str(log.FieldStreamKey, string(key)).Msg("stream start failed")
		body := ErrorResponse{Code: CodeSpawnFailed, Error: err.Error()}
		if res.Previous != "" {
			prev := string(res.Previous)
			body.Previous = &prev
		}
		writeJSON(w, r, http.StatusInternalServerError, body)
		return
	}

	previous := msgNoPrevious
	if res.Previous != "" {
		previous = string(res.Previous)
	}
	writeJSON(w, r, http.StatusOK, StartResponse{
		Message:  fmt.Sprintf("Stream for %s started", key),
		Stream:   string(key),
		Previous: previous,
	})
}

func (s *Server) handleStopStream(w http.ResponseWriter, r *http.Request) {
	res, err := s.streams.Stop(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "stop_failed", err.Error())
		return
	}
	if res.Stopped == "" {
		writeJSON(w, r, http.StatusOK, StopResponse{Message: msgNoActive})
		return
	}
	writeJSON(w, r, http.StatusOK, StopResponse{
		Message: fmt.Sprintf("Stream for %s stopped", res.Stopped),
		Stopped: string(res.Stopped),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{ActiveStreams: []string{}}

	if r.URL.Query().Get("verbose") == "true" {
		now := time.Now()
		for _, e := range s.streams.Describe(r.Context()) {
			resp.ActiveStreams = append(resp.ActiveStreams, string(e.Key))
			resp.Streams = append(resp.Streams, StreamDetail{
				StatusEntry:   e,
				UptimeSeconds: int64(now.Sub(e.StartedAt).Seconds()),
			})
		}
	} else {
		for _, k := range s.streams.Status(r.Context()) {
			resp.ActiveStreams = append(resp.ActiveStreams, string(k))
		}
	}

	if len(resp.ActiveStreams) == 0 {
		resp.Message = msgNoneRunning
	}
	writeJSON(w, r, http.StatusOK, resp)
}
