// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pyronear/camctl/internal/log"
)

// MessageResponse is the body of successful PTZ commands.
type MessageResponse struct {
	Message string `json:"message"`
}

// PTZ commands count as operator activity even when rejected.

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	s.streams.Touch()

	id := chi.URLParam(r, "camera_id")
	direction := chi.URLParam(r, "direction")
	ctx := log.ContextWithCameraID(r.Context(), id)

	speed := 0
	if raw := chi.URLParam(r, "speed"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, CodeInvalidArgument, "speed must be an integer")
			return
		}
		if n == 0 {
			writeError(w, r, http.StatusBadRequest, CodeInvalidArgument, "speed must be positive")
			return
		}
		speed = n
	}

	sent, err := s.cameras.Move(ctx, id, direction, speed)
	if err != nil {
		writeCameraError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Camera %s moved %s at speed %d", id, direction, sent),
	})
}

func (s *Server) handleStopCamera(w http.ResponseWriter, r *http.Request) {
	s.streams.Touch()

	id := chi.URLParam(r, "camera_id")
	if err := s.cameras.Stop(log.ContextWithCameraID(r.Context(), id), id); err != nil {
		writeCameraError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Camera %s stopped moving", id),
	})
}

func (s *Server) handleZoom(w http.ResponseWriter, r *http.Request) {
	s.streams.Touch()

	id := chi.URLParam(r, "camera_id")
	level, err := strconv.Atoi(chi.URLParam(r, "level"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, CodeInvalidArgument, "Zoom level must be between 0 and 64.")
		return
	}
	if err := s.cameras.Zoom(log.ContextWithCameraID(r.Context(), id), id, level); err != nil {
		writeCameraError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Camera %s zoom set to %d", id, level),
	})
}
