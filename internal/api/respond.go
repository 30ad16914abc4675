// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pyronear/camctl/internal/log"
	"github.com/pyronear/camctl/internal/ptz"
)

// Error codes returned in the "code" field of error bodies.
const (
	CodeUnknownStream     = "unknown_stream"
	CodeSpawnFailed       = "spawn_failed"
	CodeUnknownCamera     = "unknown_camera"
	CodeInvalidArgument   = "invalid_argument"
	CodeCameraUnavailable = "camera_unavailable"
	CodeCameraRejected    = "camera_rejected"
	CodeCameraBadResponse = "camera_bad_response"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code     string  `json:"code"`
	Error    string  `json:"error"`
	Previous *string `json:"previous_stream,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).Error().Err(err).Str(log.FieldEvent, "api.encode_error").Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg string) {
	writeJSON(w, r, status, ErrorResponse{Code: code, Error: msg})
}

// writeCameraError maps ptz errors onto HTTP statuses.
func writeCameraError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ptz.ErrUnknownCamera):
		writeError(w, r, http.StatusNotFound, CodeUnknownCamera, "Invalid camera ID.")
	case errors.Is(err, ptz.ErrInvalidArgument):
		writeError(w, r, http.StatusBadRequest, CodeInvalidArgument, err.Error())
	case errors.Is(err, ptz.ErrRejected):
		writeError(w, r, http.StatusBadGateway, CodeCameraRejected, err.Error())
	case errors.Is(err, ptz.ErrBadResponse):
		writeError(w, r, http.StatusBadGateway, CodeCameraBadResponse, err.Error())
	default:
		writeError(w, r, http.StatusBadGateway, CodeCameraUnavailable, err.Error())
	}
}
