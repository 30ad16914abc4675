// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ptz

import (
	"errors"
	"fmt"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrUnknownCamera   = errors.New("ptz: unknown camera")
	ErrInvalidArgument = errors.New("ptz: invalid argument")
	ErrUnavailable     = errors.New("ptz: camera unreachable or transport failure")
	ErrRejected        = errors.New("ptz: command rejected by camera")
	ErrBadResponse     = errors.New("ptz: invalid response format")
)

// CameraError wraps a sentinel with the command context. Credentials are
// never part of it.
type CameraError struct {
	Sentinel error
	Camera   string
	Command  string
	Status   int
	Body     string
	Err      error
}

func (e *CameraError) Error() string {
	msg := fmt.Sprintf("camera %s: %s: %v", e.Camera, e.Command, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CameraError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}
