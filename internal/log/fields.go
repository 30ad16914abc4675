// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldRequestID = "request_id"
	FieldCameraID  = "camera_id"
	FieldStreamKey = "stream"
	FieldPiName    = "pi"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldPID       = "pid"
	FieldReason    = "reason"
	FieldPrevious  = "previous_stream"

	// HTTP fields
	FieldMethod     = "method"
	FieldRoute      = "route"
	FieldStatus     = "status"
	FieldBytes      = "bytes"
	FieldDurationMS = "duration_ms"
	FieldRemoteAddr = "remote_addr"
)
