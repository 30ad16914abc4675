// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Stream attributes
	StreamKeyKey      = "stream.key"
	StreamPreviousKey = "stream.previous"
	StreamReasonKey   = "stream.evict_reason"

	// Camera attributes
	CameraIDKey      = "camera.id"
	CameraCommandKey = "camera.command"

	// Relay attributes
	RelayPiKey      = "relay.pi"
	RelayCommandKey = "relay.command"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// StreamAttributes creates stream supervisor span attributes. Empty values are omitted.
func StreamAttributes(key, previous string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if key != "" {
		attrs = append(attrs, attribute.String(StreamKeyKey, key))
	}
	if previous != "" {
		attrs = append(attrs, attribute.String(StreamPreviousKey, previous))
	}
	return attrs
}

// CameraAttributes creates PTZ command span attributes.
func CameraAttributes(camera, command string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(CameraIDKey, camera),
		attribute.String(CameraCommandKey, command),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(_ error, errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
