// SPDX-License-Identifier: MIT
package validate

import "strings"

// LogLevel represents a zerolog level name accepted in configuration.
type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// IsValid checks if the log level is valid
func (l LogLevel) IsValid() bool {
	switch LogLevel(strings.ToLower(string(l))) {
	case LogLevelTrace, LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// LogLevel validates an optional log level; empty means "use the default".
func (v *Validator) LogLevel(field, value string) {
	if value == "" {
		return
	}
	if !LogLevel(value).IsValid() {
		v.AddError(field, "invalid log level (must be: trace, debug, info, warn, error)", value)
	}
}
