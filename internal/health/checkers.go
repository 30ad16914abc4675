// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// BinaryChecker reports whether the stream binaries can be resolved on PATH.
type BinaryChecker struct {
	binaries []string
	lookPath func(string) (string, error)
}

// NewBinaryChecker checks each of binaries.
func NewBinaryChecker(binaries []string) *BinaryChecker {
	return &BinaryChecker{binaries: binaries, lookPath: exec.LookPath}
}

func (c *BinaryChecker) Name() string { return "stream_binaries" }

func (c *BinaryChecker) Check(_ context.Context) CheckResult {
	if len(c.binaries) == 0 {
		return CheckResult{Status: StatusHealthy, Message: "no streams configured"}
	}
	var missing []string
	for _, bin := range c.binaries {
		if _, err := c.lookPath(bin); err != nil {
			missing = append(missing, bin)
		}
	}
	if len(missing) > 0 {
		return CheckResult{
			Status: StatusUnhealthy,
			Error:  "not found: " + strings.Join(missing, ", "),
		}
	}
	return CheckResult{Status: StatusHealthy, Message: strings.Join(c.binaries, ", ")}
}

// FileChecker checks that a file exists and is not empty. A missing file
// is degraded, not unhealthy, when optional is set.
type FileChecker struct {
	name     string
	path     string
	optional bool
}

// NewFileChecker creates a checker for file existence
func NewFileChecker(name, path string, optional bool) *FileChecker {
	return &FileChecker{name: name, path: path, optional: optional}
}

func (c *FileChecker) Name() string { return c.name }

func (c *FileChecker) Check(_ context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}

	info, err := os.Stat(c.path)
	if err != nil {
		status := StatusUnhealthy
		if c.optional && os.IsNotExist(err) {
			status = StatusDegraded
		}
		if os.IsNotExist(err) {
			return CheckResult{Status: status, Error: "file not found", Message: c.path}
		}
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: "expected file, got directory"}
	}
	if info.Size() == 0 {
		return CheckResult{Status: StatusDegraded, Message: "file is empty"}
	}
	return CheckResult{Status: StatusHealthy, Message: "file exists and readable"}
}

// BreakerChecker degrades when any camera's circuit breaker is not closed.
type BreakerChecker struct {
	states func() map[string]string
}

// NewBreakerChecker reads camera id to breaker state from states.
func NewBreakerChecker(states func() map[string]string) *BreakerChecker {
	return &BreakerChecker{states: states}
}

func (c *BreakerChecker) Name() string { return "cameras" }

func (c *BreakerChecker) Check(_ context.Context) CheckResult {
	var tripped []string
	for id, state := range c.states() {
		if state != "closed" {
			tripped = append(tripped, fmt.Sprintf("%s=%s", id, state))
		}
	}
	if len(tripped) == 0 {
		return CheckResult{Status: StatusHealthy, Message: "all cameras reachable"}
	}
	sort.Strings(tripped)
	return CheckResult{Status: StatusDegraded, Message: strings.Join(tripped, ", ")}
}
