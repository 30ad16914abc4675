// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build windows

package procgroup

import (
	"os/exec"
)

// No process groups on Windows; the leader is killed directly.
func set(cmd *exec.Cmd) {}

// Windows has no graceful signal; Terminate waits out the grace period and kills.
func interrupt(cmd *exec.Cmd) error { return nil }

func kill(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return ErrProcessNotFound
	}
	return cmd.Process.Kill()
}
