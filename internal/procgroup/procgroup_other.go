// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build !unix && !windows

package procgroup

import (
	"os"
	"os/exec"
)

func set(cmd *exec.Cmd) {}

func interrupt(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return ErrProcessNotFound
	}
	return cmd.Process.Signal(os.Interrupt)
}

func kill(cmd *exec.Cmd) error {
	if cmd == nil || cmd.Process == nil {
		return ErrProcessNotFound
	}
	return cmd.Process.Kill()
}
