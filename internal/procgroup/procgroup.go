// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup spawns child processes as group leaders and tears the
// whole group down with a SIGTERM, grace, SIGKILL sequence.
package procgroup

import (
	"errors"
	"os/exec"
	"time"

	"github.com/pyronear/camctl/internal/metrics"
)

var (
	ErrProcessNotFound = errors.New("process not found")
	ErrKillFailed      = errors.New("kill operation failed")
)

// Outcome describes how a terminated process group went away.
type Outcome string

const (
	// OutcomeExited: the group exited within the grace period.
	OutcomeExited Outcome = "exited"
	// OutcomeForced: the grace period expired and SIGKILL was required.
	OutcomeForced Outcome = "forced"
	// OutcomeStuck: the process was not reaped even after SIGKILL.
	OutcomeStuck Outcome = "stuck"
)

// Set configures the command to start in a new process group.
// Mandatory for Terminate to reach grandchildren.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// Terminate stops the process group led by cmd. done must be closed by the
// goroutine that owns cmd.Wait once the process has been reaped; Terminate
// never calls Wait itself.
//
// A nil command, or one that was never started, is a no-op.
func Terminate(cmd *exec.Cmd, done <-chan struct{}, grace, killTimeout time.Duration) (Outcome, error) {
	if cmd == nil || cmd.Process == nil {
		return OutcomeExited, nil
	}

	select {
	case <-done:
		return OutcomeExited, nil
	default:
	}

	recordSignal("SIGTERM", interrupt(cmd))

	select {
	case <-done:
		metrics.IncProcWait(string(OutcomeExited))
		return OutcomeExited, nil
	case <-time.After(grace):
	}

	recordSignal("SIGKILL", kill(cmd))

	select {
	case <-done:
		metrics.IncProcWait(string(OutcomeForced))
		return OutcomeForced, nil
	case <-time.After(killTimeout):
		metrics.IncProcWait(string(OutcomeStuck))
		return OutcomeStuck, ErrKillFailed
	}
}

func recordSignal(sig string, err error) {
	switch {
	case err == nil:
		metrics.IncProcTerminate(sig, "sent")
	case errors.Is(err, ErrProcessNotFound):
		metrics.IncProcTerminate(sig, "esrch")
	default:
		metrics.IncProcTerminate(sig, "error")
	}
}
