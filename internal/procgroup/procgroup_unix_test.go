// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package procgroup

import (
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startReaped(t *testing.T, script string) (*exec.Cmd, <-chan struct{}) {
	t.Helper()
	cmd := exec.Command("sh", "-c", script)
	Set(cmd)
	require.NoError(t, cmd.Start())

	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	t.Cleanup(func() {
		_ = Kill(cmd, syscall.SIGKILL)
		<-done
	})
	return cmd, done
}

func TestSetMakesGroupLeader(t *testing.T) {
	cmd, _ := startReaped(t, "sleep 10")

	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	require.NoError(t, err)
	assert.Equal(t, cmd.Process.Pid, pgid, "process should lead its own group")
}

func TestTerminateGraceful(t *testing.T) {
	cmd, done := startReaped(t, "sleep 10 & sleep 10")
	pgid := cmd.Process.Pid

	// let the shell fork its background child
	time.Sleep(100 * time.Millisecond)

	outcome, err := Terminate(cmd, done, 2*time.Second, time.Second)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExited, outcome)

	// grandchildren received SIGTERM too
	require.Eventually(t, func() bool {
		return syscall.Kill(-pgid, syscall.Signal(0)) == syscall.ESRCH
	}, 2*time.Second, 20*time.Millisecond, "process group should be gone")
}

func TestTerminateEscalatesToKill(t *testing.T) {
	cmd, done := startReaped(t, `trap "" TERM; sleep 10`)
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	outcome, err := Terminate(cmd, done, 150*time.Millisecond, 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, OutcomeForced, outcome)
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestTerminateAlreadyExited(t *testing.T) {
	cmd, done := startReaped(t, "exit 0")
	<-done

	outcome, err := Terminate(cmd, done, time.Second, time.Second)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExited, outcome)
}

func TestTerminateNilCommand(t *testing.T) {
	outcome, err := Terminate(nil, nil, time.Second, time.Second)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExited, outcome)
}

func TestKillUnstartedCommand(t *testing.T) {
	err := Kill(exec.Command("true"), syscall.SIGTERM)
	assert.ErrorIs(t, err, ErrProcessNotFound)
}
