// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package stream

import (
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastStop = ProcessOptions{Grace: 200 * time.Millisecond, KillTimeout: 2 * time.Second}

func TestProcessSpawnAndTerminate(t *testing.T) {
	p, err := Spawn("cam1", []string{"sleep", "30"}, fastStop)
	require.NoError(t, err)
	assert.True(t, p.Alive())
	assert.Greater(t, p.PID(), 0)

	require.NoError(t, p.Terminate())
	assert.False(t, p.Alive())

	// second call is a no-op
	require.NoError(t, p.Terminate())
	assert.False(t, p.Alive())
}

func TestProcessTerminateIgnoringSIGTERM(t *testing.T) {
	p, err := Spawn("cam1", []string{"sh", "-c", `trap "" TERM; sleep 30`}, fastStop)
	require.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	start := time.Now()
	require.NoError(t, p.Terminate(), "grace overrun is resolved by SIGKILL, not reported")
	assert.False(t, p.Alive())
	assert.GreaterOrEqual(t, time.Since(start), fastStop.Grace)
}

func TestProcessExitIsObserved(t *testing.T) {
	p, err := Spawn("cam1", []string{"sh", "-c", "echo starting; echo boom >&2; exit 3"}, fastStop)
	require.NoError(t, err)

	select {
	case <-p.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("process did not exit")
	}
	assert.False(t, p.Alive())

	var exitErr *exec.ExitError
	require.ErrorAs(t, p.ExitErr(), &exitErr)
	assert.Equal(t, 3, exitErr.ExitCode())

	info := p.Info()
	assert.False(t, info.Alive)
	assert.Equal(t, []string{"starting", "boom"}, info.Output)
	assert.NoError(t, p.Terminate())
}

func TestProcessExitObservedWhileChildHoldsOutput(t *testing.T) {
	opts := ProcessOptions{Grace: 200 * time.Millisecond, KillTimeout: 200 * time.Millisecond}
	p, err := Spawn("cam1", []string{"sh", "-c", "sleep 3 & exit 0"}, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = syscall.Kill(-p.PID(), syscall.SIGKILL) })

	select {
	case <-p.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("leader exit not observed while a background child keeps the output pipe open")
	}
	assert.False(t, p.Alive())
}

func TestProcessSpawnMissingBinary(t *testing.T) {
	_, err := Spawn("cam1", []string{"/nonexistent/ffmpeg-camctl", "-i", "x"}, fastStop)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSpawn)

	var se *SpawnError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, Key("cam1"), se.Key)
}

func TestProcessSpawnEmptyArgv(t *testing.T) {
	_, err := Spawn("cam1", nil, fastStop)
	assert.ErrorIs(t, err, ErrSpawn)
}

func TestProcessStats(t *testing.T) {
	p, err := Spawn("cam1", []string{"sleep", "30"}, fastStop)
	require.NoError(t, err)
	defer func() { _ = p.Terminate() }()

	stats, err := p.Stats()
	require.NoError(t, err)
	assert.Greater(t, stats.RSSBytes, uint64(0))
}

func TestRegistryWithRealProcesses(t *testing.T) {
	r := NewRegistry(NewSpawner(fastStop))

	_, err := r.StartExclusive("cam1", []string{"sleep", "30"})
	require.NoError(t, err)
	first, ok := r.Lookup("cam1")
	require.True(t, ok)

	res, err := r.StartExclusive("cam2", []string{"sleep", "30"})
	require.NoError(t, err)
	assert.Equal(t, Key("cam1"), res.Previous)
	assert.False(t, first.Alive(), "superseded process must be reaped before the new one starts")

	r.Shutdown()
	assert.Empty(t, r.ActiveKeys())
}
