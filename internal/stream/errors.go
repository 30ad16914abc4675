// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stream

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownStream is returned when a caller references a key that is
	// not present in the configured stream table.
	ErrUnknownStream = errors.New("unknown stream")

	// ErrSpawn matches every *SpawnError via errors.Is.
	ErrSpawn = errors.New("stream process could not be started")

	// ErrTerminationTimeout marks a process that ignored SIGTERM for the whole
	// grace period and had to be killed. It is logged, never returned.
	ErrTerminationTimeout = errors.New("termination grace period expired")
)

// SpawnError reports a failed launch of a stream subprocess.
type SpawnError struct {
	Key  Key
	Argv []string
	Err  error
}

func (e *SpawnError) Error() string {
	bin := ""
	if len(e.Argv) > 0 {
		bin = e.Argv[0]
	}
	if bin == "" {
		return fmt.Sprintf("spawn %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("spawn %s (%s): %v", e.Key, bin, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrSpawn) match any SpawnError.
func (e *SpawnError) Is(target error) bool { return target == ErrSpawn }
