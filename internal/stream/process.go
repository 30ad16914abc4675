// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package stream

import (
	"errors"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/pyronear/camctl/internal/log"
	"github.com/pyronear/camctl/internal/procgroup"
)

const (
	defaultGrace       = 5 * time.Second
	defaultKillTimeout = 5 * time.Second
	defaultRingLines   = 64
)

// Handle is the registry's view of one running stream subprocess.
type Handle interface {
	Key() Key
	// Alive reports whether the process is still running. It never blocks.
	Alive() bool
	// Terminate stops the process and waits (bounded) until it is reaped.
	// Calling it on a dead handle is a no-op.
	Terminate() error
	Info() ProcessInfo
}

// Spawner launches the subprocess for key. Tests substitute fakes.
type Spawner func(key Key, argv []string) (Handle, error)

// ProcessInfo is a point-in-time description of a stream subprocess.
type ProcessInfo struct {
	Key       Key       `json:"stream"`
	PID       int       `json:"pid"`
	Argv      []string  `json:"argv"`
	StartedAt time.Time `json:"started_at"`
	Alive     bool      `json:"alive"`
	Output    []string  `json:"output,omitempty"`
}

// ProcessStats carries OS-level resource usage of a live process.
type ProcessStats struct {
	CPUPercent float64 `json:"cpu_percent"`
	RSSBytes   uint64  `json:"rss_bytes"`
}

// ProcessOptions tunes how subprocesses are launched and stopped.
type ProcessOptions struct {
	Grace       time.Duration // SIGTERM to SIGKILL delay
	KillTimeout time.Duration // how long to wait for the reap after SIGKILL
	Dir         string
	Env         []string
	OutputLines int // lines of combined stdout/stderr retained
}

func (o ProcessOptions) withDefaults() ProcessOptions {
	if o.Grace <= 0 {
		o.Grace = defaultGrace
	}
	if o.KillTimeout <= 0 {
		o.KillTimeout = defaultKillTimeout
	}
	if o.OutputLines <= 0 {
		o.OutputLines = defaultRingLines
	}
	return o
}

// Process owns exactly one OS child process running in its own process group.
type Process struct {
	key       Key
	argv      []string
	cmd       *exec.Cmd
	startedAt time.Time
	output    *LineRing
	opts      ProcessOptions
	logger    zerolog.Logger

	done    chan struct{}
	exitErr error // written by the reaper before done is closed

	termMu sync.Mutex
}

// Spawn launches argv in a new process group. The process is not bound to
// any request context; only Terminate stops it.
func Spawn(key Key, argv []string, opts ProcessOptions) (*Process, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, &SpawnError{Key: key, Argv: argv, Err: errors.New("empty command")}
	}
	opts = opts.withDefaults()

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = opts.Dir
	if len(opts.Env) > 0 {
		cmd.Env = opts.Env
	}
	procgroup.Set(cmd)

	ring := NewLineRing(opts.OutputLines)
	cmd.Stdout = ring
	cmd.Stderr = ring
	// Descendants may inherit the output pipes; bound how long Wait keeps
	// copying after the leader exits.
	cmd.WaitDelay = opts.KillTimeout

	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Key: key, Argv: argv, Err: err}
	}

	p := &Process{
		key:       key,
		argv:      append([]string(nil), argv...),
		cmd:       cmd,
		startedAt: time.Now(),
		output:    ring,
		opts:      opts,
		logger: log.WithComponent("stream").With().
			Str(log.FieldStreamKey, string(key)).
			Int(log.FieldPID, cmd.Process.Pid).
			Logger(),
		done: make(chan struct{}),
	}
	go p.reap()

	p.logger.Info().
		Str(log.FieldEvent, "stream.process.started").
		Strs("argv", argv).
		Msg("stream process started")
	return p, nil
}

// NewSpawner returns a Spawner backed by Spawn.
func NewSpawner(opts ProcessOptions) Spawner {
	return func(key Key, argv []string) (Handle, error) {
		p, err := Spawn(key, argv, opts)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

func (p *Process) reap() {
	err := p.cmd.Wait()
	if errors.Is(err, exec.ErrWaitDelay) {
		// leader exited cleanly; a descendant still held the output pipes
		p.logger.Debug().Str(log.FieldEvent, "stream.process.pipes_forced").Msg("output pipes closed after wait delay")
		err = nil
	}
	p.exitErr = err
	close(p.done)

	evt := p.logger.Info()
	if err != nil {
		evt = p.logger.Warn().Err(err)
	}
	evt.Str(log.FieldEvent, "stream.process.exited").
		Dur("uptime", time.Since(p.startedAt)).
		Msg("stream process exited")
}

func (p *Process) Key() Key { return p.key }

// PID returns the OS process id (also the process group id).
func (p *Process) PID() int { return p.cmd.Process.Pid }

// StartedAt returns the launch time.
func (p *Process) StartedAt() time.Time { return p.startedAt }

// Done is closed once the process has been reaped.
func (p *Process) Done() <-chan struct{} { return p.done }

// ExitErr returns the Wait error; only meaningful after Done is closed.
func (p *Process) ExitErr() error {
	select {
	case <-p.done:
		return p.exitErr
	default:
		return nil
	}
}

func (p *Process) Alive() bool {
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Terminate sends SIGTERM to the process group, escalates to SIGKILL after
// the grace period and waits for the reaper. A grace overrun is logged as
// ErrTerminationTimeout; only a process that survives SIGKILL yields an error.
func (p *Process) Terminate() error {
	p.termMu.Lock()
	defer p.termMu.Unlock()

	if !p.Alive() {
		return nil
	}

	start := time.Now()
	outcome, err := procgroup.Terminate(p.cmd, p.done, p.opts.Grace, p.opts.KillTimeout)
	switch outcome {
	case procgroup.OutcomeForced:
		p.logger.Warn().
			Err(ErrTerminationTimeout).
			Str(log.FieldEvent, "stream.process.killed").
			Dur("grace", p.opts.Grace).
			Msg("stream process ignored SIGTERM, killed")
	case procgroup.OutcomeStuck:
		p.logger.Error().
			Err(err).
			Str(log.FieldEvent, "stream.process.stuck").
			Msg("stream process not reaped after SIGKILL")
		return fmt.Errorf("terminate %s (pid %d): %w", p.key, p.PID(), err)
	default:
		p.logger.Debug().
			Str(log.FieldEvent, "stream.process.terminated").
			Dur("took", time.Since(start)).
			Msg("stream process terminated")
	}
	return nil
}

func (p *Process) Info() ProcessInfo {
	return ProcessInfo{
		Key:       p.key,
		PID:       p.PID(),
		Argv:      append([]string(nil), p.argv...),
		StartedAt: p.startedAt,
		Alive:     p.Alive(),
		Output:    p.output.LastN(10),
	}
}

// Stats samples CPU and resident memory of the live process.
func (p *Process) Stats() (ProcessStats, error) {
	if !p.Alive() {
		return ProcessStats{}, procgroup.ErrProcessNotFound
	}
	proc, err := process.NewProcess(int32(p.PID()))
	if err != nil {
		return ProcessStats{}, err
	}
	var stats ProcessStats
	if cpu, err := proc.CPUPercent(); err == nil {
		stats.CPUPercent = cpu
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return stats, err
	}
	stats.RSSBytes = mem.RSS
	return stats, nil
}
