// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pyronear/camctl/internal/log"
)

// Task is a background loop that runs until its context is cancelled.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// App owns the long-lived runtime (idle monitor, file watchers, reload
// signal) and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	tasks        []Task
	reload       func() error
	reloadSignal os.Signal
}

// AppOption configures an App.
type AppOption func(*App)

// WithTask runs t alongside the servers. A task error stops the daemon.
func WithTask(t Task) AppOption {
	return func(a *App) { a.tasks = append(a.tasks, t) }
}

// WithReload calls fn whenever the process receives SIGHUP.
func WithReload(fn func() error) AppOption {
	return func(a *App) { a.reload = fn }
}

// NewApp creates a new App orchestrator.
func NewApp(logger zerolog.Logger, manager Manager, opts ...AppOption) *App {
	a := &App{
		logger:       logger,
		manager:      manager,
		reloadSignal: syscall.SIGHUP,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts all owned background subsystems and blocks until ctx is
// cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	for _, t := range a.tasks {
		g.Go(func() error {
			a.logger.Debug().Str("task", t.Name).Msg("background task started")
			err := t.Run(ctx)
			if err != nil {
				a.logger.Error().Err(err).Str(log.FieldEvent, "task.failed").Str("task", t.Name).Msg("background task failed")
			}
			return err
		})
	}

	if a.reload != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str(log.FieldEvent, "reload.signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal")
					if err := a.reload(); err != nil {
						a.logger.Warn().Err(err).Str(log.FieldEvent, "reload.failed").Msg("reload failed")
					}
				}
			}
		})
	}

	g.Go(func() error {
		return a.manager.Start(ctx)
	})

	return g.Wait()
}
