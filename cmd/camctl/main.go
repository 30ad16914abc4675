// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command camctl is the on-Pi camera daemon: it supervises the single active
// video stream, relays PTZ commands to the cameras and stops the stream once
// the operator goes quiet.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pyronear/camctl/internal/api"
	"github.com/pyronear/camctl/internal/api/middleware"
	"github.com/pyronear/camctl/internal/config"
	"github.com/pyronear/camctl/internal/daemon"
	"github.com/pyronear/camctl/internal/health"
	camlog "github.com/pyronear/camctl/internal/log"
	"github.com/pyronear/camctl/internal/ptz"
	"github.com/pyronear/camctl/internal/stream"
	"github.com/pyronear/camctl/internal/telemetry"
	"github.com/pyronear/camctl/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until the config is loaded.
	camlog.Configure(camlog.Config{
		Level:   "info",
		Service: "camctl",
		Version: version.Version,
	})
	logger := camlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = strings.TrimSpace(config.ParseString("CAMCTL_CONFIG", ""))
	}

	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	camlog.Reconfigure(camlog.Config{
		Level:   cfg.LogLevel,
		Service: cfg.LogService,
		Version: cfg.Version,
	})
	logger = camlog.WithComponent("daemon")

	if path != "" {
		logger.Info().Str("event", "config.loaded").Str("source", "file").Str("path", path).Msg("loaded configuration from file")
	} else {
		logger.Info().Str("event", "config.loaded").Str("source", "env+defaults").Msg("loaded configuration from environment and defaults")
	}

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "startup.check_failed").
			Msg("startup checks failed")
	}

	tracer, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    "camctl",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Tracing.Environment,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("event", "tracing.init_failed").Msg("failed to initialise tracing")
	}

	serverCfg := config.ParseServerConfig(cfg.API.ListenAddr)

	logger.Info().
		Str("event", "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", serverCfg.ListenAddr).
		Msg("starting camctl")
	logger.Info().Msgf("→ Streams: %d configured", len(cfg.Streams))
	logger.Info().Msgf("→ Cameras: %d configured", len(cfg.Cameras))
	logger.Info().Msgf("→ Idle timeout: %s (checked every %s)", cfg.Stream.IdleTimeout, cfg.Stream.IdleInterval)

	// Stream supervisor.
	events := stream.NewBroadcaster()
	registry := stream.NewRegistry(
		stream.NewSpawner(stream.ProcessOptions{
			Grace:       cfg.Stream.TerminateGrace,
			KillTimeout: cfg.Stream.KillTimeout,
			OutputLines: cfg.Stream.OutputLines,
		}),
		stream.WithObserver(events.Publish),
	)
	activity := stream.NewActivityClock(nil)
	commands := make(map[stream.Key][]string, len(cfg.Streams))
	for key, argv := range cfg.StreamCommands() {
		commands[stream.Key(key)] = argv
	}
	streams := stream.NewService(registry, activity, commands)
	idle := stream.NewIdleMonitor(registry, activity, stream.IdleConfig{
		Interval:  cfg.Stream.IdleInterval,
		Threshold: cfg.Stream.IdleTimeout,
	})

	cameras := ptz.NewController(cfg.Cameras, ptz.Options{})

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewBinaryChecker(cfg.Binaries()))
	hm.RegisterChecker(health.NewBreakerChecker(cameras.BreakerStates))

	server := api.New(api.Deps{
		Streams: streams,
		Cameras: cameras,
		Events:  events,
		Health:  hm,
		Stack: middleware.StackConfig{
			AllowedOrigins: cfg.API.AllowedOrigins,
			EnableMetrics:  true,
			TracingService: "camctl",
			EnableLogging:  true,
			RateLimit:      cfg.API.RateLimit,
		},
	})

	deps := daemon.Deps{
		Logger:     logger,
		APIHandler: server.Handler(),
	}
	if cfg.Metrics.Enabled {
		deps.MetricsAddr = cfg.Metrics.ListenAddr
		deps.MetricsHandler = promhttp.Handler()
	}

	mgr, err := daemon.NewManager(serverCfg, deps)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "manager.creation.failed").
			Msg("failed to create daemon manager")
	}

	// Hooks run LIFO: event sockets close first, then the stream process is
	// terminated, then buffered spans are flushed.
	mgr.RegisterShutdownHook("tracing", tracer.Shutdown)
	mgr.RegisterShutdownHook("streams", func(context.Context) error {
		registry.Shutdown()
		return nil
	})
	mgr.RegisterShutdownHook("events", func(context.Context) error {
		server.CloseEvents()
		return nil
	})

	app := daemon.NewApp(logger, mgr, daemon.WithTask(daemon.Task{Name: "idle-monitor", Run: idle.Run}))
	if err := app.Run(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "manager.failed").
			Msg("daemon app failed")
	}

	logger.Info().Msg("server exiting")
}
