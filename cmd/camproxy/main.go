// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Command camproxy is the relay in front of the Pi fleet: it remembers which
// Pi the operator selected and forwards camera commands to it.
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

	"github.com/pyronear/camctl/internal/api/middleware"
	"github.com/pyronear/camctl/internal/config"
	"github.com/pyronear/camctl/internal/daemon"
	"github.com/pyronear/camctl/internal/health"
	camlog "github.com/pyronear/camctl/internal/log"
	"github.com/pyronear/camctl/internal/relay"
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

	camlog.Configure(camlog.Config{
		Level:   "info",
		Service: "camproxy",
		Version: version.Version,
	})
	logger := camlog.WithComponent("relay-daemon")

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
		Service: "camproxy",
		Version: cfg.Version,
	})
	logger = camlog.WithComponent("relay-daemon")

	if err := health.PerformRelayStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "startup.check_failed").
			Msg("startup checks failed")
	}

	tracer, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    "camproxy",
		ServiceVersion: cfg.Version,
		Environment:    cfg.Tracing.Environment,
		ExporterType:   cfg.Tracing.Exporter,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("event", "tracing.init_failed").Msg("failed to initialise tracing")
	}

	store := relay.NewStore(cfg.Relay.MappingFile)
	if err := store.Load(); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "relay.mapping_load_failed").
			Str("path", cfg.Relay.MappingFile).
			Msg("failed to read Pi mapping file")
	}

	serverCfg := config.ParseServerConfig(cfg.Relay.ListenAddr)

	logger.Info().
		Str("event", "startup").
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str("addr", serverCfg.ListenAddr).
		Msg("starting camproxy")
	logger.Info().Msgf("→ Mapping file: %s (%d Pis)", store.Path(), len(store.Names()))
	logger.Info().Msgf("→ Target port: %d", cfg.Relay.TargetPort)

	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewFileChecker("pi_mapping", store.Path(), true))

	r := middleware.NewRouter(middleware.StackConfig{
		AllowedOrigins: cfg.API.AllowedOrigins,
		EnableMetrics:  true,
		TracingService: "camproxy",
		EnableLogging:  true,
		RateLimit:      cfg.API.RateLimit,
	})
	r.Get("/healthz", hm.ServeHealth)
	r.Get("/readyz", hm.ServeReady)
	r.Mount("/", relay.NewHandler(store, relay.HandlerOptions{
		TargetPort: cfg.Relay.TargetPort,
		Timeout:    cfg.Relay.Timeout,
	}))

	deps := daemon.Deps{
		Logger:     logger,
		APIHandler: r,
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
	mgr.RegisterShutdownHook("tracing", tracer.Shutdown)

	app := daemon.NewApp(logger, mgr,
		daemon.WithTask(daemon.Task{Name: "mapping-watch", Run: store.Watch}),
		daemon.WithReload(store.Reload),
	)
	if err := app.Run(ctx); err != nil {
		logger.Fatal().
			Err(err).
			Str("event", "manager.failed").
			Msg("daemon app failed")
	}

	logger.Info().Msg("server exiting")
}
