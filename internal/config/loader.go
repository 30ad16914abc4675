// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListenAddr        = ":8000"
	DefaultMetricsListenAddr = ":9090"
	DefaultRelayListenAddr   = ":8080"
	DefaultMappingFile       = "pi_servers.json"
	DefaultRelayTargetPort   = 8000
	DefaultCameraSpeed       = 5
	DefaultCameraProtocol    = "https"
	DefaultCameraTimeout     = 5 * time.Second
)

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envList(key string, defaultVal []string) []string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseList(key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults,
// then validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	applyCameraDefaults(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:   "info",
		LogService: "camctl",
		API: APIConfig{
			ListenAddr: DefaultListenAddr,
			RateLimit:  600,
		},
		Metrics: MetricsConfig{
			Enabled:    true,
			ListenAddr: DefaultMetricsListenAddr,
		},
		Tracing: TracingConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 0.1,
		},
		Stream: StreamConfig{
			FFmpegBin:      "ffmpeg",
			MediaMTXBin:    "mediamtx",
			IdleTimeout:    60 * time.Second,
			IdleInterval:   60 * time.Second,
			TerminateGrace: 5 * time.Second,
			KillTimeout:    5 * time.Second,
			OutputLines:    64,
		},
		Relay: RelayConfig{
			ListenAddr:  DefaultRelayListenAddr,
			MappingFile: DefaultMappingFile,
			TargetPort:  DefaultRelayTargetPort,
			Timeout:     10 * time.Second,
		},
	}
}

// loadFile decodes a YAML file over cfg with STRICT parsing.
// Unknown fields are rejected to catch typos in camera and stream tables.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrMultipleDocuments
	}
	return nil
}

// mergeEnvConfig applies CAMCTL_* environment overrides.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.LogLevel = l.envString("CAMCTL_LOG_LEVEL", cfg.LogLevel)
	cfg.LogService = l.envString("CAMCTL_LOG_SERVICE", cfg.LogService)

	cfg.API.ListenAddr = l.envString("CAMCTL_LISTEN", cfg.API.ListenAddr)
	cfg.API.RateLimit = l.envInt("CAMCTL_RATE_LIMIT", cfg.API.RateLimit)
	cfg.API.AllowedOrigins = l.envList("CAMCTL_ALLOWED_ORIGINS", cfg.API.AllowedOrigins)

	cfg.Metrics.Enabled = l.envBool("CAMCTL_METRICS_ENABLED", cfg.Metrics.Enabled)
	cfg.Metrics.ListenAddr = l.envString("CAMCTL_METRICS_ADDR", cfg.Metrics.ListenAddr)

	cfg.Tracing.Enabled = l.envBool("CAMCTL_TRACING_ENABLED", cfg.Tracing.Enabled)
	cfg.Tracing.Exporter = l.envString("CAMCTL_TRACING_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.Endpoint = l.envString("CAMCTL_TRACING_ENDPOINT", cfg.Tracing.Endpoint)
	cfg.Tracing.SamplingRate = l.envFloat("CAMCTL_TRACING_SAMPLING_RATE", cfg.Tracing.SamplingRate)
	cfg.Tracing.Environment = l.envString("CAMCTL_TRACING_ENVIRONMENT", cfg.Tracing.Environment)

	cfg.Stream.FFmpegBin = l.envString("CAMCTL_FFMPEG_BIN", cfg.Stream.FFmpegBin)
	cfg.Stream.MediaMTXBin = l.envString("CAMCTL_MEDIAMTX_BIN", cfg.Stream.MediaMTXBin)
	cfg.Stream.IdleTimeout = l.envDuration("CAMCTL_IDLE_TIMEOUT", cfg.Stream.IdleTimeout)
	cfg.Stream.IdleInterval = l.envDuration("CAMCTL_IDLE_INTERVAL", cfg.Stream.IdleInterval)
	cfg.Stream.TerminateGrace = l.envDuration("CAMCTL_TERMINATE_GRACE", cfg.Stream.TerminateGrace)
	cfg.Stream.KillTimeout = l.envDuration("CAMCTL_KILL_TIMEOUT", cfg.Stream.KillTimeout)

	cfg.Relay.ListenAddr = l.envString("CAMCTL_RELAY_LISTEN", cfg.Relay.ListenAddr)
	cfg.Relay.MappingFile = l.envString("CAMCTL_RELAY_MAPPING_FILE", cfg.Relay.MappingFile)
	cfg.Relay.TargetPort = l.envInt("CAMCTL_RELAY_TARGET_PORT", cfg.Relay.TargetPort)
	cfg.Relay.Timeout = l.envDuration("CAMCTL_RELAY_TIMEOUT", cfg.Relay.Timeout)
}

func applyCameraDefaults(cfg *AppConfig) {
	for id, cam := range cfg.Cameras {
		if cam.Protocol == "" {
			cam.Protocol = DefaultCameraProtocol
		}
		if cam.DefaultSpeed == 0 {
			cam.DefaultSpeed = DefaultCameraSpeed
		}
		if cam.Timeout == 0 {
			cam.Timeout = DefaultCameraTimeout
		}
		cfg.Cameras[id] = cam
	}
}
