// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads camctl configuration from defaults, a strict YAML
// file and CAMCTL_* environment variables, in that order of precedence.
package config

import "time"

// AppConfig is the resolved configuration shared by camctl and camproxy.
type AppConfig struct {
	Version    string `yaml:"-"`
	LogLevel   string `yaml:"logLevel,omitempty"`
	LogService string `yaml:"logService,omitempty"`

	API     APIConfig     `yaml:"api"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
	Stream  StreamConfig  `yaml:"stream"`
	Relay   RelayConfig   `yaml:"relay"`

	// Streams maps a stream key (usually the camera id) to its source.
	Streams map[string]StreamSource `yaml:"streams"`
	// Cameras maps a camera id to its PTZ API endpoint.
	Cameras map[string]CameraConfig `yaml:"cameras"`
}

// APIConfig configures the camera daemon HTTP API.
type APIConfig struct {
	ListenAddr string `yaml:"listenAddr"`
	// RateLimit is the number of requests per minute allowed per client IP. 0 disables limiting.
	RateLimit      int      `yaml:"rateLimit"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
}

// MetricsConfig configures the Prometheus listener.
type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listenAddr"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"samplingRate"`
	Environment  string  `yaml:"environment,omitempty"`
}

// StreamConfig configures the stream supervisor.
type StreamConfig struct {
	FFmpegBin      string        `yaml:"ffmpegBin"`
	MediaMTXBin    string        `yaml:"mediamtxBin"`
	IdleTimeout    time.Duration `yaml:"idleTimeout"`
	IdleInterval   time.Duration `yaml:"idleInterval"`
	TerminateGrace time.Duration `yaml:"terminateGrace"`
	KillTimeout    time.Duration `yaml:"killTimeout"`
	OutputLines    int           `yaml:"outputLines"`
}

// StreamSource describes how to run one stream. Exactly one of the three
// forms is used, checked in this order: Command, MediaMTXConfig, ffmpeg
// (InputURL to OutputURL).
type StreamSource struct {
	InputURL       string   `yaml:"input_url,omitempty"`
	OutputURL      string   `yaml:"output_url,omitempty"`
	MediaMTXConfig string   `yaml:"mediamtx_config,omitempty"`
	Command        []string `yaml:"command,omitempty"`
}

// CameraConfig describes a camera's PTZ HTTP API.
type CameraConfig struct {
	IP       string `yaml:"ip"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Protocol string `yaml:"protocol,omitempty"`
	Channel  int    `yaml:"channel,omitempty"`
	// DefaultSpeed is used by move commands that carry no speed.
	DefaultSpeed int `yaml:"defaultSpeed,omitempty"`
	// VerifyTLS enables certificate verification. Cameras ship self-signed
	// certificates, so it is off unless set.
	VerifyTLS bool          `yaml:"verifyTLS,omitempty"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
}

// RelayConfig configures camproxy.
type RelayConfig struct {
	ListenAddr  string        `yaml:"listenAddr"`
	MappingFile string        `yaml:"mappingFile"`
	TargetPort  int           `yaml:"targetPort"`
	Timeout     time.Duration `yaml:"timeout"`
}
