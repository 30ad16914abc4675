// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"sort"
	"time"

	"github.com/pyronear/camctl/internal/validate"
)

var (
	inputSchemes  = []string{"rtsp", "rtsps", "rtmp", "srt", "udp", "http", "https"}
	outputSchemes = []string{"srt", "udp", "rtmp", "rtsp", "rtp", "tcp", "http", "https"}
)

// Validate validates an AppConfig using the centralized validation package
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.LogLevel("logLevel", cfg.LogLevel)
	v.ListenAddr("api.listenAddr", cfg.API.ListenAddr)
	if cfg.API.RateLimit < 0 {
		v.AddError("api.rateLimit", "cannot be negative", cfg.API.RateLimit)
	}
	if cfg.Metrics.Enabled {
		v.ListenAddr("metrics.listenAddr", cfg.Metrics.ListenAddr)
	}

	if cfg.Tracing.Enabled {
		v.OneOf("tracing.exporter", cfg.Tracing.Exporter, []string{"grpc", "http"})
		v.NotEmpty("tracing.endpoint", cfg.Tracing.Endpoint)
		v.FloatRange("tracing.samplingRate", cfg.Tracing.SamplingRate, 0, 1)
	}

	v.MinDuration("stream.idleTimeout", cfg.Stream.IdleTimeout, time.Second)
	v.MinDuration("stream.idleInterval", cfg.Stream.IdleInterval, 100*time.Millisecond)
	v.MinDuration("stream.terminateGrace", cfg.Stream.TerminateGrace, 0)
	v.MinDuration("stream.killTimeout", cfg.Stream.KillTimeout, 100*time.Millisecond)

	for _, key := range sortedKeys(cfg.Streams) {
		validateStream(v, "streams."+key, cfg.Streams[key], cfg.Stream)
	}
	for _, id := range sortedKeys(cfg.Cameras) {
		validateCamera(v, "cameras."+id, cfg.Cameras[id])
	}

	v.ListenAddr("relay.listenAddr", cfg.Relay.ListenAddr)
	v.NotEmpty("relay.mappingFile", cfg.Relay.MappingFile)
	v.Port("relay.targetPort", cfg.Relay.TargetPort)
	v.MinDuration("relay.timeout", cfg.Relay.Timeout, 100*time.Millisecond)

	return v.Err()
}

func validateStream(v *validate.Validator, field string, src StreamSource, sc StreamConfig) {
	switch {
	case len(src.Command) > 0:
		v.NotEmpty(field+".command[0]", src.Command[0])
	case src.MediaMTXConfig != "":
		v.NotEmpty("stream.mediamtxBin", sc.MediaMTXBin)
	default:
		v.NotEmpty("stream.ffmpegBin", sc.FFmpegBin)
		v.URL(field+".input_url", src.InputURL, inputSchemes)
		v.URL(field+".output_url", src.OutputURL, outputSchemes)
	}
}

func validateCamera(v *validate.Validator, field string, cam CameraConfig) {
	v.Host(field+".ip", cam.IP)
	v.NotEmpty(field+".username", cam.Username)
	v.OneOf(field+".protocol", cam.Protocol, []string{"http", "https"})
	v.Range(field+".defaultSpeed", cam.DefaultSpeed, 1, 64)
	v.Range(field+".channel", cam.Channel, 0, 15)
	v.MinDuration(field+".timeout", cam.Timeout, 100*time.Millisecond)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
