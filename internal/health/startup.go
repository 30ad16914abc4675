// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/pyronear/camctl/internal/config"
	"github.com/pyronear/camctl/internal/log"
)

// PerformStartupChecks validates the camera daemon environment before the
// API starts. Missing binaries only warn so that PTZ control keeps working
// on hosts without a stream toolchain.
func PerformStartupChecks(_ context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")

	if len(cfg.Streams) == 0 {
		logger.Warn().Msg("no streams configured; start_stream will reject every key")
	}
	for _, bin := range cfg.Binaries() {
		path, err := exec.LookPath(bin)
		if err != nil {
			logger.Warn().Err(err).Str("binary", bin).Msg("stream binary not found on PATH")
			continue
		}
		logger.Info().Str("binary", bin).Str("path", path).Msg("stream binary resolved")
	}
	for _, src := range cfg.Streams {
		if src.MediaMTXConfig == "" {
			continue
		}
		if err := checkFileReadable(src.MediaMTXConfig); err != nil {
			return fmt.Errorf("mediamtx config %s: %w", src.MediaMTXConfig, err)
		}
	}
	return nil
}

// PerformRelayStartupChecks verifies the mapping file directory is writable.
func PerformRelayStartupChecks(_ context.Context, cfg config.AppConfig) error {
	dir := filepath.Dir(cfg.Relay.MappingFile)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("mapping directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("mapping directory is not a directory: %s", dir)
	}

	f, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		return fmt.Errorf("mapping directory is not writable: %s (error: %v)", dir, err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	logger := log.WithComponent("startup-check")
	logger.Info().Str("path", dir).Msg("mapping directory is writable")
	return nil
}

func checkFileReadable(path string) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator config; verifying readability is expected
	if err != nil {
		return err
	}
	return f.Close()
}
