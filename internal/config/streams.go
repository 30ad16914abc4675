// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

// LowLatencyFFmpegArgs builds the ffmpeg argv used to relay a camera RTSP
// feed as a small, low-latency H.264 MPEG-TS stream (typically over SRT).
func LowLatencyFFmpegArgs(bin, inputURL, outputURL string) []string {
	return []string{
		bin,
		"-fflags", "discardcorrupt+nobuffer",
		"-flags", "low_delay",
		"-rtsp_transport", "udp",
		"-i", inputURL,
		"-c:v", "libx264",
		"-bf", "0",
		"-b:v", "500k",
		"-r", "15",
		"-preset", "veryfast",
		"-tune", "zerolatency",
		"-s", "640x360",
		"-an",
		"-f", "mpegts",
		outputURL,
	}
}

// ResolveCommand returns the argv for one stream source.
func ResolveCommand(src StreamSource, sc StreamConfig) []string {
	switch {
	case len(src.Command) > 0:
		return append([]string(nil), src.Command...)
	case src.MediaMTXConfig != "":
		return []string{sc.MediaMTXBin, src.MediaMTXConfig}
	default:
		return LowLatencyFFmpegArgs(sc.FFmpegBin, src.InputURL, src.OutputURL)
	}
}

// StreamCommands resolves every configured stream into its argv.
func (c AppConfig) StreamCommands() map[string][]string {
	out := make(map[string][]string, len(c.Streams))
	for key, src := range c.Streams {
		out[key] = ResolveCommand(src, c.Stream)
	}
	return out
}

// Binaries returns the executables the configured streams depend on.
func (c AppConfig) Binaries() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, argv := range c.StreamCommands() {
		if len(argv) == 0 {
			continue
		}
		if _, ok := seen[argv[0]]; ok {
			continue
		}
		seen[argv[0]] = struct{}{}
		out = append(out, argv[0])
	}
	return out
}
