// SPDX-License-Identifier: MIT
package config

import (
	"audioviz/internal/log"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	m.Run()
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default configuration invalid: %v", err)
	}
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Chdir(t.TempDir()) // No config.yaml here.
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Audio.SampleRate != DefaultSampleRate || cfg.Display.Host != DefaultHost {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfig_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("display:\n  mode: bars16\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Display.Mode != "bars16" {
		t.Errorf("display.mode = %q, want bars16", cfg.Display.Mode)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Errorf("expected unmarshal error, got %v", err)
	}
}

func TestLoadConfig_File(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: warn
audio:
  input_device: 3
  sample_rate: 48000
  frames_per_buffer: 256
  fft_window: blackman
  gate_threshold: 0.02
display:
  host: tui
  mode: waterfall
  normalize: true
  refresh: 50ms
  palette: ["#000000", "#ffffff"]
transport:
  udp_enabled: true
  udp_target_address: 10.0.0.2:9999
  udp_send_interval: 20ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Level() != log.LevelWarn {
		t.Errorf("Level() = %s", cfg.Level())
	}
	if cfg.Audio.InputDevice != 3 || cfg.Audio.SampleRate != 48000 || cfg.Audio.FramesPerBuffer != 256 {
		t.Errorf("audio = %+v", cfg.Audio)
	}
	if cfg.Display.Host != HostTUI || !cfg.Display.Normalize || cfg.Display.Refresh != 50*time.Millisecond {
		t.Errorf("display = %+v", cfg.Display)
	}
	if len(cfg.Display.Palette) != 2 {
		t.Errorf("palette = %v", cfg.Display.Palette)
	}
	if cfg.Display.Scale != DefaultScale {
		t.Errorf("unset scale = %d, want default %d", cfg.Display.Scale, DefaultScale)
	}
	if !cfg.Transport.UDPEnabled || cfg.Transport.UDPSendInterval != 20*time.Millisecond {
		t.Errorf("transport = %+v", cfg.Transport)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV_DEBUG", "true")
	t.Setenv("ENV_VIZ_MODE", "bars4")
	t.Setenv("ENV_UDP_ENABLED", "1")
	t.Setenv("ENV_UDP_TARGET_ADDRESS", "192.168.1.5:7000")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "10ms")
	t.Setenv("ENV_WS_ENABLED", "true")
	t.Setenv("ENV_WS_ADDRESS", ":9000")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug || cfg.Level() != log.LevelDebug {
		t.Error("ENV_DEBUG not applied")
	}
	if cfg.Display.Mode != "bars4" {
		t.Errorf("mode = %q", cfg.Display.Mode)
	}
	tr := cfg.Transport
	if !tr.UDPEnabled || tr.UDPTargetAddress != "192.168.1.5:7000" || tr.UDPSendInterval != 10*time.Millisecond {
		t.Errorf("udp overrides = %+v", tr)
	}
	if !tr.WSEnabled || tr.WSAddress != ":9000" {
		t.Errorf("ws overrides = %+v", tr)
	}
}

func TestEnvOverridesIgnoreGarbage(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ENV_UDP_ENABLED", "perhaps")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "soon")

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Transport.UDPEnabled || cfg.Transport.UDPSendInterval != DefaultUDPInterval {
		t.Errorf("garbage env values applied: %+v", cfg.Transport)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		substr string
	}{
		{"Low sample rate", func(c *Config) { c.Audio.SampleRate = 4000 }, "sample_rate"},
		{"High sample rate", func(c *Config) { c.Audio.SampleRate = 384000 }, "sample_rate"},
		{"Odd buffer", func(c *Config) { c.Audio.FramesPerBuffer = 1000 }, "frames_per_buffer"},
		{"Huge buffer", func(c *Config) { c.Audio.FramesPerBuffer = 16384 }, "frames_per_buffer"},
		{"Bad device", func(c *Config) { c.Audio.InputDevice = -2 }, "input_device"},
		{"Bad window", func(c *Config) { c.Audio.FFTWindow = "triangle" }, "fft_window"},
		{"Bad gate", func(c *Config) { c.Audio.GateThreshold = 2 }, "gate_threshold"},
		{"Bad host", func(c *Config) { c.Display.Host = "x11" }, "display.host"},
		{"Bad mode", func(c *Config) { c.Display.Mode = "scope" }, "display.mode"},
		{"Bad scale", func(c *Config) { c.Display.Scale = 9 }, "display.scale"},
		{"Bad refresh", func(c *Config) { c.Display.Refresh = 0 }, "display.refresh"},
		{"Bad level", func(c *Config) { c.LogLevel = "chatty" }, "log_level"},
		{"Bad format", func(c *Config) { c.Recording.Format = "flac" }, "recording.format"},
		{"No output dir", func(c *Config) { c.Recording.Enabled = true; c.Recording.OutputDir = "" }, "output_dir"},
		{"UDP without port", func(c *Config) { c.Transport.UDPEnabled = true; c.Transport.UDPTargetAddress = "localhost" }, "udp_target_address"},
		{"WS without port", func(c *Config) { c.Transport.WSEnabled = true; c.Transport.WSAddress = "localhost" }, "ws_address"},
		{"Zero interval", func(c *Config) { c.Transport.LogEnabled = true; c.Transport.UDPSendInterval = 0 }, "udp_send_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.substr) {
				t.Errorf("error %q does not mention %q", err, tt.substr)
			}
		})
	}
}

func TestRecordingPath(t *testing.T) {
	cfg := Default()
	at := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	want := filepath.Join(DefaultOutputDir, "audioviz-20250314-150926.wav")
	if got := cfg.RecordingPath(at); got != want {
		t.Errorf("RecordingPath = %q, want %q", got, want)
	}
}
