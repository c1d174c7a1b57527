// SPDX-License-Identifier: MIT
package config

import (
	"audioviz/internal/fft"
	"audioviz/internal/log"
	"audioviz/internal/viz"
	"audioviz/pkg/bitint"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Shorthand for log_level: debug.
	LogLevel  string          `yaml:"log_level"` // "debug", "info", "warn", "error".
	Audio     AudioConfig     `yaml:"audio"`
	Display   DisplayConfig   `yaml:"display"`
	Recording RecordingConfig `yaml:"recording"`
	Transport TransportConfig `yaml:"transport"`
}

// AudioConfig holds capture and analysis settings.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Frames per PortAudio callback.
	LowLatency      bool    `yaml:"low_latency"`       // Request the device's low input latency.
	FFTWindow       string  `yaml:"fft_window"`        // e.g. "hann", "blackman".
	GateThreshold   float64 `yaml:"gate_threshold"`    // 0 disables the noise gate.
}

// DisplayConfig selects the host and the initial view.
type DisplayConfig struct {
	Host        string        `yaml:"host"`      // window, tui or none.
	Mode        string        `yaml:"mode"`      // Initial visualization mode.
	Normalize   bool          `yaml:"normalize"` // Initial normalisation flag.
	Scale       int           `yaml:"scale"`     // Window pixel scale.
	Refresh     time.Duration `yaml:"refresh"`   // TUI redraw interval.
	Palette     []string      `yaml:"palette"`   // Hex colour stops; empty for the built-in ramp.
	SnapshotDir string        `yaml:"snapshot_dir"`
}

// RecordingConfig holds settings related to audio recording functionality.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record the captured stream from start-up.
	OutputDir string `yaml:"output_dir"` // Directory to save recorded audio files.
	Format    string `yaml:"format"`     // Only "wav".
}

// TransportConfig holds settings related to sending analysis data over the network.
type TransportConfig struct {
	UDPEnabled       bool          `yaml:"udp_enabled"`
	UDPTargetAddress string        `yaml:"udp_target_address"` // e.g. "127.0.0.1:9090".
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Publishing period for all transports.
	WSEnabled        bool          `yaml:"ws_enabled"`
	WSAddress        string        `yaml:"ws_address"`  // Listen address for /ws.
	LogEnabled       bool          `yaml:"log_enabled"` // Log a telemetry summary at debug level.
}

// Enabled reports whether any telemetry transport is on.
func (t TransportConfig) Enabled() bool {
	return t.UDPEnabled || t.WSEnabled || t.LogEnabled
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it looks for "config.yaml" in the working directory and falls back to built-in
// defaults. Environment overrides are applied and the result validated.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Environment wins over the file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks every field that has a constrained range.
func (c *Config) Validate() error {
	var errs []error
	if _, ok := log.ParseLevel(c.LogLevel); !ok && c.LogLevel != "" {
		errs = append(errs, fmt.Errorf("log_level %q is not a known level", c.LogLevel))
	}

	a := c.Audio
	if a.InputDevice < MinDeviceID {
		errs = append(errs, fmt.Errorf("audio.input_device must be >= %d, got %d", MinDeviceID, a.InputDevice))
	}
	if a.SampleRate < MinSampleRate || a.SampleRate > MaxSampleRate {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be in [%d, %d], got %g", MinSampleRate, MaxSampleRate, a.SampleRate))
	}
	if !bitint.IsPowerOfTwo(a.FramesPerBuffer) || a.FramesPerBuffer > MaxBufferFrames {
		errs = append(errs, fmt.Errorf("audio.frames_per_buffer must be a power of two <= %d, got %d (nearest: %d)",
			MaxBufferFrames, a.FramesPerBuffer, min(bitint.NextPowerOfTwo(a.FramesPerBuffer), MaxBufferFrames)))
	}
	if _, err := fft.ParseWindowFunc(a.FFTWindow); err != nil {
		errs = append(errs, fmt.Errorf("audio.fft_window: %w", err))
	}
	if a.GateThreshold < 0 || a.GateThreshold > 1 {
		errs = append(errs, fmt.Errorf("audio.gate_threshold must be in [0, 1], got %g", a.GateThreshold))
	}

	d := c.Display
	switch d.Host {
	case HostWindow, HostTUI, HostNone:
	default:
		errs = append(errs, fmt.Errorf("display.host must be %s, %s or %s, got %q", HostWindow, HostTUI, HostNone, d.Host))
	}
	if _, err := viz.ParseMode(d.Mode); err != nil {
		errs = append(errs, fmt.Errorf("display.mode: %w", err))
	}
	if d.Scale < 1 || d.Scale > MaxScale {
		errs = append(errs, fmt.Errorf("display.scale must be in [1, %d], got %d", MaxScale, d.Scale))
	}
	if d.Refresh <= 0 {
		errs = append(errs, fmt.Errorf("display.refresh must be positive, got %s", d.Refresh))
	}

	if c.Recording.Format != DefaultFormat {
		errs = append(errs, fmt.Errorf("recording.format must be %q, got %q", DefaultFormat, c.Recording.Format))
	}
	if c.Recording.Enabled && c.Recording.OutputDir == "" {
		errs = append(errs, errors.New("recording.output_dir must be set when recording is enabled"))
	}

	t := c.Transport
	if t.UDPEnabled {
		if _, _, err := net.SplitHostPort(t.UDPTargetAddress); err != nil {
			errs = append(errs, fmt.Errorf("transport.udp_target_address %q: %w", t.UDPTargetAddress, err))
		}
	}
	if t.WSEnabled {
		if _, _, err := net.SplitHostPort(t.WSAddress); err != nil {
			errs = append(errs, fmt.Errorf("transport.ws_address %q: %w", t.WSAddress, err))
		}
	}
	if t.Enabled() && t.UDPSendInterval <= 0 {
		errs = append(errs, errors.New("transport.udp_send_interval must be positive when a transport is enabled"))
	}

	return errors.Join(errs...)
}

// Level returns the effective log level; Debug forces LevelDebug.
func (c *Config) Level() log.LogLevel {
	if c.Debug {
		return log.LevelDebug
	}
	level, _ := log.ParseLevel(c.LogLevel)
	return level
}

// RecordingPath returns a timestamped file name inside the output directory.
func (c *Config) RecordingPath(now time.Time) string {
	return filepath.Join(c.Recording.OutputDir, "audioviz-"+now.Format("20060102-150405")+"."+c.Recording.Format)
}

// applyEnvOverrides reads ENV_* variables. Unparseable values are logged
// and ignored.
func (c *Config) applyEnvOverrides() {
	envBool("ENV_DEBUG", "debug", &c.Debug)
	envString("ENV_LOG_LEVEL", "log_level", &c.LogLevel)
	envString("ENV_VIZ_MODE", "display.mode", &c.Display.Mode)

	// ENV_UDP_{...} and ENV_WS_{...} are specific to the transport layer.
	envBool("ENV_UDP_ENABLED", "transport.udp_enabled", &c.Transport.UDPEnabled)
	envString("ENV_UDP_TARGET_ADDRESS", "transport.udp_target_address", &c.Transport.UDPTargetAddress)
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = dur
			log.Infof("configuration: Overriding transport.udp_send_interval from env: %s", dur)
		} else {
			log.Warnf("configuration: ignoring ENV_UDP_SEND_INTERVAL=%q: %v", val, err)
		}
	}
	envBool("ENV_WS_ENABLED", "transport.ws_enabled", &c.Transport.WSEnabled)
	envString("ENV_WS_ADDRESS", "transport.ws_address", &c.Transport.WSAddress)
}

func envBool(name, field string, dst *bool) {
	val, ok := os.LookupEnv(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		log.Warnf("configuration: ignoring %s=%q: %v", name, val, err)
		return
	}
	*dst = b
	log.Infof("configuration: Overriding %s from env: %v", field, b)
}

func envString(name, field string, dst *string) {
	if val, ok := os.LookupEnv(name); ok {
		*dst = val
		log.Infof("configuration: Overriding %s from env: %s", field, val)
	}
}
