// SPDX-License-Identifier: MIT

// Package config loads the visualizer configuration from YAML, applies
// ENV_* overrides and validates the result.
package config

import "time"

// Core configuration constants that define the boundaries and defaults.
const (
	DefaultDeviceID        = MinDeviceID // System default input device.
	DefaultSampleRate      = 44100       // CD-quality audio.
	DefaultFramesPerBuffer = 1024        // Balanced latency/performance.
	DefaultWindow          = "hann"
	DefaultMode            = "waveform"
	DefaultHost            = HostWindow
	DefaultScale           = 2
	DefaultRefresh         = 33 * time.Millisecond
	DefaultFormat          = "wav"
	DefaultOutputDir       = "./recordings"
	DefaultSnapshotDir     = "."
	DefaultUDPTarget       = "127.0.0.1:9090"
	DefaultUDPInterval     = 33 * time.Millisecond // ~30Hz.
	DefaultWSAddress       = "127.0.0.1:8080"

	// Hardware and processing limits.
	MinDeviceID     = -1     // -1 represents system default device.
	MinSampleRate   = 8000   // Minimum usable sample rate (Hz).
	MaxSampleRate   = 192000 // Maximum supported sample rate (Hz).
	MaxBufferFrames = 8192   // Maximum frames per buffer (power of 2).
	MaxScale        = 4
)

// Display hosts.
const (
	HostWindow = "window" // ebiten window.
	HostTUI    = "tui"    // Terminal meters.
	HostNone   = "none"   // Headless: telemetry only.
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			FFTWindow:       DefaultWindow,
		},
		Display: DisplayConfig{
			Host:        DefaultHost,
			Mode:        DefaultMode,
			Scale:       DefaultScale,
			Refresh:     DefaultRefresh,
			SnapshotDir: DefaultSnapshotDir,
		},
		Recording: RecordingConfig{
			OutputDir: DefaultOutputDir,
			Format:    DefaultFormat,
		},
		Transport: TransportConfig{
			UDPTargetAddress: DefaultUDPTarget,
			UDPSendInterval:  DefaultUDPInterval,
			WSAddress:        DefaultWSAddress,
		},
	}
}
