// SPDX-License-Identifier: MIT

// Package cmd wires configuration, audio sources, the engine, telemetry and
// the display hosts behind the cobra command tree.
package cmd

import (
	"audioviz/internal/config"
	"audioviz/internal/log"
	"audioviz/pkg/build"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// options holds raw flag values. Only flags the user set override the
// loaded configuration.
type options struct {
	configPath      string
	deviceID        int
	sampleRate      float64
	framesPerBuffer int
	lowLatency      bool
	mode            string
	normalize       bool
	window          string
	scale           int
	display         string
	record          bool
	output          string
	file            string
	verbose         bool
	pick            bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&options{})
}

func newRootCommand(opts *options) *cobra.Command {
	buildInfo := build.GetBuildFlags()

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         "Real-time stereo audio visualizer",
		Long:          "Captures stereo audio and shows it as a waveform, a scrolling waterfall or spectrum bars.",
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runLive(cmd, cfg, opts)
		},
	}
	rootCmd.SetVersionTemplate(buildInfo.String() + "\n")

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "",
		"Path to a YAML configuration file (default ./config.yaml when present)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false,
		"Show verbose output")

	// Audio Device Configuration
	f := rootCmd.Flags()
	f.IntVarP(&opts.deviceID, "device", "d", config.DefaultDeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	f.Float64VarP(&opts.sampleRate, "sample-rate", "s", config.DefaultSampleRate,
		"Sample rate, measured in Hertz (Hz)")
	f.IntVarP(&opts.framesPerBuffer, "frames-per-buffer", "b", config.DefaultFramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	f.BoolVarP(&opts.lowLatency, "low-latency", "l", false,
		"Use low latency mode for real-time processing")
	f.BoolVar(&opts.pick, "pick", false,
		"Choose the input device and sample rate interactively")
	f.StringVar(&opts.file, "file", "",
		"Play an audio file (wav, mp3, ogg, flac) in real time instead of capturing")

	// Analysis and Display Configuration
	pf.StringVarP(&opts.mode, "mode", "m", config.DefaultMode,
		"Initial mode: waveform, waterfall, spectrum, bars4, bars8 or bars16")
	pf.BoolVarP(&opts.normalize, "normalize", "n", false,
		"Scale the view to the loudest value of each frame")
	pf.StringVarP(&opts.window, "window", "w", config.DefaultWindow,
		"FFT window: hann, hamming, blackman, blackman-nuttall, bartlett-hann, lanczos, nuttall, rectangular")
	f.IntVar(&opts.scale, "scale", config.DefaultScale,
		"Integer pixel scale of the window")
	f.StringVar(&opts.display, "display", config.DefaultHost,
		"Display host: window, tui or none")

	// Recording Configuration
	f.BoolVarP(&opts.record, "record", "r", false,
		"Record audio from the specified input device")
	f.StringVarP(&opts.output, "output", "o", "",
		"Output file name. Default is <output_dir>/audioviz-YYYYMMDD-HHMMSS.wav")

	rootCmd.AddCommand(
		newListCommand(opts),
		newRenderCommand(opts),
		newMonitorCommand(opts),
	)
	return rootCmd
}

// Execute runs the command tree against os.Args.
func Execute() error {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(os.Args[1:])
	return rootCmd.Execute()
}

// loadConfig reads the configuration file and applies the flags the user
// set on cmd.
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("verbose") && opts.verbose {
		cfg.Debug = true
	}
	if changed("device") {
		cfg.Audio.InputDevice = opts.deviceID
	}
	if changed("sample-rate") {
		cfg.Audio.SampleRate = opts.sampleRate
	}
	if changed("frames-per-buffer") {
		cfg.Audio.FramesPerBuffer = opts.framesPerBuffer
	}
	if changed("low-latency") {
		cfg.Audio.LowLatency = opts.lowLatency
	}
	if changed("window") {
		cfg.Audio.FFTWindow = opts.window
	}
	if changed("mode") {
		cfg.Display.Mode = opts.mode
	}
	if changed("normalize") {
		cfg.Display.Normalize = opts.normalize
	}
	if changed("scale") {
		cfg.Display.Scale = opts.scale
	}
	if changed("display") {
		cfg.Display.Host = opts.display
	}
	if changed("record") {
		cfg.Recording.Enabled = opts.record
	}
	if changed("output") {
		cfg.Recording.Enabled = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	log.SetLevel(cfg.Level())
	return cfg, nil
}

// recordingPath is the explicit --output or a timestamped default.
func recordingPath(cfg *config.Config, opts *options, now time.Time) string {
	if opts.output != "" {
		return opts.output
	}
	return cfg.RecordingPath(now)
}
