// SPDX-License-Identifier: MIT
package cmd

import (
	"audioviz/internal/audio"
	"audioviz/internal/config"
	"audioviz/internal/display"
	"audioviz/internal/fft"
	"audioviz/internal/log"
	"audioviz/internal/render"
	"audioviz/internal/transport"
	"audioviz/internal/transport/udp"
	"audioviz/internal/tui"
	"audioviz/internal/viz"
	"audioviz/pkg/build"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

// runLive is the root command. The program flow is divided into three phases:
//
// 1. Startup (cold path): PortAudio, source, recorder, engine, telemetry.
// 2. Running (hot path): the source callback feeds the engine while the
// host renders and handles keys.
// 3. Shutdown (cold path): host exits or a signal arrives, then everything
// is closed in reverse order.
func runLive(cmd *cobra.Command, cfg *config.Config, opts *options) (err error) {
	// ==================== STARTUP PHASE (Cold Path) ====================

	var source viz.Source
	if opts.file != "" {
		fs, err := audio.NewFileSource(opts.file)
		if err != nil {
			return err
		}
		fs.Realtime = true
		fs.ChunkFrames = cfg.Audio.FramesPerBuffer
		source = fs
		log.Infof("Playing %s (%.0f Hz, %s)", fs.Title(), fs.SampleRate(), fs.Duration().Round(time.Millisecond))
	} else {
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()

		if opts.pick {
			sel, ok, err := tui.PickDevice()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			cfg.Audio.InputDevice = sel.DeviceID
			cfg.Audio.SampleRate = sel.SampleRate
		}

		var gate *audio.Gate
		if cfg.Audio.GateThreshold > 0 {
			gate = audio.NewGate(cfg.Audio.GateThreshold)
		}
		cs, err := audio.NewCaptureSource(audio.StreamConfig{
			DeviceID:        cfg.Audio.InputDevice,
			SampleRate:      cfg.Audio.SampleRate,
			FramesPerBuffer: cfg.Audio.FramesPerBuffer,
			LowLatency:      cfg.Audio.LowLatency,
		}, gate)
		if err != nil {
			return err
		}
		source = cs
	}

	var recorder *audio.Recorder
	var tap func([]float32)
	if cfg.Recording.Enabled {
		recorder = audio.NewRecorder(int(source.SampleRate()), cfg.Audio.FramesPerBuffer)
		path := recordingPath(cfg, opts, time.Now())
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create recording directory: %w", err)
		}
		if err := recorder.Start(path); err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}
		defer func() {
			frames := recorder.Frames()
			if stopErr := recorder.Stop(); stopErr != nil {
				err = errors.Join(err, fmt.Errorf("failed to stop recording: %w", stopErr))
				return
			}
			log.Infof("Recording saved to: %s (%d frames)", path, frames)
		}()
		tap = recorder.Tap(func(err error) { log.Errorf("Recorder: %v", err) })
	}

	surface := render.NewSurface()
	engine, err := newEngine(cfg, source, surface, tap)
	if err != nil {
		return err
	}

	// CRITICAL: Start of real-time audio processing. Once the source is
	// open its callback thread feeds the engine.
	if err := engine.Start(); err != nil {
		return err
	}
	defer func() {
		if closeErr := engine.Close(); closeErr != nil {
			log.Errorf("Error closing engine: %v", closeErr)
		}
		log.Debugf("Engine stats: %+v", engine.Stats())
	}()

	publisher, err := newPublisher(cfg, engine)
	if err != nil {
		return err
	}
	if publisher != nil {
		publisher.Start()
		defer publisher.Close()
	}

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if fs, ok := source.(*audio.FileSource); ok {
		ctx = stopWhenDone(ctx, fs.Done())
	}

	return host(ctx, cfg, engine, surface)

	// ==================== SHUTDOWN PHASE (Cold Path) ====================
	// Deferred above: publisher, engine and source, recorder, PortAudio.
}

// newEngine builds an engine from the configuration.
func newEngine(cfg *config.Config, source viz.Source, surface *image.RGBA, tap func([]float32)) (*viz.Engine, error) {
	window, err := fft.ParseWindowFunc(cfg.Audio.FFTWindow)
	if err != nil {
		return nil, err
	}
	mode, err := viz.ParseMode(cfg.Display.Mode)
	if err != nil {
		return nil, err
	}
	return viz.New(viz.Options{
		Source:     source,
		SampleRate: cfg.Audio.SampleRate,
		Surface:    surface,
		Palette:    render.NewGradientPalette(cfg.Display.Palette...),
		Window:     window,
		Mode:       mode,
		Normalize:  cfg.Display.Normalize,
		Tap:        tap,
	})
}

// newPublisher assembles the enabled transports. It returns nil when none
// is enabled.
func newPublisher(cfg *config.Config, engine *viz.Engine) (*transport.Publisher, error) {
	t := cfg.Transport
	if !t.Enabled() {
		return nil, nil
	}

	var transports []transport.Transport
	closeAll := func() {
		for _, tr := range transports {
			tr.Close()
		}
	}

	if t.UDPEnabled {
		sender, err := udp.NewUDPSender(t.UDPTargetAddress)
		if err != nil {
			return nil, err
		}
		transports = append(transports, sender)
	}
	if t.WSEnabled {
		ws := transport.NewWebSocketTransport(t.WSAddress)
		if err := ws.Start(); err != nil {
			ws.Close()
			closeAll()
			return nil, err
		}
		transports = append(transports, ws)
	}
	if t.LogEnabled {
		transports = append(transports, transport.NewLoggingTransport())
	}

	p, err := transport.NewPublisher(t.UDPSendInterval, engine, transports...)
	if err != nil {
		closeAll()
		return nil, err
	}
	return p, nil
}

// host runs the configured display until the user quits or ctx ends.
func host(ctx context.Context, cfg *config.Config, engine *viz.Engine, surface *image.RGBA) error {
	buildInfo := build.GetBuildFlags()

	switch cfg.Display.Host {
	case config.HostWindow:
		game, err := display.NewGame(engine, surface, cfg.Display.SnapshotDir)
		if err != nil {
			return err
		}
		game.StopOn(ctx.Done())
		return display.Run(game, display.Options{
			Title:       fmt.Sprintf("%s %s", buildInfo.Name, buildInfo.Version),
			Scale:       cfg.Display.Scale,
			SnapshotDir: cfg.Display.SnapshotDir,
		})

	case config.HostTUI:
		return tui.RunMonitor(ctx, engine, tui.MonitorOptions{
			Title:    buildInfo.Name,
			Refresh:  cfg.Display.Refresh,
			Controls: engine,
			Snapshot: snapshotFunc(engine, surface, cfg.Display.SnapshotDir),
		})

	default:
		fmt.Printf("%s running headless, press Ctrl+C to stop.\n", buildInfo.Name)
		<-ctx.Done()
		return nil
	}
}

// snapshotFunc renders the current mode off-screen and saves it as PNG.
func snapshotFunc(engine *viz.Engine, surface *image.RGBA, dir string) func() (string, error) {
	return func() (string, error) {
		engine.Render()
		path := render.SnapshotPath(dir, engine.Mode().String(), time.Now())
		if err := render.SavePNG(path, surface); err != nil {
			return "", err
		}
		return path, nil
	}
}

// stopWhenDone derives a context that also ends when done is closed.
func stopWhenDone(ctx context.Context, done <-chan struct{}) context.Context {
	if done == nil {
		return ctx
	}
	ctx, cancel := context.WithCancel(ctx)
	go func() {
		defer cancel()
		select {
		case <-done:
			log.Info("Playback finished")
		case <-ctx.Done():
		}
	}()
	return ctx
}
