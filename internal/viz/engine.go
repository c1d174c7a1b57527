// SPDX-License-Identifier: MIT
/*
Package viz composes the visualizer core: sample ring, FFT, level tracking,
waterfall history and renderers, wired together behind one Engine.

Thread Safety:
  - Ingest and IngestInterleaved run on the audio goroutine and must not be
    called concurrently with each other
  - Render runs on the video goroutine; concurrent Render calls serialise
  - CycleMode, ToggleNormalize, Reset and the telemetry readers are safe
    from any goroutine

The audio goroutine publishes into a fixed snapshot under a write lock held
only for bounded copies. Render copies that snapshot under a read lock and
paints from its private copy with no lock held.
*/
package viz

import (
	"audioviz/internal/analysis"
	"audioviz/internal/capture"
	"audioviz/internal/fft"
	"audioviz/internal/log"
	"audioviz/internal/render"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	ErrInit        = errors.New("visualizer initialization failed")
	ErrNoSurface   = errors.New("no render surface")
	ErrNoPalette   = errors.New("no palette")
	ErrSurfaceSize = fmt.Errorf("surface must be %dx%d", render.ScreenWidth, render.ScreenHeight)
)

// Options configures an Engine.
type Options struct {
	Source     Source          // Optional; without one, samples are pushed with Ingest.
	SampleRate float64         // Used when Source is nil.
	Surface    render.Surface  // Required, ScreenWidth x ScreenHeight.
	Palette    render.Palette  // Required.
	Window     fft.WindowFunc  // Analysis window, Hann by default.
	Mode       Mode            // Initial mode.
	Normalize  bool            // Initial normalisation flag.
	Tap        func([]float32) // Optional; sees every interleaved buffer before analysis.
}

// Stats are running counters since the last Start or Reset.
type Stats struct {
	Frames     uint64  // Completed frames.
	Transforms uint64  // Frames that went through the FFT.
	Rows       uint64  // Waterfall rows written.
	SampleRate float64 // Rate of the latest frame.
}

// Engine is the visualizer core.
type Engine struct {
	source  Source
	surface render.Surface
	palette render.Palette
	window  fft.WindowFunc
	rate    float64
	tap     func([]float32)

	controller Controller
	ring       *capture.Ring
	proc       *fft.Processor
	levels     analysis.Levels
	sampleHist analysis.PeakHistory
	binHist    analysis.PeakHistory

	started      atomic.Bool
	resetPending atomic.Bool

	mu        sync.RWMutex
	published render.Frame // Guarded by mu.
	stats     Stats        // Guarded by mu.

	renderMu  sync.Mutex
	view      render.Frame // Owned by Render.
	renderers [ModeCount]render.Renderer
}

// New validates opts and builds an engine. Nothing is allocated on the
// audio path until Start.
func New(opts Options) (*Engine, error) {
	if opts.Surface == nil {
		return nil, ErrNoSurface
	}
	if !render.FitsSurface(opts.Surface) {
		return nil, ErrSurfaceSize
	}
	if opts.Palette == nil {
		return nil, ErrNoPalette
	}

	e := &Engine{
		source:  opts.Source,
		surface: opts.Surface,
		palette: opts.Palette,
		window:  opts.Window,
		rate:    opts.SampleRate,
		tap:     opts.Tap,
		ring:    capture.NewRing(),
		renderers: [ModeCount]render.Renderer{
			Waveform:      render.Waveform{},
			Waterfall:     render.Waterfall{},
			RawSpectrum:   render.NewSpectrum(1),
			BarSpectrum4:  render.NewSpectrum(4),
			BarSpectrum8:  render.NewSpectrum(8),
			BarSpectrum16: render.NewSpectrum(16),
		},
	}
	e.controller.SetMode(opts.Mode)
	e.controller.SetNormalize(opts.Normalize)
	e.ring.OnFrame = e.onFrame
	return e, nil
}

// Start computes the window, zeroes all state and opens the source. It is a
// no-op on a running engine.
func (e *Engine) Start() error {
	if e.started.Load() {
		return nil
	}

	if e.proc == nil {
		proc, err := fft.NewProcessor(capture.FrameLength, e.window)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInit, err)
		}
		e.proc = proc
	}

	rate := e.rate
	if e.source != nil {
		rate = e.source.SampleRate()
	}
	if !(rate > 0) {
		return fmt.Errorf("%w: invalid sample rate %g", ErrInit, rate)
	}

	e.clear()
	e.ring.Start(rate)
	e.started.Store(true)

	if e.source != nil {
		if err := e.source.Open(e.IngestInterleaved); err != nil {
			e.started.Store(false)
			e.ring.Stop()
			return fmt.Errorf("%w: open audio source: %w", ErrInit, err)
		}
	}

	log.Infof("Engine: started (%.0f Hz, window %s, mode %s)", rate, e.window, e.Mode())
	return nil
}

// Close stops ingestion and closes the source.
func (e *Engine) Close() error {
	if !e.started.Swap(false) {
		return nil
	}
	e.ring.Stop()
	if e.source != nil {
		if err := e.source.Close(); err != nil {
			return fmt.Errorf("close audio source: %w", err)
		}
	}
	log.Info("Engine: stopped")
	return nil
}

// Started reports whether the engine is accepting samples.
func (e *Engine) Started() bool {
	return e.started.Load()
}

// Reset clears history, levels and published spectra. Window coefficients
// are kept. While running, the ingest side drops its partial frame at the
// next ingest call; the published view clears immediately.
func (e *Engine) Reset() {
	if !e.started.Load() {
		e.clear()
		log.Debug("Engine: reset")
		return
	}

	// Raise the flag first so onFrame stops publishing before the view clears.
	e.resetPending.Store(true)
	e.mu.Lock()
	e.published = render.Frame{}
	e.stats = Stats{}
	e.mu.Unlock()
	log.Debug("Engine: reset")
}

// clear zeroes ingest-owned state. Callers own the ingest side.
func (e *Engine) clear() {
	e.ring.Reset()
	e.levels.Reset()
	e.sampleHist.Reset()
	e.binHist.Reset()
	if e.proc != nil {
		e.proc.Reset()
	}
	e.mu.Lock()
	e.published = render.Frame{}
	e.stats = Stats{}
	e.mu.Unlock()
}

// SetSampleRate changes the analysis rate from the next frame boundary.
func (e *Engine) SetSampleRate(hz float64) {
	e.ring.SetSampleRate(hz)
}

// Ingest accepts per-channel sample buffers of any length.
func (e *Engine) Ingest(left, right []float32) {
	e.checkReset()
	e.ring.Write(left, right)
}

// IngestInterleaved accepts LRLR-ordered stereo samples. It is the handler
// passed to the Source.
func (e *Engine) IngestInterleaved(in []float32) {
	if e.tap != nil {
		e.tap(in)
	}
	e.checkReset()
	e.ring.WriteInterleaved(in)
}

func (e *Engine) checkReset() {
	if e.resetPending.Swap(false) {
		e.clear()
	}
}

// onFrame runs on the ingest goroutine for each completed frame. Frames
// completed while a reset is pending predate it and are dropped.
func (e *Engine) onFrame(int) {
	if e.resetPending.Load() {
		return
	}
	left, right := e.ring.Frame(0), e.ring.Frame(1)
	spectral := e.controller.Mode().NeedsFFT()

	e.levels.Update(0, left)
	e.levels.Update(1, right)
	e.sampleHist.Push([capture.Channels]float64{analysis.PeakAbs(left), analysis.PeakAbs(right)})
	if spectral {
		e.proc.ApplyWindow(0, left)
		e.proc.ApplyWindow(1, right)
		e.proc.Transform()
		e.binHist.Push([capture.Channels]float64{
			analysis.MaxOf(e.proc.Magnitudes(0)),
			analysis.MaxOf(e.proc.Magnitudes(1)),
		})
	}

	e.mu.Lock()
	if e.resetPending.Load() {
		e.mu.Unlock()
		return
	}
	p := &e.published
	copy(p.Samples[0][:], left)
	copy(p.Samples[1][:], right)
	for ch := range capture.Channels {
		p.Level[ch] = e.levels.Level(ch)
		p.Peak[ch] = e.levels.Peak(ch)
		p.SampleRef[ch] = e.sampleHist.Max(ch)
		p.BinRef[ch] = e.binHist.Max(ch)
	}
	if spectral {
		l, r := e.proc.Magnitudes(0), e.proc.Magnitudes(1)
		copy(p.Spectrum[0][:], l)
		copy(p.Spectrum[1][:], r)
		p.Waterfall.Push(l, r)
		e.stats.Transforms++
	}
	p.SampleRate = e.ring.SampleRate()
	e.stats.Frames++
	e.stats.Rows = p.Waterfall.Written()
	e.stats.SampleRate = p.SampleRate
	e.mu.Unlock()
}

// Render paints the surface from the latest published state using the
// active mode. It never blocks ingestion for longer than one snapshot copy
// and does not allocate.
func (e *Engine) Render() {
	e.renderMu.Lock()
	defer e.renderMu.Unlock()

	e.mu.RLock()
	e.view = e.published
	e.mu.RUnlock()

	e.view.Normalize = e.controller.Normalize()
	e.renderers[e.controller.Mode()].Render(e.surface, &e.view, e.palette)
}

// Surface returns the surface Render paints.
func (e *Engine) Surface() render.Surface {
	return e.surface
}

// CycleMode advances to the next visualization mode.
func (e *Engine) CycleMode() Mode {
	m := e.controller.CycleMode()
	log.Debugf("Engine: mode %s", m)
	return m
}

// ToggleNormalize flips normalisation.
func (e *Engine) ToggleNormalize() bool {
	on := e.controller.ToggleNormalize()
	log.Debugf("Engine: normalize %t", on)
	return on
}

// Mode returns the active visualization mode.
func (e *Engine) Mode() Mode {
	return e.controller.Mode()
}

// SetMode selects a mode directly.
func (e *Engine) SetMode(m Mode) {
	e.controller.SetMode(m)
}

// Normalize returns the normalisation flag.
func (e *Engine) Normalize() bool {
	return e.controller.Normalize()
}

// Stats returns the running counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// SampleRate returns the rate of the latest published frame, or the
// configured rate before the first frame.
func (e *Engine) SampleRate() float64 {
	e.mu.RLock()
	sr := e.published.SampleRate
	e.mu.RUnlock()
	if sr > 0 {
		return sr
	}
	return e.ring.SampleRate()
}

// SpectrumInto copies the left then right magnitudes into dst and returns
// the number of values written.
func (e *Engine) SpectrumInto(dst []float64) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n := copy(dst, e.published.Spectrum[0][:])
	n += copy(dst[n:], e.published.Spectrum[1][:])
	return n
}

// LevelsInto copies the per-channel level and peak-hold values.
func (e *Engine) LevelsInto(levels, peaks *[2]float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if levels != nil {
		*levels = e.published.Level
	}
	if peaks != nil {
		*peaks = e.published.Peak
	}
}

// BinFrequency returns the centre frequency of a bin at the current rate.
func (e *Engine) BinFrequency(bin int) float64 {
	return float64(bin) * e.SampleRate() / capture.FrameLength
}
