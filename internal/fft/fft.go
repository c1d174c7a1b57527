// SPDX-License-Identifier: MIT

// Package fft is the windowing and transform stage: it turns a completed
// stereo frame into per-channel magnitude spectra.
package fft

import (
	"audioviz/internal/capture"
	"audioviz/pkg/bitint"
	"errors"
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// ErrSize is returned when the transform length is not a power of two.
var ErrSize = errors.New("fft size must be a power of 2")

// workspace holds pre-allocated buffers for the transform.
type workspace struct {
	input     [capture.Channels][]float64 // Windowed samples per channel.
	output    []complex128                // Shared transform output, size/2+1.
	magnitude [capture.Channels][]float64 // Magnitudes per channel, bins 0..size/2-1.
	window    []float64                   // Normalised window coefficients.
}

// Processor applies the analysis window and computes magnitude spectra.
// It is not safe for concurrent use; the ingest goroutine owns it.
type Processor struct {
	size       int
	bins       int
	windowType WindowFunc
	fftObj     *fourier.FFT
	workspace  workspace
}

// NewProcessor pre-allocates every buffer and computes the window
// coefficients. The coefficients never change afterwards.
func NewProcessor(size int, windowType WindowFunc) (*Processor, error) {
	if !bitint.IsPowerOfTwo(size) || size < 4 {
		return nil, fmt.Errorf("%w, got %d", ErrSize, size)
	}

	coeffs := make([]float64, size)
	fillWindow(coeffs, windowType)

	p := &Processor{
		size:       size,
		bins:       size / 2,
		windowType: windowType,
		fftObj:     fourier.NewFFT(size),
		workspace: workspace{
			output: make([]complex128, size/2+1),
			window: coeffs,
		},
	}
	for ch := range capture.Channels {
		p.workspace.input[ch] = make([]float64, size)
		p.workspace.magnitude[ch] = make([]float64, size/2)
	}
	return p, nil
}

// ApplyWindow multiplies frame by the window coefficients into the scratch
// buffer of channel ch. Missing samples are treated as silence.
func (p *Processor) ApplyWindow(ch int, frame []float32) {
	if ch < 0 || ch >= capture.Channels {
		return
	}
	in := p.workspace.input[ch]
	w := p.workspace.window
	n := min(len(frame), p.size)
	for i := range n {
		in[i] = float64(frame[i]) * w[i]
	}
	clear(in[n:])
}

// Transform runs the FFT on every channel's windowed buffer and stores
// magnitudes for bins 0..Bins()-1. Bin 0 is DC; the Nyquist bin is dropped.
func (p *Processor) Transform() {
	for ch := range capture.Channels {
		p.fftObj.Coefficients(p.workspace.output, p.workspace.input[ch])
		mag := p.workspace.magnitude[ch]
		for i := range mag {
			mag[i] = cmplx.Abs(p.workspace.output[i])
		}
	}
}

// Magnitudes returns the latest spectrum of channel ch. The slice is owned
// by the processor and overwritten by the next Transform.
func (p *Processor) Magnitudes(ch int) []float64 {
	if ch < 0 || ch >= capture.Channels {
		return nil
	}
	return p.workspace.magnitude[ch]
}

// Reset zeroes the scratch and magnitude buffers. Coefficients are kept.
func (p *Processor) Reset() {
	for ch := range capture.Channels {
		clear(p.workspace.input[ch])
		clear(p.workspace.magnitude[ch])
	}
}

// Window returns the coefficients in use. Callers must not modify it.
func (p *Processor) Window() []float64 {
	return p.workspace.window
}

// WindowType returns the configured window function.
func (p *Processor) WindowType() WindowFunc {
	return p.windowType
}

// Size returns the transform length.
func (p *Processor) Size() int {
	return p.size
}

// Bins returns the number of magnitude bins per channel.
func (p *Processor) Bins() int {
	return p.bins
}

// BinFrequency returns the centre frequency in Hz of bin at sampleRate.
func (p *Processor) BinFrequency(bin int, sampleRate float64) float64 {
	if bin < 0 || bin >= p.bins {
		return 0
	}
	return p.fftObj.Freq(bin) * sampleRate
}
