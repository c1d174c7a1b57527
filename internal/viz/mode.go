// SPDX-License-Identifier: MIT
package viz

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Mode selects what the surface shows.
type Mode int32

const (
	Waveform Mode = iota
	Waterfall
	RawSpectrum
	BarSpectrum4
	BarSpectrum8
	BarSpectrum16

	ModeCount = int(BarSpectrum16) + 1
)

var modeNames = [ModeCount]string{
	Waveform:      "waveform",
	Waterfall:     "waterfall",
	RawSpectrum:   "spectrum",
	BarSpectrum4:  "bars4",
	BarSpectrum8:  "bars8",
	BarSpectrum16: "bars16",
}

func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mode(%d)", int32(m))
	}
	return modeNames[m]
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= 0 && int(m) < ModeCount
}

// NeedsFFT reports whether the mode consumes spectral data. Only the
// waveform view works from raw samples alone.
func (m Mode) NeedsFFT() bool {
	return m.Valid() && m != Waveform
}

// Next returns the mode after m, wrapping after the last.
func (m Mode) Next() Mode {
	return Mode((int(m) + 1) % ModeCount)
}

// ParseMode accepts the names returned by String, case-insensitively.
func ParseMode(name string) (Mode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range modeNames {
		if n == name {
			return Mode(i), nil
		}
	}
	return Waveform, fmt.Errorf("unknown visualization mode %q", name)
}

// Controller holds the user-selectable view state. Writers are the input
// handlers; readers are both the ingest and render goroutines.
type Controller struct {
	mode      atomic.Int32
	normalize atomic.Bool
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode {
	return Mode(c.mode.Load())
}

// Normalize returns the normalisation flag.
func (c *Controller) Normalize() bool {
	return c.normalize.Load()
}

// SetMode selects m directly. Invalid modes are ignored.
func (c *Controller) SetMode(m Mode) {
	if m.Valid() {
		c.mode.Store(int32(m))
	}
}

// SetNormalize sets the normalisation flag.
func (c *Controller) SetNormalize(on bool) {
	c.normalize.Store(on)
}

// CycleMode advances to the next mode and returns it.
func (c *Controller) CycleMode() Mode {
	for {
		cur := c.mode.Load()
		next := Mode(cur).Next()
		if c.mode.CompareAndSwap(cur, int32(next)) {
			return next
		}
	}
}

// ToggleNormalize flips the normalisation flag and returns the new value.
func (c *Controller) ToggleNormalize() bool {
	for {
		cur := c.normalize.Load()
		if c.normalize.CompareAndSwap(cur, !cur) {
			return !cur
		}
	}
}
