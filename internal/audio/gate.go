// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"sync/atomic"
)

const signMask = 1 << 31

// Gate squelches input buffers whose peak amplitude stays below a
// threshold, so line hiss does not paint the display. It is safe to adjust
// from any goroutine while Apply runs on the audio thread.
type Gate struct {
	enabled   atomic.Bool
	threshold atomic.Uint32 // |amplitude| as float32 bits with the sign cleared.
}

// NewGate returns a gate with the given threshold in 0.0-1.0. A zero
// threshold leaves the gate disabled.
func NewGate(threshold float64) *Gate {
	g := &Gate{}
	g.SetThreshold(threshold)
	g.enabled.Store(threshold > 0)
	return g
}

func (g *Gate) Enable() {
	g.enabled.Store(true)
}

func (g *Gate) Disable() {
	g.enabled.Store(false)
}

// Enabled reports whether the gate is active.
func (g *Gate) Enabled() bool {
	return g.enabled.Load()
}

// SetThreshold adjusts the gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (g *Gate) SetThreshold(threshold float64) {
	threshold = math.Max(0, math.Min(1, threshold))
	g.threshold.Store(math.Float32bits(float32(threshold)))
}

// Threshold returns the current threshold in 0.0-1.0.
func (g *Gate) Threshold() float64 {
	return float64(math.Float32frombits(g.threshold.Load()))
}

// Apply zeroes buf in place when its peak is below the threshold and
// reports whether the gate was open. A nil gate is always open.
//
// For non-NaN floats, clearing the sign bit gives |x| and the raw bits of
// non-negative floats order the same way as their values, so the peak is
// found with integer ops only.
func (g *Gate) Apply(buf []float32) bool {
	if g == nil || !g.enabled.Load() {
		return true
	}

	threshold := g.threshold.Load()
	var peak uint32
	for _, s := range buf {
		peak = max(peak, math.Float32bits(s)&^signMask)
	}
	if peak >= threshold {
		return true
	}
	clear(buf)
	return false
}
