// SPDX-License-Identifier: MIT
/*
Package capture implements the sample ring that turns an arbitrary-sized
stream of stereo samples into fixed FrameLength frames.

Frames are double-buffered: ingestion fills one slot while the other holds
the most recent complete frame. A slot is handed over only once it is full,
by an atomic store of its index, so a reader that loads the ready index
never sees a half-written frame from the current fill pass.

Thread Safety:
  - Write, WriteInterleaved and the OnFrame hook run on the ingest goroutine
  - Ready, FramesAvailable, SampleRate and Started are safe from any goroutine
  - Frame must only be called from the ingest goroutine (typically OnFrame)
*/
package capture

import (
	"math"
	"sync/atomic"
)

const (
	FrameLength = 512 // Samples per channel per frame (the transform length).
	Channels    = 2   // Stereo tap.

	noSlot = -1
)

// Ring accumulates samples into double-buffered frames.
type Ring struct {
	slots [2][Channels][FrameLength]float32

	// Owned by the ingest goroutine.
	fill int
	slot int

	ready   atomic.Int32  // Index of the latest complete slot, or noSlot.
	frames  atomic.Uint64 // Frames completed since Start/Reset.
	rate    atomic.Uint64 // Active sample rate (float64 bits).
	pending atomic.Uint64 // Rate to adopt at the next frame boundary, 0 = none.
	started atomic.Bool

	// OnFrame, when set, runs synchronously on the ingest goroutine each
	// time a frame completes, before the write position moves on.
	OnFrame func(slot int)
}

// NewRing returns a ring that drops input until Start is called.
func NewRing() *Ring {
	r := &Ring{}
	r.ready.Store(noSlot)
	return r
}

// Start zeroes the ring and begins accepting samples at sampleRate.
func (r *Ring) Start(sampleRate float64) {
	r.Reset()
	r.rate.Store(math.Float64bits(sampleRate))
	r.started.Store(true)
}

// Stop makes further writes no-ops. Buffered data is kept.
func (r *Ring) Stop() {
	r.started.Store(false)
}

// Started reports whether the ring is accepting samples.
func (r *Ring) Started() bool {
	return r.started.Load()
}

// Reset discards buffered samples and the frame counter. The active sample
// rate is kept.
func (r *Ring) Reset() {
	r.slots = [2][Channels][FrameLength]float32{}
	r.fill = 0
	r.slot = 0
	r.ready.Store(noSlot)
	r.frames.Store(0)
	r.pending.Store(0)
}

// SetSampleRate schedules a rate change. The current frame keeps the old
// rate; the new one applies from the next frame boundary.
func (r *Ring) SetSampleRate(hz float64) {
	if hz <= 0 {
		return
	}
	r.pending.Store(math.Float64bits(hz))
}

// SampleRate returns the rate of the frame currently being filled.
func (r *Ring) SampleRate() float64 {
	return math.Float64frombits(r.rate.Load())
}

// FramesAvailable returns how many frames have completed since Start.
func (r *Ring) FramesAvailable() uint64 {
	return r.frames.Load()
}

// Fill returns the number of samples buffered toward the next frame.
func (r *Ring) Fill() int {
	return r.fill
}

// Ready returns the index of the latest complete slot, or -1.
func (r *Ring) Ready() int {
	return int(r.ready.Load())
}

// Frame returns the latest complete frame for channel ch, or nil before the
// first frame.
func (r *Ring) Frame(ch int) []float32 {
	slot := r.ready.Load()
	if slot == noSlot || ch < 0 || ch >= Channels {
		return nil
	}
	return r.slots[slot][ch][:]
}

// Write appends min(len(left), len(right)) samples per channel and returns
// the number of frames completed by this call.
func (r *Ring) Write(left, right []float32) int {
	if !r.started.Load() {
		return 0
	}

	n := min(len(left), len(right))
	completed := 0
	for i := 0; i < n; {
		k := min(n-i, FrameLength-r.fill)
		copy(r.slots[r.slot][0][r.fill:], left[i:i+k])
		copy(r.slots[r.slot][1][r.fill:], right[i:i+k])
		r.fill += k
		i += k

		if r.fill == FrameLength {
			r.complete()
			completed++
		}
	}
	return completed
}

// WriteInterleaved appends LRLR-ordered stereo samples. A trailing odd
// sample is ignored.
func (r *Ring) WriteInterleaved(in []float32) int {
	if !r.started.Load() {
		return 0
	}

	completed := 0
	for i := 0; i+1 < len(in); i += Channels {
		r.slots[r.slot][0][r.fill] = in[i]
		r.slots[r.slot][1][r.fill] = in[i+1]
		r.fill++

		if r.fill == FrameLength {
			r.complete()
			completed++
		}
	}
	return completed
}

// complete hands the filled slot over and flips to the other one.
func (r *Ring) complete() {
	slot := r.slot
	r.fill = 0
	r.slot ^= 1

	r.ready.Store(int32(slot))
	r.frames.Add(1)

	if r.OnFrame != nil {
		r.OnFrame(slot)
	}

	if p := r.pending.Swap(0); p != 0 {
		r.rate.Store(p)
	}
}
