// SPDX-License-Identifier: MIT
package analysis

import (
	"audioviz/internal/capture"
	"math"
)

const (
	Bins          = capture.FrameLength / 2 // Magnitude bins per channel.
	RowWidth      = capture.Channels * Bins // Left bins followed by right bins.
	WaterfallRows = 384                     // History depth: one scanline per row in each half of a 768-line surface.

	DynamicRange = 96.0 // dB mapped onto palette indices 1..255.
	FullScale    = 0.5  // Magnitude of a full-scale sine through the normalised window.
)

// Row is one quantised spectrum: palette indices for the left channel's
// bins followed by the right channel's.
type Row [RowWidth]uint8

var blankRow Row

// Waterfall is a fixed-capacity ring of spectrum rows. The cursor always
// points at the slot the next row goes into; it advances only after the row
// is fully written.
type Waterfall struct {
	rows    [WaterfallRows]Row
	cursor  int
	written uint64
}

// Quantize maps a magnitude onto a palette index on a dB scale. Zero, NaN
// and anything more than DynamicRange below FullScale give 0.
func Quantize(mag float64) uint8 {
	if !(mag > 0) {
		return 0
	}
	db := 20 * math.Log10(mag/FullScale)
	v := (db + DynamicRange) / DynamicRange * 255
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

// Push quantises a stereo spectrum into the newest row, overwriting the
// oldest once the ring is full. Spectra longer than Bins are reduced by
// taking the max of each column's bins.
func (w *Waterfall) Push(left, right []float64) {
	row := &w.rows[w.cursor]
	quantizeInto(row[:Bins], left)
	quantizeInto(row[Bins:], right)

	w.cursor++
	if w.cursor == WaterfallRows {
		w.cursor = 0
	}
	w.written++
}

func quantizeInto(dst []uint8, src []float64) {
	n := len(src)
	if n == 0 {
		clear(dst)
		return
	}
	cols := len(dst)
	for c := range cols {
		lo := c * n / cols
		hi := (c + 1) * n / cols
		if hi <= lo {
			hi = lo + 1
		}
		if lo >= n {
			dst[c] = 0
			continue
		}
		hi = min(hi, n)
		m := src[lo]
		for _, v := range src[lo+1 : hi] {
			if v > m {
				m = v
			}
		}
		dst[c] = Quantize(m)
	}
}

// Len returns the number of valid rows, capped at capacity.
func (w *Waterfall) Len() int {
	if w.written >= WaterfallRows {
		return WaterfallRows
	}
	return int(w.written)
}

// Cap returns the ring capacity.
func (w *Waterfall) Cap() int {
	return WaterfallRows
}

// Written returns the total number of rows ever pushed.
func (w *Waterfall) Written() uint64 {
	return w.written
}

// Row returns the i-th valid row, oldest first. Indices outside [0, Len())
// return a blank row. The result must not be modified.
func (w *Waterfall) Row(i int) *Row {
	n := w.Len()
	if i < 0 || i >= n {
		return &blankRow
	}
	oldest := w.cursor - n
	if oldest < 0 {
		oldest += WaterfallRows
	}
	return &w.rows[(oldest+i)%WaterfallRows]
}

// Recent returns the row written age pushes ago; age 0 is the newest.
// Ages at or beyond Len() return a blank row.
func (w *Waterfall) Recent(age int) *Row {
	return w.Row(w.Len() - 1 - age)
}

// CopyTo copies the whole ring state into dst without allocating.
func (w *Waterfall) CopyTo(dst *Waterfall) {
	*dst = *w
}

// Reset clears every row.
func (w *Waterfall) Reset() {
	*w = Waterfall{}
}
