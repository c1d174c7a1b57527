// SPDX-License-Identifier: MIT
package render

import (
	"audioviz/internal/analysis"
	"audioviz/internal/capture"
)

// Spectrum draws each channel's magnitudes as vertical bars rising from the
// bottom of its panel. BinsPerBar adjacent bins are reduced to one bar by
// taking their maximum; with BinsPerBar 1 every bin gets its own column.
type Spectrum struct {
	BinsPerBar int

	bars [analysis.Bins]float64
}

// NewSpectrum returns a spectrum renderer grouping binsPerBar bins per bar.
func NewSpectrum(binsPerBar int) *Spectrum {
	return &Spectrum{BinsPerBar: max(binsPerBar, 1)}
}

// BarHeight maps mag against ref onto MinBarHeight..PanelHeight.
func BarHeight(mag, ref float64) int {
	if !(mag > 0) || !(ref > 0) {
		return MinBarHeight
	}
	h := MinBarHeight + int(mag/ref*float64(PanelHeight-MinBarHeight))
	return clampInt(h, MinBarHeight, PanelHeight)
}

// Render implements Renderer.
func (s *Spectrum) Render(dst Surface, f *Frame, pal Palette) {
	p := newPen(dst)
	p.fill(pal.Lookup(BackgroundIndex))

	for ch := range capture.Channels {
		spectrum := f.Spectrum[ch][:]
		n := analysis.GroupMax(s.bars[:], spectrum, s.BinsPerBar)
		if n == 0 {
			continue
		}

		ref := analysis.FullScale
		if f.Normalize {
			if m := max(f.BinRef[ch], analysis.MaxOf(spectrum)); m > 0 {
				ref = m
			}
		}

		width := ScreenWidth / n
		gap := 0
		if width > 1 {
			gap = 1
		}
		base := (ch+1)*PanelHeight - 1

		for b := range n {
			h := BarHeight(s.bars[b], ref)
			x0 := b * width
			for y := range h {
				c := pal.Lookup(rampIndex(y))
				for x := x0; x < x0+width-gap; x++ {
					p.set(x, base-y, c)
				}
			}
		}
	}
}

// rampIndex colours a bar pixel by its height in the panel.
func rampIndex(y int) uint8 {
	return uint8(1 + y*254/(PanelHeight-1))
}
