// SPDX-License-Identifier: MIT
package render

import (
	"audioviz/internal/analysis"
	"audioviz/internal/capture"
	"math"
)

// Waveform draws each channel's latest raw frame as a connected trace
// centred in its panel, with dim guides at the peak-hold level. Normalised
// traces scale against the history reference, or the frame's own peak when
// that is larger.
type Waveform struct{}

// Render implements Renderer.
func (Waveform) Render(dst Surface, f *Frame, pal Palette) {
	p := newPen(dst)
	p.fill(pal.Lookup(BackgroundIndex))
	trace := pal.Lookup(TraceIndex)
	guide := pal.Lookup(GuideIndex)

	half := PanelHeight/2 - 1
	for ch := range capture.Channels {
		samples := f.Samples[ch][:]
		mid := ch*PanelHeight + PanelHeight/2

		ref := 1.0
		if f.Normalize {
			if peak := max(f.SampleRef[ch], analysis.PeakAbs(samples)); peak > 0 {
				ref = peak
			}
		}
		scale := float64(half) / ref

		if g := min(int(f.Peak[ch]*scale), half); g > 0 {
			p.hline(mid-g, guide)
			p.hline(mid+g, guide)
		}

		prev := 0
		for x := range ScreenWidth {
			s := float64(samples[x*capture.FrameLength/ScreenWidth])
			y := mid - clampInt(int(math.Round(s*scale)), -half, half)
			if x == 0 {
				prev = y
			}
			p.vline(x, prev, y, trace)
			prev = y
		}
	}
}
