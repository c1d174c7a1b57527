// SPDX-License-Identifier: MIT
package render

import (
	"audioviz/internal/analysis"
	"audioviz/internal/capture"
)

// Waterfall scrolls quantised spectra downward, newest row at the top of
// each channel panel. Output depends only on the store contents.
type Waterfall struct{}

// Render implements Renderer.
func (Waterfall) Render(dst Surface, f *Frame, pal Palette) {
	p := newPen(dst)
	lines := min(PanelHeight, f.Waterfall.Cap())
	for ch := range capture.Channels {
		top := ch * PanelHeight
		for line := range lines {
			row := f.Waterfall.Recent(line)
			bins := row[ch*analysis.Bins : (ch+1)*analysis.Bins]
			for x := range ScreenWidth {
				p.set(x, top+line, pal.Lookup(bins[x]))
			}
		}
		bg := pal.Lookup(BackgroundIndex)
		for line := lines; line < PanelHeight; line++ {
			for x := range ScreenWidth {
				p.set(x, top+line, bg)
			}
		}
	}
}
