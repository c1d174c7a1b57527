// SPDX-License-Identifier: MIT
/*
Package render rasterises visualizer state into a fixed ScreenWidth x
ScreenHeight pixel surface.

The surface is split into two panels of PanelHeight lines: the left channel
on top, the right channel below. Every renderer repaints every pixel on each
call and reads only the Frame it is given, so it can run on the video
goroutine while ingestion keeps going on a private copy.
*/
package render

import (
	"audioviz/internal/analysis"
	"audioviz/internal/capture"
	"image"
	"image/color"
)

const (
	ScreenWidth  = analysis.Bins                   // One column per bin.
	ScreenHeight = 768                             // Two panels of WaterfallRows lines.
	PanelHeight  = ScreenHeight / capture.Channels // Lines per channel panel.
	MinBarHeight = 1                               // Bars never vanish entirely.

	// Palette indices with a fixed role. Index 0 is always the background;
	// 1..255 is the magnitude ramp.
	BackgroundIndex uint8 = 0
	GuideIndex      uint8 = 96
	TraceIndex      uint8 = 255
)

// Surface is the pixel sink. *image.RGBA satisfies it.
type Surface interface {
	SetRGBA(x, y int, c color.RGBA)
	Bounds() image.Rectangle
}

// Palette resolves palette indices to colours.
type Palette interface {
	Lookup(index uint8) color.RGBA
}

// PaletteFunc adapts a plain function to Palette.
type PaletteFunc func(index uint8) color.RGBA

// Lookup calls f(index).
func (f PaletteFunc) Lookup(index uint8) color.RGBA {
	return f(index)
}

// Frame is the read-only state a renderer paints from.
type Frame struct {
	Samples    [capture.Channels][capture.FrameLength]float32 // Latest complete raw frame.
	Spectrum   [capture.Channels][analysis.Bins]float64       // Latest magnitudes.
	Waterfall  analysis.Waterfall                             // Quantised history.
	Level      [capture.Channels]float64                      // RMS level.
	Peak       [capture.Channels]float64                      // Peak hold.
	SampleRef  [capture.Channels]float64                      // Largest |sample| over the normalisation history.
	BinRef     [capture.Channels]float64                      // Largest magnitude over the normalisation history.
	SampleRate float64
	Normalize  bool
}

// Renderer paints a complete surface from a frame.
type Renderer interface {
	Render(dst Surface, f *Frame, pal Palette)
}

// FitsSurface reports whether dst is exactly ScreenWidth x ScreenHeight.
func FitsSurface(dst Surface) bool {
	b := dst.Bounds()
	return b.Dx() == ScreenWidth && b.Dy() == ScreenHeight
}

// NewSurface returns an RGBA surface of the screen size.
func NewSurface() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, ScreenWidth, ScreenHeight))
}

// pen draws in surface-local coordinates, so surfaces whose bounds do not
// start at the origin are still addressed from (0, 0).
type pen struct {
	dst    Surface
	ox, oy int
}

func newPen(dst Surface) pen {
	min := dst.Bounds().Min
	return pen{dst: dst, ox: min.X, oy: min.Y}
}

func (p pen) set(x, y int, c color.RGBA) {
	p.dst.SetRGBA(p.ox+x, p.oy+y, c)
}

func (p pen) fill(c color.RGBA) {
	if img, ok := p.dst.(*image.RGBA); ok && p.ox == 0 && p.oy == 0 {
		fillRGBA(img, c)
		return
	}
	for y := range ScreenHeight {
		for x := range ScreenWidth {
			p.set(x, y, c)
		}
	}
}

// vline draws x, y0..y1 inclusive in either order.
func (p pen) vline(x, y0, y1 int, c color.RGBA) {
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		p.set(x, y, c)
	}
}

func (p pen) hline(y int, c color.RGBA) {
	for x := range ScreenWidth {
		p.set(x, y, c)
	}
}

// fillRGBA paints the first row then doubles it down the buffer.
func fillRGBA(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	rowBytes := b.Dx() * 4
	if rowBytes == 0 || b.Dy() == 0 {
		return
	}
	row := img.Pix[:rowBytes]
	for i := 0; i < rowBytes; i += 4 {
		row[i], row[i+1], row[i+2], row[i+3] = c.R, c.G, c.B, c.A
	}
	for y := 1; y < b.Dy(); y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+rowBytes], row)
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
