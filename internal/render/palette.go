// SPDX-License-Identifier: MIT
package render

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// Table is a precomputed 256-entry palette.
type Table [256]color.RGBA

// Lookup returns entry index.
func (t *Table) Lookup(index uint8) color.RGBA {
	return t[index]
}

// Heat is the default magnitude ramp, dark to bright.
var Heat = []string{"#000000", "#0b0c3a", "#3b0f70", "#8c2981", "#de4968", "#fe9f6d", "#fcfdbf"}

// NewGradientPalette blends stops evenly across indices 1..255 in Lab space.
// Index 0 is the background colour, opaque black. Invalid hex stops fall back
// to black rather than failing palette setup.
func NewGradientPalette(stops ...string) *Table {
	t := &Table{}
	t[BackgroundIndex] = color.RGBA{A: 0xff}
	if len(stops) == 0 {
		stops = Heat
	}

	colors := make([]colorful.Color, len(stops))
	for i, s := range stops {
		c, err := colorful.Hex(s)
		if err != nil {
			c = colorful.Color{}
		}
		colors[i] = c
	}

	for i := 1; i < len(t); i++ {
		pos := float64(i-1) / 254
		t[i] = toRGBA(blend(colors, pos))
	}
	return t
}

func blend(colors []colorful.Color, pos float64) colorful.Color {
	if len(colors) == 1 {
		return colors[0]
	}
	scaled := pos * float64(len(colors)-1)
	seg := int(scaled)
	if seg >= len(colors)-1 {
		return colors[len(colors)-1]
	}
	return colors[seg].BlendLab(colors[seg+1], scaled-float64(seg)).Clamped()
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
