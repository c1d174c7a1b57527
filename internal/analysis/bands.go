// SPDX-License-Identifier: MIT
package analysis

// GroupMax reduces src into bars of width consecutive bins, writing the
// largest magnitude of each group into dst. It returns the number of bars
// written, at most len(dst). A trailing partial group still forms a bar.
func GroupMax(dst, src []float64, width int) int {
	if width < 1 {
		width = 1
	}

	bars := 0
	for lo := 0; lo < len(src) && bars < len(dst); lo += width {
		hi := min(lo+width, len(src))
		m := src[lo]
		for _, v := range src[lo+1 : hi] {
			if v > m {
				m = v
			}
		}
		dst[bars] = m
		bars++
	}
	return bars
}

// MaxOf returns the largest value in src, or 0 when src is empty or all
// values are negative.
func MaxOf(src []float64) float64 {
	var m float64
	for _, v := range src {
		if v > m {
			m = v
		}
	}
	return m
}
