// SPDX-License-Identifier: MIT
package analysis

import "audioviz/internal/capture"

const (
	HistoryLength = 131072                              // Samples the normalisation reference spans.
	HistoryFrames = HistoryLength / capture.FrameLength // Frames kept per channel.
)

// PeakHistory holds one peak value per channel for each of the last
// HistoryFrames frames. Max over that window gives normalisation a reference
// that follows loud passages and releases only once they scroll out.
type PeakHistory struct {
	peaks [HistoryFrames][capture.Channels]float64
	next  int
	count int
}

// Push records the peaks of one frame, overwriting the oldest when full.
func (h *PeakHistory) Push(peaks [capture.Channels]float64) {
	h.peaks[h.next] = peaks
	h.next = (h.next + 1) % HistoryFrames
	if h.count < HistoryFrames {
		h.count++
	}
}

// Len returns the number of frames held.
func (h *PeakHistory) Len() int {
	return h.count
}

// Max returns the largest peak of channel ch over the held frames.
func (h *PeakHistory) Max(ch int) float64 {
	if ch < 0 || ch >= capture.Channels {
		return 0
	}
	m := 0.0
	for i := range h.count {
		if v := h.peaks[i][ch]; v > m {
			m = v
		}
	}
	return m
}

// Reset drops all history.
func (h *PeakHistory) Reset() {
	*h = PeakHistory{}
}
