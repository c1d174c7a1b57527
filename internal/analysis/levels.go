// SPDX-License-Identifier: MIT
package analysis

import (
	"audioviz/internal/capture"
	"math"
)

const (
	PeakDecay = 0.92 // Geometric peak release per update.
	PeakFloor = 1e-6 // Peaks below this snap to the current level.
)

// Levels tracks per-channel RMS level with a decaying peak hold. The peak
// jumps up immediately and otherwise releases toward the level, never
// dropping below it.
type Levels struct {
	level [capture.Channels]float64
	peak  [capture.Channels]float64
}

// Update recomputes channel ch from the latest raw (unwindowed) frame.
func (l *Levels) Update(ch int, frame []float32) {
	if ch < 0 || ch >= capture.Channels {
		return
	}

	level := RMS(frame)
	l.level[ch] = level

	peak := l.peak[ch] * PeakDecay
	if peak < level {
		peak = level
	}
	if peak < PeakFloor {
		peak = level
	}
	l.peak[ch] = peak
}

// Level returns the RMS level of channel ch.
func (l *Levels) Level(ch int) float64 {
	if ch < 0 || ch >= capture.Channels {
		return 0
	}
	return l.level[ch]
}

// Peak returns the peak-hold value of channel ch.
func (l *Levels) Peak(ch int) float64 {
	if ch < 0 || ch >= capture.Channels {
		return 0
	}
	return l.peak[ch]
}

// Reset clears levels and peaks.
func (l *Levels) Reset() {
	*l = Levels{}
}

// RMS returns the root mean square of frame. Empty frames are silent.
func RMS(frame []float32) float64 {
	if len(frame) == 0 {
		return 0.0
	}

	var sumSquare float64
	for _, sample := range frame {
		s := float64(sample)
		sumSquare += s * s
	}

	return math.Sqrt(sumSquare / float64(len(frame)))
}

// PeakAbs returns the largest absolute sample in frame.
func PeakAbs(frame []float32) float64 {
	var peak float32
	for _, s := range frame {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return float64(peak)
}
