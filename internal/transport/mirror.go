// SPDX-License-Identifier: MIT
package transport

import (
	"audioviz/internal/viz"
	"sync"
)

// Mirror holds the most recent received Telemetry and serves it back as a
// viz.TelemetryProvider, so remote analysis can be displayed with the same
// views as a local engine.
type Mirror struct {
	mu       sync.RWMutex
	msg      Telemetry
	received uint64
}

var _ viz.TelemetryProvider = (*Mirror)(nil)

// Update copies t. The caller may reuse t afterwards.
func (m *Mirror) Update(t *Telemetry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mags := m.msg.Magnitudes
	m.msg = *t
	m.msg.Magnitudes = append(mags[:0], t.Magnitudes...)
	m.received++
}

// Received returns the number of updates and the latest sequence number.
func (m *Mirror) Received() (count uint64, seq uint32) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.received, m.msg.Sequence
}

func (m *Mirror) SpectrumInto(dst []float64) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := min(len(dst), len(m.msg.Magnitudes))
	for i, v := range m.msg.Magnitudes[:n] {
		dst[i] = float64(v)
	}
	return n
}

func (m *Mirror) LevelsInto(levels, peaks *[2]float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for ch := range 2 {
		if levels != nil {
			levels[ch] = float64(m.msg.Levels[ch])
		}
		if peaks != nil {
			peaks[ch] = float64(m.msg.Peaks[ch])
		}
	}
}

func (m *Mirror) SampleRate() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.msg.SampleRate
}

// Mode returns the sender's mode, or Waveform when it is unknown.
func (m *Mirror) Mode() viz.Mode {
	m.mu.RLock()
	name := m.msg.Mode
	m.mu.RUnlock()
	mode, err := viz.ParseMode(name)
	if err != nil {
		return viz.Waveform
	}
	return mode
}
