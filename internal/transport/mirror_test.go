// SPDX-License-Identifier: MIT
package transport

import (
	"audioviz/internal/viz"
	"testing"
)

func TestMirrorServesLatestTelemetry(t *testing.T) {
	var m Mirror
	if got := m.Mode(); got != viz.Waveform {
		t.Errorf("empty mirror mode = %v, want %v", got, viz.Waveform)
	}

	in := &Telemetry{
		Sequence:   41,
		SampleRate: 44100,
		Mode:       "bars16",
		Channels:   2,
		Bins:       2,
		Levels:     [2]float32{0.1, 0.2},
		Peaks:      [2]float32{0.3, 0.4},
		Magnitudes: []float32{1, 2, 3, 4},
	}
	m.Update(in)
	in.Magnitudes[0] = 99 // Update must have copied.

	dst := make([]float64, 8)
	if n := m.SpectrumInto(dst); n != 4 {
		t.Fatalf("SpectrumInto = %d, want 4", n)
	}
	if dst[0] != 1 || dst[3] != 4 {
		t.Errorf("spectrum = %v", dst[:4])
	}

	var levels, peaks [2]float64
	m.LevelsInto(&levels, &peaks)
	if float32(levels[1]) != 0.2 || float32(peaks[0]) != 0.3 {
		t.Errorf("levels = %v peaks = %v", levels, peaks)
	}
	if m.SampleRate() != 44100 {
		t.Errorf("SampleRate = %v", m.SampleRate())
	}
	if m.Mode() != viz.BarSpectrum16 {
		t.Errorf("Mode = %v", m.Mode())
	}
	if count, seq := m.Received(); count != 1 || seq != 41 {
		t.Errorf("Received = %d, %d", count, seq)
	}
}

func TestMirrorShortDestination(t *testing.T) {
	var m Mirror
	m.Update(&Telemetry{Magnitudes: []float32{1, 2, 3}})
	dst := make([]float64, 2)
	if n := m.SpectrumInto(dst); n != 2 {
		t.Errorf("SpectrumInto = %d, want 2", n)
	}
}

func TestMirrorFromPublisher(t *testing.T) {
	var m Mirror
	p, err := NewPublisher(DefaultInterval, newFakeProvider(), mirrorTransport{&m})
	if err != nil {
		t.Fatal(err)
	}
	p.Publish()

	if m.Mode() != viz.BarSpectrum8 {
		t.Errorf("Mode = %v", m.Mode())
	}
	dst := make([]float64, 512)
	m.SpectrumInto(dst)
	if float32(dst[7]) != 0.4 {
		t.Errorf("bin 7 = %v", dst[7])
	}
}

// mirrorTransport loops published telemetry straight into a Mirror.
type mirrorTransport struct{ m *Mirror }

func (t mirrorTransport) Send(data any) error {
	t.m.Update(data.(*Telemetry))
	return nil
}

func (mirrorTransport) Close() error { return nil }
