// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"testing"
)

func TestGateEnableDisable(t *testing.T) {
	g := NewGate(0)
	if g.Enabled() {
		t.Error("Gate with zero threshold should start disabled")
	}

	g.Enable()
	g.Enable() // Multiple calls should be idempotent
	if !g.Enabled() {
		t.Error("Gate should be enabled after Enable()")
	}

	g.Disable()
	g.Disable()
	if g.Enabled() {
		t.Error("Gate should be disabled after Disable()")
	}

	if !NewGate(0.01).Enabled() {
		t.Error("Gate with a threshold should start enabled")
	}
}

func TestGateThresholdBoundaries(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.1, 0.0}, // Below min
		{0.0, 0.0},  // Minimum
		{0.5, 0.5},  // Middle
		{1.0, 1.0},  // Maximum
		{1.5, 1.0},  // Above max
	}

	g := NewGate(0)
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.2f", tt.input), func(t *testing.T) {
			g.SetThreshold(tt.input)
			if got := g.Threshold(); got != tt.expected {
				t.Errorf("Threshold() = %g, want %g", got, tt.expected)
			}
		})
	}
}

func TestGateApply(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		buf      []float32
		wantOpen bool
	}{
		{"Disabled passes quiet input", false, []float32{0.001, -0.002}, true},
		{"Quiet input squelched", true, []float32{0.001, -0.002, 0.003}, false},
		{"Negative peak opens", true, []float32{0.001, -0.5, 0.003}, true},
		{"Positive peak opens", true, []float32{0.2, 0, 0}, true},
		{"Silence squelched", true, []float32{0, 0, 0}, false},
		{"Empty buffer squelched", true, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(0.1)
			if !tt.enabled {
				g.Disable()
			}
			buf := append([]float32(nil), tt.buf...)

			if open := g.Apply(buf); open != tt.wantOpen {
				t.Fatalf("Apply() = %t, want %t", open, tt.wantOpen)
			}
			for i, s := range buf {
				want := tt.buf[i]
				if !tt.wantOpen {
					want = 0
				}
				if s != want {
					t.Errorf("buf[%d] = %g, want %g", i, s, want)
				}
			}
		})
	}
}

func TestNilGateIsOpen(t *testing.T) {
	var g *Gate
	if !g.Apply([]float32{0}) {
		t.Error("nil gate should be open")
	}
}

func TestGateNoAllocsHotPath(t *testing.T) {
	g := NewGate(0.5)
	buf := make([]float32, 1024)
	for i := range buf {
		buf[i] = float32(i%100) / 100
	}

	allocs := testing.AllocsPerRun(100, func() {
		g.Apply(buf)
	})
	if allocs > 0 {
		t.Errorf("Expected zero allocations in gate hot path, got %.1f", allocs)
	}
}

func BenchmarkGate(b *testing.B) {
	g := NewGate(0.5)
	buf := make([]float32, 1024)
	for i := range buf {
		buf[i] = float32(i%100) / 100
	}

	b.ReportAllocs()
	for b.Loop() {
		g.Apply(buf)
	}
}
