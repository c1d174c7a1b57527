// SPDX-License-Identifier: MIT
package viz

// Source delivers interleaved stereo float32 samples to a handler. Open
// starts delivery; the handler may be called from a goroutine owned by the
// source and must not block. The buffer is only valid during the call.
type Source interface {
	Open(handler func(in []float32)) error
	SampleRate() float64
	Close() error
}

// TelemetryProvider exposes the latest published analysis without
// allocating. Implemented by *Engine; consumed by the telemetry publisher.
type TelemetryProvider interface {
	SpectrumInto(dst []float64) int       // Left bins then right bins; returns values written.
	LevelsInto(levels, peaks *[2]float64) // Level and peak-hold per channel.
	SampleRate() float64                  // Rate of the latest completed frame.
	Mode() Mode                           // Active visualization mode.
}

var _ TelemetryProvider = (*Engine)(nil)
