// SPDX-License-Identifier: MIT

// Package transport ships analysis telemetry out of the process. A
// Publisher samples the engine on a ticker and hands one Telemetry value to
// every configured Transport.
package transport

// Transport defines a generic interface for sending processed data or events.
// Implementations should be thread-safe. Send must not retain data after it
// returns; the publisher reuses it on the next tick.
type Transport interface {
	Send(data any) error
	Close() error
}

// Telemetry is one published analysis sample.
type Telemetry struct {
	Sequence   uint32     `json:"seq"`
	Timestamp  int64      `json:"ts"` // Nanoseconds since epoch.
	SampleRate float64    `json:"sampleRate"`
	Mode       string     `json:"mode"`
	Channels   int        `json:"channels"`
	Bins       int        `json:"bins"` // Per channel.
	Levels     [2]float32 `json:"levels"`
	Peaks      [2]float32 `json:"peaks"`
	Magnitudes []float32  `json:"magnitudes"` // Left bins followed by right bins.
}

// Channel returns the magnitudes of channel ch.
func (t *Telemetry) Channel(ch int) []float32 {
	if ch < 0 || ch >= t.Channels || len(t.Magnitudes) < (ch+1)*t.Bins {
		return nil
	}
	return t.Magnitudes[ch*t.Bins : (ch+1)*t.Bins]
}
