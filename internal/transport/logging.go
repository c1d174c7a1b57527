// SPDX-License-Identifier: MIT
package transport

import (
	"audioviz/internal/log"
	"math"
)

// LoggingTransport writes a one-line summary of each telemetry sample at
// debug level. Useful to check the pipeline without a client attached.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	log.Info("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the received data. It never fails.
func (lt *LoggingTransport) Send(data any) error {
	if !log.Enabled(log.LevelDebug) {
		return nil
	}
	switch v := data.(type) {
	case *Telemetry:
		left, right := peakBin(v.Channel(0)), peakBin(v.Channel(1))
		log.Debugf("LoggingTransport: #%d %s L=%.3f/%.3f R=%.3f/%.3f peak bins %d/%d",
			v.Sequence, v.Mode, v.Levels[0], v.Peaks[0], v.Levels[1], v.Peaks[1], left, right)
	default:
		log.Debugf("LoggingTransport: received %T", data)
	}
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	log.Debug("LoggingTransport: Close called")
	return nil
}

func peakBin(mags []float32) int {
	best, at := float32(-math.MaxFloat32), -1
	for i, m := range mags {
		if m > best {
			best, at = m, i
		}
	}
	return at
}

var _ Transport = (*LoggingTransport)(nil)
