// SPDX-License-Identifier: MIT
package transport

import (
	"audioviz/internal/analysis"
	"audioviz/internal/capture"
	"audioviz/internal/log"
	"audioviz/internal/viz"
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultInterval is used when a non-positive interval is configured.
const DefaultInterval = 16 * time.Millisecond

// Publisher periodically samples a TelemetryProvider and sends the result to
// every transport. It runs in a separate goroutine managed by Start and Stop.
type Publisher struct {
	source     viz.TelemetryProvider
	transports []Transport
	interval   time.Duration

	ticker   *time.Ticker   // Ticker that triggers publishing.
	doneChan chan struct{}  // Signals the publisher goroutine to stop.
	stopOnce sync.Once      // Ensures the stop logic runs only once per Start/Stop cycle.
	wg       sync.WaitGroup // Waits for the publisher goroutine to finish during Stop.
	mu       sync.Mutex     // Protects ticker and doneChan during Start/Stop.

	// Owned by the publishing goroutine (or a direct Publish caller).
	pubMu  sync.Mutex
	magBuf []float64
	msg    Telemetry
}

// NewPublisher creates a publisher. At least one transport is required.
// If the interval is invalid (<= 0), it defaults to DefaultInterval.
func NewPublisher(interval time.Duration, source viz.TelemetryProvider, transports ...Transport) (*Publisher, error) {
	if source == nil {
		return nil, errors.New("publisher: telemetry source cannot be nil")
	}
	if len(transports) == 0 {
		return nil, errors.New("publisher: at least one transport is required")
	}
	for i, t := range transports {
		if t == nil {
			return nil, fmt.Errorf("publisher: transport %d is nil", i)
		}
	}
	if interval <= 0 {
		interval = DefaultInterval
		log.Warnf("Publisher: Invalid interval provided, defaulting to %s", interval)
	}

	n := capture.Channels * analysis.Bins
	log.Infof("Publisher: Initializing (Interval: %s, Bins: %d x %d, Transports: %d)",
		interval, capture.Channels, analysis.Bins, len(transports))

	return &Publisher{
		source:     source,
		transports: transports,
		interval:   interval,
		magBuf:     make([]float64, n),
		msg: Telemetry{
			Channels:   capture.Channels,
			Bins:       analysis.Bins,
			Magnitudes: make([]float32, n),
		},
	}, nil
}

// Interval returns the publishing period.
func (p *Publisher) Interval() time.Duration {
	return p.interval
}

// Start begins the periodic publishing process.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		log.Warn("Publisher: Start called but already running")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}

	// Local copies keep the goroutine off p.ticker/p.doneChan.
	ticker := p.ticker
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		log.Debugf("Publisher: goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case now := <-ticker.C:
				p.publish(now)
			case <-doneChan:
				return
			}
		}
	}()
}

// Stop signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times; subsequent calls are no-ops.
func (p *Publisher) Stop() {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		return
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	log.Debug("Publisher: goroutine finished")
}

// Running reports whether the publishing goroutine is active.
func (p *Publisher) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ticker != nil
}

// Publish samples the source once and sends immediately.
func (p *Publisher) Publish() {
	p.publish(time.Now())
}

func (p *Publisher) publish(now time.Time) {
	p.pubMu.Lock()
	defer p.pubMu.Unlock()

	var levels, peaks [2]float64
	p.source.LevelsInto(&levels, &peaks)
	n := p.source.SpectrumInto(p.magBuf)

	m := &p.msg
	m.Sequence++
	m.Timestamp = now.UnixNano()
	m.SampleRate = p.source.SampleRate()
	m.Mode = p.source.Mode().String()
	for ch := range levels {
		m.Levels[ch] = float32(levels[ch])
		m.Peaks[ch] = float32(peaks[ch])
	}
	for i, v := range p.magBuf[:n] {
		m.Magnitudes[i] = float32(v)
	}
	clear(m.Magnitudes[n:])

	for _, t := range p.transports {
		if err := t.Send(m); err != nil {
			log.Debugf("Publisher: send %d via %T failed: %v", m.Sequence, t, err)
		}
	}
}

// Close stops publishing and closes every transport.
func (p *Publisher) Close() error {
	p.Stop()
	var errs []error
	for _, t := range p.transports {
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
