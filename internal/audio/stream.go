// SPDX-License-Identifier: MIT
/*
Package audio provides the host-side audio sources feeding the visualizer:
live PortAudio capture, WAV file playback into the analyser, and a WAV
recorder that can tap the ingested stream.

Thread Safety:
  - CaptureSource delivers buffers on the PortAudio callback thread
  - Pre-allocates buffers to avoid GC in the hot path
  - Gate and Recorder state is switched with atomics
*/
package audio

import (
	"audioviz/internal/log"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

const stereo = 2

// StreamConfig selects the capture device and stream shape.
type StreamConfig struct {
	DeviceID        int     // DefaultDevice or an index from HostDevices.
	SampleRate      float64 // Hz.
	FramesPerBuffer int     // Frames per PortAudio callback.
	LowLatency      bool    // Use the device's low input latency.
}

var errStreamOpen = errors.New("stream already open")

// CaptureSource is a PortAudio input stream delivering interleaved stereo
// float32. Mono devices are duplicated onto both channels.
type CaptureSource struct {
	cfg      StreamConfig
	device   *portaudio.DeviceInfo
	latency  time.Duration
	channels int
	gate     *Gate

	mu      sync.Mutex
	stream  *portaudio.Stream
	handler func([]float32)
	buf     []float32
}

// NewCaptureSource resolves the input device. PortAudio must already be
// initialised. gate may be nil.
func NewCaptureSource(cfg StreamConfig, gate *Gate) (*CaptureSource, error) {
	device, err := InputDevice(cfg.DeviceID)
	if err != nil {
		return nil, err
	}
	if cfg.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("invalid frames per buffer: %d", cfg.FramesPerBuffer)
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = device.DefaultSampleRate
	}

	s := &CaptureSource{
		cfg:      cfg,
		device:   device,
		channels: min(device.MaxInputChannels, stereo),
		gate:     gate,
		buf:      make([]float32, cfg.FramesPerBuffer*stereo),
	}
	if cfg.LowLatency {
		s.latency = device.DefaultLowInputLatency
	} else {
		s.latency = device.DefaultHighInputLatency
	}
	return s, nil
}

// Device returns the resolved PortAudio device.
func (s *CaptureSource) Device() *portaudio.DeviceInfo {
	return s.device
}

// SampleRate implements viz.Source.
func (s *CaptureSource) SampleRate() float64 {
	return s.cfg.SampleRate
}

// Open starts the input stream. handler runs on the PortAudio callback
// thread with a buffer that is reused after it returns.
func (s *CaptureSource) Open(handler func([]float32)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream != nil {
		return errStreamOpen
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: s.channels,
			Device:   s.device,
			Latency:  s.latency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // Silent tap, no output device.
			Device:   nil,
		},
		FramesPerBuffer: s.cfg.FramesPerBuffer,
		SampleRate:      s.cfg.SampleRate,
	}

	s.handler = handler
	stream, err := portaudio.OpenStream(params, s.process)
	if err != nil {
		return fmt.Errorf("open input stream on %q: %w", s.device.Name, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return fmt.Errorf("start input stream: %w", err)
	}
	s.stream = stream

	log.Infof("Audio: capturing from %q (%d ch, %.0f Hz, %d frames/buffer, latency %s)",
		s.device.Name, s.channels, s.cfg.SampleRate, s.cfg.FramesPerBuffer, s.latency)
	return nil
}

// Close stops and closes the stream. Safe to call more than once.
func (s *CaptureSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stream == nil {
		return nil
	}

	stream := s.stream
	s.stream = nil
	if err := stream.Stop(); err != nil {
		stream.Close()
		return fmt.Errorf("stop input stream: %w", err)
	}
	if err := stream.Close(); err != nil {
		return fmt.Errorf("close input stream: %w", err)
	}
	return nil
}

// process is the PortAudio callback.
// Performance Critical:
// - Runs on the PortAudio thread, pinned for the duration of the call
// - Uses pre-allocated buffers only
func (s *CaptureSource) process(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	out := toStereo(s.buf, in, s.channels)
	s.gate.Apply(out)
	s.handler(out)
}

// toStereo copies in, interleaved with the given channel count, into dst as
// LRLR stereo and returns the filled prefix of dst. Mono input is
// duplicated. dst must hold 2 samples per input frame.
func toStereo(dst, in []float32, channels int) []float32 {
	if channels == stereo {
		return dst[:copy(dst, in)]
	}
	frames := min(len(in), len(dst)/stereo)
	for i := range frames {
		dst[2*i] = in[i]
		dst[2*i+1] = in[i]
	}
	return dst[:frames*stereo]
}
