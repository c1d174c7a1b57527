// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// DefaultChunkFrames is how many frames a FileSource hands over per call,
// matching a typical capture callback.
const DefaultChunkFrames = 1024

// FileSource plays a decoded audio file into the analyser. With Realtime
// set, chunks are paced at the file's sample rate on a goroutine; otherwise
// Open delivers the whole file synchronously before returning.
type FileSource struct {
	Realtime    bool
	ChunkFrames int

	path    string
	title   string
	rate    float64
	samples []float32 // Interleaved stereo.

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

// NewFileSource decodes path completely. The format follows the extension:
// PCM WAV, MP3, Ogg Vorbis or FLAC. Mono files are duplicated onto both
// channels; files with more than two channels keep the first two.
func NewFileSource(path string) (*FileSource, error) {
	decode, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, fmt.Errorf("%s: unsupported format %q", path, filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rate, samples, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !(rate > 0) {
		return nil, fmt.Errorf("%s: missing sample rate", path)
	}

	return &FileSource{
		ChunkFrames: DefaultChunkFrames,
		path:        path,
		title:       readTitle(path),
		rate:        rate,
		samples:     samples,
	}, nil
}

// Title is the ID3 title of an MP3, or the file name without extension.
func (s *FileSource) Title() string {
	return s.title
}

// pcmToStereo scales PCM to [-1, 1) and interleaves it as stereo. offset is
// subtracted first, for unsigned formats.
func pcmToStereo(data []int, channels, depth, offset int) []float32 {
	frames := len(data) / channels
	out := make([]float32, frames*stereo)

	scale := 1 / float32(int64(1)<<(depth-1))
	for i := range frames {
		l := data[i*channels] - offset
		r := l
		if channels > 1 {
			r = data[i*channels+1] - offset
		}
		out[2*i] = float32(l) * scale
		out[2*i+1] = float32(r) * scale
	}
	return out
}

// SampleRate implements viz.Source.
func (s *FileSource) SampleRate() float64 {
	return s.rate
}

// Frames returns the number of stereo frames in the file.
func (s *FileSource) Frames() int {
	return len(s.samples) / stereo
}

// Duration returns the playback length.
func (s *FileSource) Duration() time.Duration {
	return time.Duration(float64(s.Frames()) / s.rate * float64(time.Second))
}

// Open delivers the file to handler; see FileSource.
func (s *FileSource) Open(handler func([]float32)) error {
	chunk := s.ChunkFrames
	if chunk <= 0 {
		chunk = DefaultChunkFrames
	}
	chunk *= stereo

	if !s.Realtime {
		for i := 0; i < len(s.samples); i += chunk {
			handler(s.samples[i:min(i+chunk, len(s.samples))])
		}
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return errStreamOpen
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})

	period := time.Duration(float64(chunk/stereo) / s.rate * float64(time.Second))
	go s.play(handler, chunk, period, s.stop, s.done)
	return nil
}

func (s *FileSource) play(handler func([]float32), chunk int, period time.Duration, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for i := 0; i < len(s.samples); i += chunk {
		handler(s.samples[i:min(i+chunk, len(s.samples))])
		select {
		case <-ticker.C:
		case <-stop:
			return
		}
	}
}

// Done is closed when realtime playback finishes or is stopped. It returns
// nil when no realtime playback was started.
func (s *FileSource) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

// Close stops realtime playback and waits for the playback goroutine.
func (s *FileSource) Close() error {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop = nil
	s.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}
