// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const recordBitDepth = 16

var ErrRecording = errors.New("already recording")

// Recorder writes the ingested stream to a 16-bit stereo WAV file. Write is
// the tap installed in front of the analyser; it is a no-op while stopped.
type Recorder struct {
	sampleRate int

	recording atomic.Bool

	mu         sync.Mutex // Guards the fields below between Write and Start/Stop.
	filename   string
	outputFile *os.File
	wavEncoder *wav.Encoder
	sampleBuf  *audio.IntBuffer // Reusable buffer for format conversion.
	frames     int
}

// NewRecorder returns a stopped recorder for streams at sampleRate.
// framesPerBuffer sizes the conversion buffer up front.
func NewRecorder(sampleRate, framesPerBuffer int) *Recorder {
	return &Recorder{
		sampleRate: sampleRate,
		sampleBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: stereo,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: recordBitDepth,
			Data:           make([]int, 0, max(framesPerBuffer, 1)*stereo),
		},
	}
}

// Start creates filename and begins recording.
func (r *Recorder) Start(filename string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.recording.Load() {
		return ErrRecording
	}

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	r.filename = filename
	r.outputFile = file
	r.wavEncoder = wav.NewEncoder(file, r.sampleRate, recordBitDepth, stereo, 1)
	r.frames = 0

	r.recording.Store(true)
	return nil
}

// Stop finalises the WAV header and closes the file. Stopping a stopped
// recorder is a no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording.Swap(false) {
		return nil
	}

	var errs []error
	if r.wavEncoder != nil {
		if err := r.wavEncoder.Close(); err != nil {
			errs = append(errs, fmt.Errorf("finalise %s: %w", r.filename, err))
		}
		r.wavEncoder = nil
	}
	if r.outputFile != nil {
		if err := r.outputFile.Close(); err != nil {
			errs = append(errs, err)
		}
		r.outputFile = nil
	}
	return errors.Join(errs...)
}

// Recording reports whether a file is open.
func (r *Recorder) Recording() bool {
	return r.recording.Load()
}

// Frames returns the number of stereo frames written to the current or last
// file.
func (r *Recorder) Frames() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames
}

// Write appends interleaved stereo samples.
func (r *Recorder) Write(in []float32) error {
	if !r.recording.Load() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wavEncoder == nil {
		return nil
	}

	n := len(in) &^ 1
	if cap(r.sampleBuf.Data) < n {
		r.sampleBuf.Data = make([]int, n)
	}
	data := r.sampleBuf.Data[:n]
	for i, s := range in[:n] {
		data[i] = toPCM16(s)
	}
	r.sampleBuf.Data = data

	if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
		return fmt.Errorf("write %s: %w", r.filename, err)
	}
	r.frames += n / stereo
	return nil
}

// Tap adapts Write to the engine's tap signature. Only the first write
// error is reported to onError.
func (r *Recorder) Tap(onError func(error)) func([]float32) {
	var failed atomic.Bool
	return func(in []float32) {
		if err := r.Write(in); err != nil && !failed.Swap(true) && onError != nil {
			onError(err)
		}
	}
}

func toPCM16(s float32) int {
	v := math.Round(float64(s) * math.MaxInt16)
	return int(max(math.MinInt16, min(math.MaxInt16, v)))
}
