// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// writeWAV encodes data as a PCM WAV in a temp dir and returns its path.
func writeWAV(t *testing.T, rate, channels, depth int, data []int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, rate, depth, channels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		SourceBitDepth: depth,
		Data:           data,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSourceStereo16(t *testing.T) {
	path := writeWAV(t, 22050, 2, 16, []int{16384, -16384, 32767, 0, -32768, 8192})
	src, err := NewFileSource(path)
	if err != nil {
		t.Fatalf("NewFileSource: %v", err)
	}
	if src.SampleRate() != 22050 {
		t.Errorf("SampleRate = %g", src.SampleRate())
	}
	if src.Frames() != 3 {
		t.Fatalf("Frames = %d, want 3", src.Frames())
	}

	var got []float32
	if err := src.Open(func(in []float32) { got = append(got, in...) }); err != nil {
		t.Fatal(err)
	}
	want := []float32{0.5, -0.5, 32767.0 / 32768, 0, -1, 0.25}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("sample %d = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestFileSourceMonoDuplicated(t *testing.T) {
	path := writeWAV(t, 8000, 1, 16, []int{100, -200, 300})
	src, err := NewFileSource(path)
	if err != nil {
		t.Fatal(err)
	}

	var got []float32
	src.ChunkFrames = 2
	var calls int
	_ = src.Open(func(in []float32) {
		calls++
		got = append(got, in...)
	})
	if calls != 2 {
		t.Errorf("handler called %d times, want 2", calls)
	}
	if len(got) != 6 {
		t.Fatalf("got %d samples, want 6", len(got))
	}
	for i := 0; i < len(got); i += 2 {
		if got[i] != got[i+1] {
			t.Errorf("frame %d: left %g != right %g", i/2, got[i], got[i+1])
		}
	}
}

func TestFileSourceInvalid(t *testing.T) {
	dir := t.TempDir()
	bogus := filepath.Join(dir, "bogus.wav")
	if err := os.WriteFile(bogus, []byte("definitely not RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileSource(bogus); err == nil {
		t.Error("expected error for invalid WAV")
	}
	if _, err := NewFileSource(filepath.Join(dir, "missing.wav")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileSourceRealtimeClose(t *testing.T) {
	data := make([]int, 2*44100) // One second of stereo silence.
	src, err := NewFileSource(writeWAV(t, 44100, 2, 16, data))
	if err != nil {
		t.Fatal(err)
	}
	src.Realtime = true

	var chunks atomic.Int32
	if err := src.Open(func([]float32) { chunks.Add(1) }); err != nil {
		t.Fatal(err)
	}
	if err := src.Open(func([]float32) {}); err == nil {
		t.Error("second Open should fail while playing")
	}

	time.Sleep(50 * time.Millisecond)
	if err := src.Close(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-src.Done():
	default:
		t.Error("Done not closed after Close")
	}

	n := chunks.Load()
	if n == 0 || int(n) >= src.Frames()/DefaultChunkFrames {
		t.Errorf("delivered %d chunks, want some but not all", n)
	}
}

func TestPCMToStereo8Bit(t *testing.T) {
	got := pcmToStereo([]int{128, 255, 0}, 1, 8, wavOffset(8))
	want := []float32{0, 0, 127.0 / 128, 127.0 / 128, -1, -1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %g, want %g", i, got[i], want[i])
		}
	}
}

func TestPCMToStereoSigned8Bit(t *testing.T) {
	// Signed 8-bit input, as FLAC delivers it: zero is silence.
	got := pcmToStereo([]int{0, 0, 127, -128}, 2, 8, 0)
	want := []float32{0, 0, 127.0 / 128, -1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %g, want %g", i, got[i], want[i])
		}
	}
	if wavOffset(16) != 0 || wavOffset(24) != 0 {
		t.Error("only 8-bit WAV carries an offset")
	}
}

func TestToStereo(t *testing.T) {
	dst := make([]float32, 8)
	out := toStereo(dst, []float32{1, 2, 3}, 1)
	want := []float32{1, 1, 2, 2, 3, 3}
	if len(out) != len(want) {
		t.Fatalf("len = %d", len(out))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %g, want %g", i, out[i], want[i])
		}
	}

	out = toStereo(dst, []float32{1, 2, 3, 4}, 2)
	if len(out) != 4 || out[3] != 4 {
		t.Errorf("stereo passthrough = %v", out)
	}
}
