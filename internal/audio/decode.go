// SPDX-License-Identifier: MIT
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
)

// decodeFunc reads a whole file and returns its rate and interleaved stereo
// samples in [-1, 1).
type decodeFunc func(f *os.File) (rate float64, samples []float32, err error)

// decoders is keyed by lower-case file extension.
var decoders = map[string]decodeFunc{
	".wav":  decodeWAV,
	".mp3":  decodeMP3,
	".ogg":  decodeOGG,
	".flac": decodeFLAC,
}

func decodeWAV(f *os.File) (float64, []float32, error) {
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, nil, errors.New("not a valid PCM WAV file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return 0, nil, fmt.Errorf("decode: %w", err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return 0, nil, errors.New("missing format information")
	}

	depth := buf.SourceBitDepth
	if depth == 0 {
		depth = int(dec.BitDepth)
	}
	if depth < 8 || depth > 32 {
		return 0, nil, fmt.Errorf("unsupported bit depth %d", depth)
	}
	return float64(buf.Format.SampleRate), pcmToStereo(buf.Data, buf.Format.NumChannels, depth, wavOffset(depth)), nil
}

// decodeMP3 relies on go-mp3 always producing 16-bit little-endian stereo.
func decodeMP3(f *os.File) (float64, []float32, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, nil, fmt.Errorf("decoding MP3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return 0, nil, fmt.Errorf("decoding MP3: %w", err)
	}
	return float64(dec.SampleRate()), pcm16LEToStereo(raw, stereo), nil
}

func decodeOGG(f *os.File) (float64, []float32, error) {
	r, err := oggvorbis.NewReader(f)
	if err != nil {
		return 0, nil, fmt.Errorf("decoding OGG: %w", err)
	}

	channels := r.Channels()
	if channels < 1 {
		return 0, nil, errors.New("decoding OGG: no channels")
	}
	var data []float32
	if n := r.Length(); n > 0 {
		data = make([]float32, 0, int(n)*channels)
	}
	chunk := make([]float32, 4096*channels)
	for {
		n, err := r.Read(chunk)
		data = append(data, chunk[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, nil, fmt.Errorf("decoding OGG: %w", err)
		}
	}
	return float64(r.SampleRate()), floatToStereo(data, channels), nil
}

func decodeFLAC(f *os.File) (float64, []float32, error) {
	stream, err := flac.New(f)
	if err != nil {
		return 0, nil, fmt.Errorf("decoding FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	depth := int(info.BitsPerSample)
	if channels < 1 || depth < 8 || depth > 32 {
		return 0, nil, fmt.Errorf("decoding FLAC: unsupported stream (%d channels, %d bits)", channels, depth)
	}

	data := make([]int, 0, int(info.NSamples)*channels)
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, nil, fmt.Errorf("decoding FLAC: %w", err)
		}
		for i := range int(frame.Subframes[0].NSamples) {
			for ch := range channels {
				data = append(data, int(frame.Subframes[ch].Samples[i]))
			}
		}
	}
	return float64(info.SampleRate), pcmToStereo(data, channels, depth, 0), nil
}

// pcm16LEToStereo converts interleaved 16-bit little-endian PCM.
func pcm16LEToStereo(raw []byte, channels int) []float32 {
	data := make([]int, len(raw)/2)
	for i := range data {
		data[i] = int(int16(binary.LittleEndian.Uint16(raw[2*i:])))
	}
	return pcmToStereo(data, channels, 16, 0)
}

// wavOffset is the bias of unsigned 8-bit WAV samples. FLAC is signed at
// every depth.
func wavOffset(depth int) int {
	if depth == 8 {
		return 128
	}
	return 0
}

// floatToStereo keeps the first two channels of interleaved float samples,
// duplicating mono.
func floatToStereo(data []float32, channels int) []float32 {
	frames := len(data) / channels
	out := make([]float32, frames*stereo)
	for i := range frames {
		l := data[i*channels]
		r := l
		if channels > 1 {
			r = data[i*channels+1]
		}
		out[2*i] = l
		out[2*i+1] = r
	}
	return out
}

// readTitle reads the ID3v2 title of an MP3, falling back to the file name.
func readTitle(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".mp3") {
		if tag, err := id3v2.Open(path, id3v2.Options{Parse: true}); err == nil {
			defer tag.Close()
			title := strings.TrimSpace(tag.Title())
			if artist := strings.TrimSpace(tag.Artist()); title != "" && artist != "" {
				return artist + " - " + title
			}
			if title != "" {
				return title
			}
		}
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
