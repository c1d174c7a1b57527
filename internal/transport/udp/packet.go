// SPDX-License-Identifier: MIT
package udp

import (
	"audioviz/internal/transport"
	"audioviz/internal/viz"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

/*
UDP Packet Structure (BigEndian)

+------------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description              |
|-------------------|----------------|--------------|--------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing |
| Timestamp         | int64          | 8            | Nanoseconds since epoch  |
| Channel Count     | uint16         | 2            | Number of channels (C)   |
| Bin Count         | uint16         | 2            | Bins per channel (N)     |
| Sample Rate       | float32        | 4            | Source rate in Hz        |
| Mode              | uint8          | 1            | Mode index, 0xff unknown |
| Levels            | [C]float32     | C * 4        | RMS level per channel    |
| Peaks             | [C]float32     | C * 4        | Peak hold per channel    |
| Magnitudes        | [C*N]float32   | C * N * 4    | Channel-major magnitudes |
+------------------------------------------------------------------------------+
*/

// HeaderSize is the fixed part of a packet before the level fields.
const HeaderSize = 4 + 8 + 2 + 2 + 4 + 1

const unknownMode = 0xff

var ErrShortPacket = errors.New("udp: short packet")

// PacketSize returns the encoded size for the given shape.
func PacketSize(channels, bins int) int {
	return HeaderSize + 4*(2*channels+channels*bins)
}

// AppendPacket appends the encoding of t to dst. Channels beyond the two
// level slots are encoded with zero levels.
func AppendPacket(dst []byte, t *transport.Telemetry) []byte {
	dst = binary.BigEndian.AppendUint32(dst, t.Sequence)
	dst = binary.BigEndian.AppendUint64(dst, uint64(t.Timestamp))
	dst = binary.BigEndian.AppendUint16(dst, uint16(t.Channels))
	dst = binary.BigEndian.AppendUint16(dst, uint16(t.Bins))
	dst = appendFloat(dst, float32(t.SampleRate))
	dst = append(dst, modeIndex(t.Mode))
	for ch := range t.Channels {
		dst = appendFloat(dst, levelAt(t.Levels, ch))
	}
	for ch := range t.Channels {
		dst = appendFloat(dst, levelAt(t.Peaks, ch))
	}
	n := t.Channels * t.Bins
	for i := range n {
		var v float32
		if i < len(t.Magnitudes) {
			v = t.Magnitudes[i]
		}
		dst = appendFloat(dst, v)
	}
	return dst
}

// modeIndex maps a mode name to its wire index without allocating.
func modeIndex(name string) byte {
	for i := range viz.ModeCount {
		if viz.Mode(i).String() == name {
			return byte(i)
		}
	}
	return unknownMode
}

func modeName(idx byte) string {
	if m := viz.Mode(idx); m.Valid() {
		return m.String()
	}
	return ""
}

func levelAt(v [2]float32, ch int) float32 {
	if ch < len(v) {
		return v[ch]
	}
	return 0
}

func appendFloat(dst []byte, v float32) []byte {
	return binary.BigEndian.AppendUint32(dst, math.Float32bits(v))
}

// DecodePacket parses b into t, reusing t.Magnitudes when it is large
// enough.
func DecodePacket(b []byte, t *transport.Telemetry) error {
	if len(b) < HeaderSize {
		return ErrShortPacket
	}
	t.Sequence = binary.BigEndian.Uint32(b[0:])
	t.Timestamp = int64(binary.BigEndian.Uint64(b[4:]))
	t.Channels = int(binary.BigEndian.Uint16(b[12:]))
	t.Bins = int(binary.BigEndian.Uint16(b[14:]))
	t.SampleRate = float64(readFloat(b[16:]))
	t.Mode = modeName(b[20])

	if want := PacketSize(t.Channels, t.Bins); len(b) < want {
		return fmt.Errorf("%w: %d bytes, want %d", ErrShortPacket, len(b), want)
	}

	off := HeaderSize
	t.Levels, t.Peaks = [2]float32{}, [2]float32{}
	for ch := range t.Channels {
		if ch < len(t.Levels) {
			t.Levels[ch] = readFloat(b[off:])
		}
		off += 4
	}
	for ch := range t.Channels {
		if ch < len(t.Peaks) {
			t.Peaks[ch] = readFloat(b[off:])
		}
		off += 4
	}

	n := t.Channels * t.Bins
	if cap(t.Magnitudes) < n {
		t.Magnitudes = make([]float32, n)
	}
	t.Magnitudes = t.Magnitudes[:n]
	for i := range n {
		t.Magnitudes[i] = readFloat(b[off:])
		off += 4
	}
	return nil
}

func readFloat(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}
