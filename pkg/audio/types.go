// ABOUTME: Audio type definitions
// ABOUTME: Defines capture sample formats, channel selectors and sample packing helpers
package audio

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Channels is the number of interleaved channels in a capture frame.
const Channels = 2

// SampleFormat describes the width of each sample in an interleaved stereo capture buffer
type SampleFormat int

const (
	// Int16Stereo is signed 16-bit samples, two per frame
	Int16Stereo SampleFormat = iota
	// Int32Stereo is signed 32-bit samples, two per frame
	Int32Stereo
)

// ParseSampleFormat parses a format name such as "s16" or "int32"
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "s16", "int16", "s16le", "16":
		return Int16Stereo, nil
	case "s32", "int32", "s32le", "32":
		return Int32Stereo, nil
	default:
		return 0, fmt.Errorf("unsupported sample format: %q (supported: s16, s32)", s)
	}
}

func (f SampleFormat) String() string {
	switch f {
	case Int16Stereo:
		return "s16"
	case Int32Stereo:
		return "s32"
	default:
		return fmt.Sprintf("SampleFormat(%d)", int(f))
	}
}

// Valid reports whether f is a known format
func (f SampleFormat) Valid() bool {
	return f == Int16Stereo || f == Int32Stereo
}

// BytesPerSample returns the width of one sample in bytes
func (f SampleFormat) BytesPerSample() int {
	if f == Int32Stereo {
		return 4
	}
	return 2
}

// BitDepth returns the number of bits per sample
func (f SampleFormat) BitDepth() int {
	return f.BytesPerSample() * 8
}

// FrameSize returns the size in bytes of one interleaved stereo frame
func (f SampleFormat) FrameSize() int {
	return Channels * f.BytesPerSample()
}

// Shift returns the arithmetic right shift that reduces a sample to 16-bit range
func (f SampleFormat) Shift() uint {
	if f == Int32Stereo {
		return 16
	}
	return 0
}

// Channel selects one side of an interleaved stereo frame
type Channel int

const (
	Left Channel = iota
	Right
)

// ParseChannel parses "left"/"l" or "right"/"r"
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	default:
		return 0, fmt.Errorf("unsupported channel: %q (supported: left, right)", s)
	}
}

func (c Channel) String() string {
	switch c {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// Valid reports whether c is Left or Right
func (c Channel) Valid() bool {
	return c == Left || c == Right
}

// Index returns the position of the channel within a frame
func (c Channel) Index() int {
	return int(c)
}

// ReadSample decodes the sample at byte offset off in native byte order.
// The caller guarantees off+BytesPerSample() <= len(buf).
func ReadSample(f SampleFormat, buf []byte, off int) int32 {
	if f == Int32Stereo {
		return int32(binary.NativeEndian.Uint32(buf[off : off+4]))
	}
	return int32(int16(binary.NativeEndian.Uint16(buf[off : off+2])))
}

// PutSample encodes v at byte offset off in native byte order.
// For Int16Stereo v must already be in 16-bit range.
func PutSample(f SampleFormat, buf []byte, off int, v int32) {
	if f == Int32Stereo {
		binary.NativeEndian.PutUint32(buf[off:off+4], uint32(v))
		return
	}
	binary.NativeEndian.PutUint16(buf[off:off+2], uint16(int16(v)))
}

// ToInt16 reduces a raw sample of format f to 16-bit range, keeping sign
func ToInt16(f SampleFormat, v int32) int16 {
	return int16(v >> f.Shift())
}

// FromFullScale converts a sample left-justified in 32 bits to the raw
// range of format f
func FromFullScale(f SampleFormat, v int32) int32 {
	if f == Int32Stereo {
		return v
	}
	return v >> 16
}

// FullScaleFromInt16 left-justifies a 16-bit sample in 32 bits
func FullScaleFromInt16(sample int16) int32 {
	return int32(sample) << 16
}

// FullScaleFromDepth left-justifies a sample of the given bit depth in 32 bits
func FullScaleFromDepth(sample int32, bitDepth int) int32 {
	if bitDepth >= 32 {
		return sample
	}
	return sample << (32 - bitDepth)
}

// FullScaleFromFloat converts a [-1, 1] float sample to 32-bit full scale with clipping
func FullScaleFromFloat(sample float64) int32 {
	if sample > 1 {
		sample = 1
	} else if sample < -1 {
		sample = -1
	}
	return int32(sample * 2147483647)
}

// PutFrame writes one stereo frame at frame index i from full-scale left and
// right samples, converting them to the raw range of format f
func PutFrame(f SampleFormat, buf []byte, i int, left, right int32) {
	off := i * f.FrameSize()
	PutSample(f, buf, off, FromFullScale(f, left))
	PutSample(f, buf, off+f.BytesPerSample(), FromFullScale(f, right))
}
