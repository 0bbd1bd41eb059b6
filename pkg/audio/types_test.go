// ABOUTME: Tests for audio types
// ABOUTME: Tests format parsing, sample packing and range conversion
package audio

import (
	"encoding/binary"
	"testing"
)

func TestParseSampleFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected SampleFormat
		wantErr  bool
	}{
		{"s16", Int16Stereo, false},
		{"INT16", Int16Stereo, false},
		{"s32", Int32Stereo, false},
		{"int32", Int32Stereo, false},
		{"s24", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSampleFormat(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSampleFormatSizes(t *testing.T) {
	tests := []struct {
		format     SampleFormat
		bytes      int
		frameSize  int
		shift      uint
		bitDepth   int
		stringName string
	}{
		{Int16Stereo, 2, 4, 0, 16, "s16"},
		{Int32Stereo, 4, 8, 16, 32, "s32"},
	}

	for _, tt := range tests {
		t.Run(tt.stringName, func(t *testing.T) {
			if got := tt.format.BytesPerSample(); got != tt.bytes {
				t.Errorf("BytesPerSample: expected %d, got %d", tt.bytes, got)
			}
			if got := tt.format.FrameSize(); got != tt.frameSize {
				t.Errorf("FrameSize: expected %d, got %d", tt.frameSize, got)
			}
			if got := tt.format.Shift(); got != tt.shift {
				t.Errorf("Shift: expected %d, got %d", tt.shift, got)
			}
			if got := tt.format.BitDepth(); got != tt.bitDepth {
				t.Errorf("BitDepth: expected %d, got %d", tt.bitDepth, got)
			}
			if got := tt.format.String(); got != tt.stringName {
				t.Errorf("String: expected %q, got %q", tt.stringName, got)
			}
		})
	}
}

func TestParseChannel(t *testing.T) {
	for _, in := range []string{"left", "L", " left "} {
		if c, err := ParseChannel(in); err != nil || c != Left {
			t.Errorf("ParseChannel(%q) = %v, %v; want left", in, c, err)
		}
	}
	for _, in := range []string{"right", "R"} {
		if c, err := ParseChannel(in); err != nil || c != Right {
			t.Errorf("ParseChannel(%q) = %v, %v; want right", in, c, err)
		}
	}
	if _, err := ParseChannel("center"); err == nil {
		t.Error("expected error for center")
	}
}

func TestReadSampleNativeOrder(t *testing.T) {
	buf := make([]byte, 6)
	binary.NativeEndian.PutUint16(buf[0:], uint16(0xFFFE)) // -2
	binary.NativeEndian.PutUint32(buf[2:], 0x80000000)

	if got := ReadSample(Int16Stereo, buf, 0); got != -2 {
		t.Errorf("int16: expected -2, got %d", got)
	}
	if got := ReadSample(Int32Stereo, buf, 2); got != -2147483648 {
		t.Errorf("int32: expected -2147483648, got %d", got)
	}
}

func TestToInt16(t *testing.T) {
	tests := []struct {
		name     string
		format   SampleFormat
		input    int32
		expected int16
	}{
		{"int16 passthrough", Int16Stereo, -1234, -1234},
		{"int32 max", Int32Stereo, 0x7FFF0000, 0x7FFF},
		{"int32 min", Int32Stereo, -0x80000000, -32768},
		{"int32 drops low bits", Int32Stereo, 0x0001FFFF, 1},
		{"int32 negative rounds down", Int32Stereo, -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToInt16(tt.format, tt.input); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestPutFrameRoundTrip(t *testing.T) {
	for _, f := range []SampleFormat{Int16Stereo, Int32Stereo} {
		t.Run(f.String(), func(t *testing.T) {
			buf := make([]byte, 2*f.FrameSize())
			left := FullScaleFromInt16(1000)
			right := FullScaleFromInt16(-1000)
			PutFrame(f, buf, 1, left, right)

			l := ToInt16(f, ReadSample(f, buf, f.FrameSize()))
			r := ToInt16(f, ReadSample(f, buf, f.FrameSize()+f.BytesPerSample()))
			if l != 1000 || r != -1000 {
				t.Errorf("expected (1000, -1000), got (%d, %d)", l, r)
			}
			for i := 0; i < f.FrameSize(); i++ {
				if buf[i] != 0 {
					t.Fatalf("frame 0 should be untouched, byte %d = %d", i, buf[i])
				}
			}
		})
	}
}

func TestFullScaleFromDepth(t *testing.T) {
	if got := FullScaleFromDepth(0x123456, 24); got != 0x12345600 {
		t.Errorf("24-bit: expected %#x, got %#x", 0x12345600, got)
	}
	if got := FullScaleFromDepth(-1, 16); got != -65536 {
		t.Errorf("16-bit: expected -65536, got %d", got)
	}
	if got := FullScaleFromDepth(42, 32); got != 42 {
		t.Errorf("32-bit: expected 42, got %d", got)
	}
}

func TestFullScaleFromFloatClips(t *testing.T) {
	if got := FullScaleFromFloat(2); got != 2147483647 {
		t.Errorf("expected clip to max, got %d", got)
	}
	if got := FullScaleFromFloat(-2); got != -2147483647 {
		t.Errorf("expected clip to -max, got %d", got)
	}
	if got := FullScaleFromFloat(0); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
