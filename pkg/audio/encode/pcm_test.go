// ABOUTME: Unit tests for PCM encoder
// ABOUTME: Tests mono 16-bit wire encoding
package encode

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestPCMEncoderImplementsEncoder(t *testing.T) {
	var _ Encoder = (*PCMEncoder)(nil)
}

func TestPCMEncoder_Encode(t *testing.T) {
	samples := []int16{
		0,      // silence
		32767,  // max positive
		-32768, // max negative
		0x1234, // arbitrary positive value
		-0x567, // arbitrary negative value
	}

	output := NewPCM().Encode(samples)

	expectedSize := len(samples) * BytesPerSample
	if len(output) != expectedSize {
		t.Fatalf("Encode() output size = %d, want %d", len(output), expectedSize)
	}

	for i, want := range samples {
		got := int16(binary.NativeEndian.Uint16(output[i*2:]))
		if got != want {
			t.Errorf("Sample %d: got %d, want %d", i, got, want)
		}
	}
}

func TestPCMEncoder_ThreeSamplePayload(t *testing.T) {
	want := make([]byte, 6)
	binary.NativeEndian.PutUint16(want[0:], 10)
	binary.NativeEndian.PutUint16(want[2:], 20)
	binary.NativeEndian.PutUint16(want[4:], 30)

	got := NewPCM().Encode([]int16{10, 20, 30})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", diff)
	}
}

func TestPCMEncoder_Empty(t *testing.T) {
	out := NewPCM().Encode(nil)
	if len(out) != 0 {
		t.Errorf("expected empty payload, got %d bytes", len(out))
	}
}

func TestPCMEncoder_AppendReusesBuffer(t *testing.T) {
	enc := NewPCM()
	buf := make([]byte, 0, 64)

	first := enc.AppendEncode(buf[:0], []int16{1, 2, 3})
	second := enc.AppendEncode(first[:0], []int16{4})

	if len(second) != 2 {
		t.Fatalf("expected 2 bytes, got %d", len(second))
	}
	if &first[0] != &second[0] {
		t.Error("expected AppendEncode to reuse the backing array")
	}
	if got := int16(binary.NativeEndian.Uint16(second)); got != 4 {
		t.Errorf("expected 4, got %d", got)
	}
}
