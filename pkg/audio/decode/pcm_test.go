// ABOUTME: Tests for PCM decoder
// ABOUTME: Tests mono 16-bit wire decoding
package decode

import (
	"encoding/binary"
	"testing"

	"github.com/Resonate-Protocol/udp-audio/pkg/audio/encode"
	"github.com/google/go-cmp/cmp"
)

func TestPCMDecoderImplementsDecoder(t *testing.T) {
	var _ Decoder = (*PCMDecoder)(nil)
}

func TestPCMDecode(t *testing.T) {
	input := make([]byte, 4)
	binary.NativeEndian.PutUint16(input[0:], 256)
	binary.NativeEndian.PutUint16(input[2:], uint16(0xFFFF))

	output, err := NewPCM().Decode(input)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if diff := cmp.Diff([]int16{256, -1}, output); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
}

func TestPCMDecode_OddLength(t *testing.T) {
	_, err := NewPCM().Decode([]byte{1, 2, 3})
	if err == nil {
		t.Fatal("expected error for odd payload")
	}
	expectedError := "payload length 3 is not a multiple of 2"
	if err.Error() != expectedError {
		t.Errorf("expected error %q, got %q", expectedError, err.Error())
	}
}

func TestPCMDecode_EmptyInput(t *testing.T) {
	output, err := NewPCM().Decode([]byte{})
	if err != nil {
		t.Fatalf("decode failed with empty input: %v", err)
	}
	if len(output) != 0 {
		t.Errorf("expected 0 samples from empty input, got %d", len(output))
	}
}

func TestPCMDecode_EncoderRoundTrip(t *testing.T) {
	samples := []int16{0, 100, -100, 1000, -1000, 32767, -32768}
	payload := encode.NewPCM().Encode(samples)

	got, err := NewPCM().Decode(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if diff := cmp.Diff(samples, got); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}
