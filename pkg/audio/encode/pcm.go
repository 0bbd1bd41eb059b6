// ABOUTME: PCM audio encoder
// ABOUTME: Encodes mono int16 samples to raw native-endian wire bytes
package encode

import (
	"encoding/binary"
)

// BytesPerSample is the wire width of one mono sample
const BytesPerSample = 2

// PCMEncoder writes samples as headerless 16-bit PCM in native byte order
type PCMEncoder struct{}

// NewPCM creates a new PCM encoder
func NewPCM() *PCMEncoder {
	return &PCMEncoder{}
}

// Encode converts samples to a freshly allocated payload of len(samples)*2 bytes
func (e *PCMEncoder) Encode(samples []int16) []byte {
	return e.AppendEncode(make([]byte, 0, len(samples)*BytesPerSample), samples)
}

// AppendEncode appends the payload for samples to dst
func (e *PCMEncoder) AppendEncode(dst []byte, samples []int16) []byte {
	for _, sample := range samples {
		dst = binary.NativeEndian.AppendUint16(dst, uint16(sample))
	}
	return dst
}
