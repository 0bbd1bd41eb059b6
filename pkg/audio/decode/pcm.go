// ABOUTME: PCM audio decoder
// ABOUTME: Decodes raw native-endian mono int16 payloads
package decode

import (
	"encoding/binary"
	"fmt"
)

// PCMDecoder decodes headerless 16-bit PCM payloads
type PCMDecoder struct{}

// NewPCM creates a new PCM decoder
func NewPCM() *PCMDecoder {
	return &PCMDecoder{}
}

// Decode converts a payload to samples. Payloads with an odd length are rejected.
func (d *PCMDecoder) Decode(data []byte) ([]int16, error) {
	return d.AppendDecode(nil, data)
}

// AppendDecode appends the samples in data to dst
func (d *PCMDecoder) AppendDecode(dst []int16, data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return dst, fmt.Errorf("payload length %d is not a multiple of 2", len(data))
	}
	for i := 0; i+2 <= len(data); i += 2 {
		dst = append(dst, int16(binary.NativeEndian.Uint16(data[i:i+2])))
	}
	return dst, nil
}
