// ABOUTME: Encoder interface definition
// ABOUTME: Common interface for mono wire encoders
package encode

// Encoder encodes mono 16-bit samples to a datagram payload
type Encoder interface {
	// Encode converts samples to wire bytes
	Encode(samples []int16) []byte

	// AppendEncode appends the wire bytes for samples to dst
	AppendEncode(dst []byte, samples []int16) []byte
}
