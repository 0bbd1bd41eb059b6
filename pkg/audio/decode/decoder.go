// ABOUTME: Decoder interface definition
// ABOUTME: Common interface for mono wire decoders
package decode

// Decoder turns a datagram payload back into mono samples
type Decoder interface {
	// Decode converts wire bytes to samples
	Decode(data []byte) ([]int16, error)
}
