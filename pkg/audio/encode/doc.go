// ABOUTME: Audio encoder package for the mono datagram wire format
// ABOUTME: Provides Encoder interface and the PCM implementation
// Package encode produces datagram payloads from mono samples.
//
// The wire format is a bare sequence of signed 16-bit samples in native
// byte order: no header, no framing, no sequence numbers. One converted
// buffer becomes exactly one payload of 2 bytes per sample.
//
// Example:
//
//	encoder := encode.NewPCM()
//	payload := encoder.AppendEncode(buf[:0], samples)
package encode
