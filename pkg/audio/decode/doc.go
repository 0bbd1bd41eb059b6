// ABOUTME: Audio decoder package for the mono datagram wire format
// ABOUTME: Provides Decoder interface and the PCM implementation
// Package decode reads datagram payloads produced by package encode.
//
// Example:
//
//	samples, err := decode.NewPCM().Decode(payload)
package decode
