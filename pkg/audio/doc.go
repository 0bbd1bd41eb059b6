// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines SampleFormat, Channel and native-endian sample packing
// Package audio provides the fundamental types shared by the capture,
// conversion and forwarding packages.
//
// This package defines:
//   - SampleFormat: width of the samples in an interleaved stereo capture buffer
//   - Channel: which side of a stereo frame to select
//
// Samples are read and written in the platform's native byte order with
// explicit fixed-width decoding. Capture sources work in "full scale"
// (left-justified 32-bit) samples and convert to the raw range of the
// configured format when packing frames.
//
// Example:
//
//	buf := make([]byte, frames*audio.Int32Stereo.FrameSize())
//	audio.PutFrame(audio.Int32Stereo, buf, 0, left, right)
//	v := audio.ReadSample(audio.Int32Stereo, buf, 0)
//	mono := audio.ToInt16(audio.Int32Stereo, v)
package audio
