// ABOUTME: Streaming sample rate conversion for interleaved audio
// ABOUTME: Used by file capture to match decoded audio to the stream rate
// Package resample converts interleaved samples between rates with linear
// interpolation. A Resampler keeps the last input frame between calls, so a
// long input may be fed in arbitrary chunks without seams.
//
//	r := resample.New(44100, 48000, 2)
//	out := make([]int32, r.OutputSamplesNeeded(len(in)))
//	out = out[:r.Resample(in, out)]
package resample
