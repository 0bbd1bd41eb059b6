// ABOUTME: Downmix package for reducing stereo capture buffers to mono
// ABOUTME: Provides Converter and its diagnostics
// Package downmix reduces interleaved stereo capture buffers to a mono
// 16-bit sample stream by channel selection (not averaging).
//
// 32-bit samples are truncated to their most significant 16 bits with an
// arithmetic shift. While extracting, the converter scans the monitored
// channel for runs of identical raw values, a symptom of a stalled capture
// source, and reports every run that reaches the threshold.
//
// Example:
//
//	conv, err := downmix.New(downmix.Config{
//	    Format:  audio.Int32Stereo,
//	    Output:  audio.Right,
//	    Monitor: audio.Left,
//	})
//	res, err := conv.Convert(raw)
package downmix
