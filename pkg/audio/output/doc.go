// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides the Output interface with oto, PortAudio and discard backends
// Package output provides audio playback interfaces.
//
// Oto is the default backend. PortAudio is available with the portaudio
// build tag. Discard drops samples and is used when playback is disabled.
//
// Example:
//
//	out := output.NewOto(nil)
//	err := out.Open(48000, 1)
//	err = out.Write(samples)
package output
