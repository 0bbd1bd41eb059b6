//go:build !portaudio

// ABOUTME: Microphone stub for builds without PortAudio
// ABOUTME: Reports how to enable microphone capture
package capture

import "errors"

// ErrMicrophoneUnavailable is returned when built without the portaudio tag
var ErrMicrophoneUnavailable = errors.New("microphone support not enabled (build with -tags portaudio)")

// NewMicrophone reports that microphone capture is unavailable
func NewMicrophone(opts Options) (Source, error) {
	return nil, ErrMicrophoneUnavailable
}
