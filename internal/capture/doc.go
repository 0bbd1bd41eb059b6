// ABOUTME: Capture sources package
// ABOUTME: Produces raw interleaved stereo buffers for the streaming pipeline
// Package capture produces raw interleaved stereo PCM buffers.
//
// A Source delivers each buffer to a Handler, one call at a time. File and
// tone sources pace themselves at real time with a ticker; the WebSocket
// source forwards whatever its producer sends; the microphone source is paced
// by the device and requires the portaudio build tag.
//
// Example:
//
//	src, err := capture.Open("tone", capture.Options{Format: audio.Int16Stereo})
//	if err != nil {
//	    return err
//	}
//	defer src.Close()
//	err = src.Run(ctx, pipeline.OnAudioFrame)
package capture
