// ABOUTME: High-level stereo capture to mono UDP streaming API
// ABOUTME: Provides the Pipeline that capture sources deliver buffers to
// Package streamer glues the downmix converter and the datagram forwarder
// into one configurable pipeline.
//
// A capture source delivers raw interleaved buffers to OnAudioFrame. Each
// call is processed completely before it returns: convert, report
// diagnostics, send one datagram. Nothing is queued or retried.
//
// Example:
//
//	p, err := streamer.New(streamer.Config{
//	    Format:  audio.Int16Stereo,
//	    Output:  audio.Left,
//	    Monitor: audio.Left,
//	    Address: "192.168.1.20",
//	    Port:    5005,
//	})
//	err = p.Start()
//	defer p.Close()
//	err = p.OnAudioFrame(raw)
package streamer
