//go:build portaudio

// ABOUTME: Microphone capture source backed by PortAudio
// ABOUTME: Reads stereo float frames from the default input device
package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/MarkKremer/microphone/v2"
	"github.com/gopxl/beep/v2"

	"github.com/Resonate-Protocol/udp-audio/pkg/audio"
)

// MicrophoneSource captures from the default input device. The device
// clock paces delivery, so no ticker is used.
type MicrophoneSource struct {
	opts   Options
	stream *microphone.Streamer
}

// NewMicrophone opens the default input device in stereo
func NewMicrophone(opts Options) (Source, error) {
	opts = opts.withDefaults()

	if err := microphone.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize microphone: %w", err)
	}

	stream, _, err := microphone.OpenDefaultStream(beep.SampleRate(opts.SampleRate), audio.Channels)
	if err != nil {
		microphone.Terminate()
		return nil, fmt.Errorf("failed to create microphone stream: %w", err)
	}

	return &MicrophoneSource{opts: opts, stream: stream}, nil
}

// Run streams microphone buffers to handle until ctx is done
func (m *MicrophoneSource) Run(ctx context.Context, handle Handler) error {
	if err := m.stream.Start(); err != nil {
		return fmt.Errorf("failed to start microphone stream: %w", err)
	}

	frames := m.opts.FramesPerChunk()
	samples := make([][2]float64, frames)
	buf := make([]byte, frames*m.opts.Format.FrameSize())

	m.opts.Logger.Info("Capture source starting",
		"source", m.Describe(),
		"sample_rate", m.opts.SampleRate,
		"format", m.opts.Format.String())

	for {
		select {
		case <-ctx.Done():
			m.opts.Logger.Info("Capture source stopping", "source", m.Describe())
			return nil
		default:
		}

		n, ok := m.stream.Stream(samples)
		if !ok {
			if err := m.stream.Err(); err != nil {
				return fmt.Errorf("microphone read failed: %w", err)
			}
			return errors.New("microphone stream ended")
		}

		for i := 0; i < n; i++ {
			audio.PutFrame(m.opts.Format, buf, i,
				audio.FullScaleFromFloat(samples[i][0]),
				audio.FullScaleFromFloat(samples[i][1]))
		}

		if err := deliver(handle, buf[:n*m.opts.Format.FrameSize()], m.opts.Logger); err != nil {
			return nil
		}
	}
}

// Describe names the device
func (m *MicrophoneSource) Describe() string { return "microphone" }

// Close stops capture and releases PortAudio
func (m *MicrophoneSource) Close() error {
	err := m.stream.Close()
	microphone.Terminate()
	return err
}
