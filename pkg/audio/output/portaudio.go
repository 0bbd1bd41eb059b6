//go:build portaudio

// ABOUTME: PortAudio output implementation
// ABOUTME: Cross-platform blocking 16-bit output using PortAudio
package output

import (
	"errors"
	"fmt"

	"github.com/gordonklaus/portaudio"
)

// PortAudio output implementation
type PortAudio struct {
	stream  *portaudio.Stream
	buffer  []int16
	pending int

	gain
}

// NewPortAudio creates a new PortAudio output
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

// Open initializes PortAudio with 20ms buffers
func (p *PortAudio) Open(sampleRate, channels int) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	frames := sampleRate / 50
	p.buffer = make([]int16, frames*channels)

	stream, err := portaudio.OpenDefaultStream(0, channels, float64(sampleRate), frames, &p.buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	p.stream = stream
	return stream.Start()
}

// Write queues samples, writing to the device each time a buffer fills
func (p *PortAudio) Write(samples []int16) error {
	if p.stream == nil {
		return errors.New("output not opened")
	}

	for len(samples) > 0 {
		n := copy(p.buffer[p.pending:], samples)
		p.scale(p.buffer[p.pending : p.pending+n])
		p.pending += n
		samples = samples[n:]
		if p.pending == len(p.buffer) {
			if err := p.stream.Write(); err != nil {
				return fmt.Errorf("portaudio write: %w", err)
			}
			p.pending = 0
		}
	}

	return nil
}

// Close releases resources
func (p *PortAudio) Close() error {
	if p.stream != nil {
		if err := p.stream.Stop(); err != nil {
			return err
		}
		if err := p.stream.Close(); err != nil {
			return err
		}
	}
	return portaudio.Terminate()
}
