// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for mono 16-bit playback backends
package output

import "sync/atomic"

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Write outputs interleaved 16-bit samples (blocks until queued)
	Write(samples []int16) error

	// Close releases output resources
	Close() error
}

// Discard is an Output that drops samples and counts them
type Discard struct {
	samples atomic.Uint64
	writes  atomic.Uint64
}

// NewDiscard creates a discarding output
func NewDiscard() *Discard {
	return &Discard{}
}

func (d *Discard) Open(sampleRate, channels int) error { return nil }

func (d *Discard) Write(samples []int16) error {
	d.writes.Add(1)
	d.samples.Add(uint64(len(samples)))
	return nil
}

func (d *Discard) Close() error { return nil }

// Samples returns the number of samples written
func (d *Discard) Samples() uint64 { return d.samples.Load() }

// Writes returns the number of Write calls
func (d *Discard) Writes() uint64 { return d.writes.Load() }
