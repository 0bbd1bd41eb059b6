// ABOUTME: Stereo to mono sample converter with repeated-sample diagnostics
// ABOUTME: Selects one channel of an interleaved buffer and scans another for stalled runs
package downmix

import (
	"fmt"

	"github.com/Resonate-Protocol/udp-audio/pkg/audio"
)

// DefaultRepeatThreshold is the run length at which a repeated value is reported
const DefaultRepeatThreshold = 5

// Config selects the buffer layout and which channels are used
type Config struct {
	Format audio.SampleFormat
	// Output is the channel that becomes the mono stream
	Output audio.Channel
	// Monitor is the channel scanned for repeated values
	Monitor audio.Channel
	// Threshold is the minimum run length reported. Zero means DefaultRepeatThreshold.
	Threshold int
}

// RepeatDiagnostic reports a run of identical raw values on the monitored channel
type RepeatDiagnostic struct {
	Value int32
	Count int
}

// Result is the output of one Convert call
type Result struct {
	Samples []int16
	Repeats []RepeatDiagnostic
}

// MalformedBufferError is returned when a buffer does not hold a whole number of frames
type MalformedBufferError struct {
	Length    int
	FrameSize int
}

func (e *MalformedBufferError) Error() string {
	return fmt.Sprintf("malformed buffer: got %d bytes, expected a multiple of %d (%d or %d bytes)",
		e.Length, e.FrameSize, e.Expected(), e.Expected()+e.FrameSize)
}

// Expected returns the largest whole-frame length not exceeding Length
func (e *MalformedBufferError) Expected() int {
	return e.Length - e.Length%e.FrameSize
}

// Converter turns interleaved stereo buffers into mono 16-bit samples
type Converter struct {
	format    audio.SampleFormat
	output    int
	monitor   int
	threshold int
}

// New creates a converter for the given configuration
func New(cfg Config) (*Converter, error) {
	if !cfg.Format.Valid() {
		return nil, fmt.Errorf("invalid sample format: %v", cfg.Format)
	}
	if !cfg.Output.Valid() {
		return nil, fmt.Errorf("invalid output channel: %v", cfg.Output)
	}
	if !cfg.Monitor.Valid() {
		return nil, fmt.Errorf("invalid monitor channel: %v", cfg.Monitor)
	}

	threshold := cfg.Threshold
	if threshold == 0 {
		threshold = DefaultRepeatThreshold
	}
	if threshold < 2 {
		return nil, fmt.Errorf("repeat threshold must be at least 2, got %d", threshold)
	}

	return &Converter{
		format:    cfg.Format,
		output:    cfg.Output.Index(),
		monitor:   cfg.Monitor.Index(),
		threshold: threshold,
	}, nil
}

// Format returns the configured sample format
func (c *Converter) Format() audio.SampleFormat { return c.format }

// Threshold returns the configured repeat threshold
func (c *Converter) Threshold() int { return c.threshold }

// Convert extracts the output channel from raw and scans the monitor channel
// for repeated runs. Run tracking starts fresh on every call, so a run that
// spans two buffers is reported per buffer, if at all.
func (c *Converter) Convert(raw []byte) (Result, error) {
	frameSize := c.format.FrameSize()
	if len(raw)%frameSize != 0 {
		return Result{}, &MalformedBufferError{Length: len(raw), FrameSize: frameSize}
	}

	numFrames := len(raw) / frameSize
	width := c.format.BytesPerSample()
	res := Result{Samples: make([]int16, numFrames)}

	var last int32
	run := 0
	for i := 0; i < numFrames; i++ {
		off := i * frameSize
		res.Samples[i] = audio.ToInt16(c.format, audio.ReadSample(c.format, raw, off+c.output*width))

		v := audio.ReadSample(c.format, raw, off+c.monitor*width)
		switch {
		case run == 0:
			last, run = v, 1
		case v == last:
			run++
		default:
			if run >= c.threshold {
				res.Repeats = append(res.Repeats, RepeatDiagnostic{Value: last, Count: run})
			}
			last, run = v, 1
		}
	}
	if run >= c.threshold {
		res.Repeats = append(res.Repeats, RepeatDiagnostic{Value: last, Count: run})
	}

	return res, nil
}
