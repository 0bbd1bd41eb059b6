// ABOUTME: Test tone capture source
// ABOUTME: Generates a 50% volume sine wave on both channels
package capture

import (
	"fmt"
	"math"

	"github.com/Resonate-Protocol/udp-audio/pkg/audio"
)

// toneAmplitude is 50% volume
const toneAmplitude = 0.5

// ToneReader generates a sine wave in the configured sample format
type ToneReader struct {
	format      audio.SampleFormat
	sampleRate  int
	frequency   float64
	sampleIndex uint64
}

// NewToneReader creates a tone generator without pacing
func NewToneReader(format audio.SampleFormat, sampleRate int, frequency float64) *ToneReader {
	return &ToneReader{
		format:     format,
		sampleRate: sampleRate,
		frequency:  frequency,
	}
}

// ReadFrames fills buf with whole frames of the tone, duplicated to both channels
func (t *ToneReader) ReadFrames(buf []byte) (int, error) {
	frames := len(buf) / t.format.FrameSize()

	for i := 0; i < frames; i++ {
		ts := float64(t.sampleIndex+uint64(i)) / float64(t.sampleRate)
		v := audio.FullScaleFromFloat(math.Sin(2*math.Pi*t.frequency*ts) * toneAmplitude)
		audio.PutFrame(t.format, buf, i, v, v)
	}

	t.sampleIndex += uint64(frames)
	return frames * t.format.FrameSize(), nil
}

// NewTone creates a paced test tone source
func NewTone(opts Options) Source {
	opts = opts.withDefaults()
	return &paced{
		reader: NewToneReader(opts.Format, opts.SampleRate, opts.Frequency),
		opts:   opts,
		name:   fmt.Sprintf("tone %.0f Hz", opts.Frequency),
	}
}
