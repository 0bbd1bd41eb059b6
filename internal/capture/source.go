// ABOUTME: Capture source abstraction delivering raw stereo buffers
// ABOUTME: Paces frame readers at real time and selects a source by name
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Resonate-Protocol/udp-audio/pkg/audio"
	"github.com/Resonate-Protocol/udp-audio/pkg/forward"
)

const (
	// DefaultSampleRate is the capture rate when none is configured
	DefaultSampleRate = 48000

	// DefaultChunk is the duration of one delivered buffer
	DefaultChunk = 20 * time.Millisecond

	// DefaultFrequency is the test tone pitch (A4)
	DefaultFrequency = 440.0

	// DefaultListen is the WebSocket ingest address
	DefaultListen = ":8928"

	// MaxFramesPerBuffer is the most frames one buffer may hold so that its
	// mono datagram, two bytes per frame, fits in a single UDP payload
	MaxFramesPerBuffer = forward.MaxPayload / 2
)

// ErrStop may be returned by a Handler to end Run without error
var ErrStop = errors.New("capture: stop requested")

// Handler receives one raw interleaved stereo buffer. The buffer is only
// valid for the duration of the call.
type Handler func(raw []byte) error

// Source produces raw buffers until its context is cancelled
type Source interface {
	// Run delivers buffers to handle, one call at a time, until ctx is done
	// or the source is exhausted.
	Run(ctx context.Context, handle Handler) error
	// Describe returns a short human readable name
	Describe() string
	// Close releases the source's resources
	Close() error
}

// Options configures a capture source
type Options struct {
	Format     audio.SampleFormat
	SampleRate int
	Chunk      time.Duration
	Frequency  float64
	Listen     string
	Logger     *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.SampleRate <= 0 {
		o.SampleRate = DefaultSampleRate
	}
	if o.Chunk <= 0 {
		o.Chunk = DefaultChunk
	}
	if o.Frequency <= 0 {
		o.Frequency = DefaultFrequency
	}
	if o.Listen == "" {
		o.Listen = DefaultListen
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// FramesPerChunk returns the number of stereo frames in one buffer
func (o Options) FramesPerChunk() int {
	o = o.withDefaults()
	n := int(int64(o.SampleRate) * int64(o.Chunk) / int64(time.Second))
	if n < 1 {
		n = 1
	}
	return n
}

// Open creates a source from name: "tone", "mic", "ws" or a path to an
// .mp3 or .flac file. An empty name selects the test tone.
func Open(name string, opts Options) (Source, error) {
	opts = opts.withDefaults()
	if !opts.Format.Valid() {
		return nil, fmt.Errorf("invalid sample format %d", opts.Format)
	}

	switch strings.ToLower(name) {
	case "", "tone":
		return NewTone(opts), nil
	case "mic", "microphone":
		return NewMicrophone(opts)
	case "ws", "websocket":
		return NewWebSocket(opts), nil
	}

	if _, err := os.Stat(name); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", name)
	}

	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".mp3":
		return NewMP3(name, opts)
	case ".flac":
		return NewFLAC(name, opts)
	default:
		return nil, fmt.Errorf("unsupported audio format: %s (supported: .mp3, .flac)", ext)
	}
}

// frameReader fills buf with whole frames and returns the bytes written
type frameReader interface {
	ReadFrames(buf []byte) (int, error)
}

// paced drives a frameReader at real time, one chunk per tick
type paced struct {
	reader frameReader
	opts   Options
	name   string
	closer func() error
}

func (p *paced) Run(ctx context.Context, handle Handler) error {
	buf := make([]byte, p.opts.FramesPerChunk()*p.opts.Format.FrameSize())

	ticker := time.NewTicker(p.opts.Chunk)
	defer ticker.Stop()

	p.opts.Logger.Info("Capture source starting",
		"source", p.name,
		"sample_rate", p.opts.SampleRate,
		"format", p.opts.Format.String(),
		"chunk", p.opts.Chunk)

	for {
		select {
		case <-ctx.Done():
			p.opts.Logger.Info("Capture source stopping", "source", p.name)
			return nil
		case <-ticker.C:
		}

		n, err := p.reader.ReadFrames(buf)
		if err != nil {
			return fmt.Errorf("%s: read failed: %w", p.name, err)
		}
		if err := deliver(handle, buf[:n], p.opts.Logger); err != nil {
			if errors.Is(err, ErrStop) {
				return nil
			}
			return err
		}
	}
}

func (p *paced) Describe() string { return p.name }

func (p *paced) Close() error {
	if p.closer == nil {
		return nil
	}
	return p.closer()
}

// deliver hands one buffer to handle. Handler failures other than ErrStop
// are logged and swallowed so a bad buffer does not end the stream.
func deliver(handle Handler, raw []byte, logger *slog.Logger) error {
	err := handle(raw)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStop) {
		return ErrStop
	}
	logger.Debug("Handler rejected buffer", "bytes", len(raw), "err", err)
	return nil
}
