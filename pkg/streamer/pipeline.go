// ABOUTME: Capture-to-datagram pipeline
// ABOUTME: Converts each raw stereo buffer to mono and forwards it synchronously
package streamer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"

	"github.com/Resonate-Protocol/udp-audio/internal/observe"
	"github.com/Resonate-Protocol/udp-audio/pkg/audio"
	"github.com/Resonate-Protocol/udp-audio/pkg/audio/downmix"
	"github.com/Resonate-Protocol/udp-audio/pkg/forward"
)

// Config holds pipeline configuration. All values are fixed after New.
type Config struct {
	Format          audio.SampleFormat
	Output          audio.Channel
	Monitor         audio.Channel
	RepeatThreshold int
	Address         string
	Port            uint16
}

// Stats is a snapshot of pipeline counters
type Stats struct {
	Buffers    uint64
	Frames     uint64
	Datagrams  uint64
	Bytes      uint64
	Malformed  uint64
	Repeats    uint64
	SendErrors uint64
	LastRepeat downmix.RepeatDiagnostic
}

// Pipeline owns a converter and a forwarder and processes one buffer per call
type Pipeline struct {
	config    Config
	converter *downmix.Converter
	forwarder *forward.Forwarder
	logger    *slog.Logger
	metrics   *observe.Metrics

	buffers    atomic.Uint64
	frames     atomic.Uint64
	datagrams  atomic.Uint64
	bytes      atomic.Uint64
	malformed  atomic.Uint64
	repeats    atomic.Uint64
	sendErrors atomic.Uint64
	lastRepeat atomic.Pointer[downmix.RepeatDiagnostic]
}

// Option configures a Pipeline
type Option func(*options)

type options struct {
	logger        *slog.Logger
	meterProvider metric.MeterProvider
	forwardOpts   []forward.Option
}

// WithLogger sets the diagnostics logger
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMeterProvider records pipeline metrics through mp. Without it
// instruments are no-ops.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithForwarderOptions passes options through to the forwarder
func WithForwarderOptions(opts ...forward.Option) Option {
	return func(o *options) { o.forwardOpts = append(o.forwardOpts, opts...) }
}

// New builds the converter and configures the forwarder's destination.
// An unparsable address aborts setup with a *forward.AddressError.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	metrics := observe.Discard()
	if o.meterProvider != nil {
		m, err := observe.NewMetrics(o.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create metrics: %w", err)
		}
		metrics = m
	}

	converter, err := downmix.New(downmix.Config{
		Format:    cfg.Format,
		Output:    cfg.Output,
		Monitor:   cfg.Monitor,
		Threshold: cfg.RepeatThreshold,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create converter: %w", err)
	}

	fwdOpts := append([]forward.Option{forward.WithLogger(o.logger)}, o.forwardOpts...)
	forwarder := forward.New(fwdOpts...)
	if err := forwarder.Configure(cfg.Address, cfg.Port); err != nil {
		o.logger.Error("Invalid destination", "address", cfg.Address, "port", cfg.Port, "err", err)
		return nil, fmt.Errorf("failed to configure destination: %w", err)
	}

	return &Pipeline{
		config:    cfg,
		converter: converter,
		forwarder: forwarder,
		logger:    o.logger,
		metrics:   metrics,
	}, nil
}

// Start opens the datagram socket. A *forward.SocketError here is fatal.
func (p *Pipeline) Start() error {
	if err := p.forwarder.Open(); err != nil {
		return fmt.Errorf("failed to open forwarder: %w", err)
	}
	p.logger.Info("Pipeline started",
		"destination", p.forwarder.Destination().String(),
		"format", p.config.Format.String(),
		"output", p.config.Output.String(),
		"monitor", p.config.Monitor.String(),
		"repeat_threshold", p.converter.Threshold())
	return nil
}

// OnAudioFrame converts raw and sends the result as one datagram. The buffer
// is not retained. A malformed buffer is rejected without sending; a send
// error is reported but the pipeline keeps accepting buffers. Calls must not
// overlap.
func (p *Pipeline) OnAudioFrame(raw []byte) error {
	ctx := context.Background()
	p.buffers.Add(1)
	p.metrics.BuffersReceived.Add(ctx, 1)

	res, err := p.converter.Convert(raw)
	if err != nil {
		var malformed *downmix.MalformedBufferError
		if errors.As(err, &malformed) {
			p.malformed.Add(1)
			p.metrics.BuffersMalformed.Add(ctx, 1)
			p.logger.Warn("Received malformed buffer",
				"length", malformed.Length,
				"frame_size", malformed.FrameSize,
				"expected", malformed.Expected())
		}
		return err
	}

	p.frames.Add(uint64(len(res.Samples)))
	p.metrics.FramesConverted.Add(ctx, int64(len(res.Samples)))

	for _, r := range res.Repeats {
		p.repeats.Add(1)
		last := r
		p.lastRepeat.Store(&last)
		p.metrics.RecordRepeat(ctx, r.Count, p.config.Monitor.String())
		p.logger.Warn("Repeated sample run",
			"value", r.Value,
			"count", r.Count,
			"channel", p.config.Monitor.String())
	}

	p.logger.Debug("Sending mono samples", "samples", len(res.Samples), "bytes", len(res.Samples)*2)
	if err := p.forwarder.Send(res.Samples); err != nil {
		p.sendErrors.Add(1)
		var sendErr *forward.SendError
		if errors.As(err, &sendErr) {
			reason := "error"
			if sendErr.WouldBlock() {
				reason = "would_block"
			} else if errors.Is(err, forward.ErrShortWrite) {
				reason = "short_write"
			}
			p.metrics.RecordSendError(ctx, reason)
			p.logger.Warn("Datagram send failed",
				"bytes", sendErr.Length,
				"sent", sendErr.Sent,
				"errno", int(sendErr.Errno()),
				"err", sendErr.Err)
		} else {
			p.metrics.RecordSendError(ctx, "state")
			p.logger.Warn("Datagram send rejected", "err", err)
		}
		return err
	}

	p.datagrams.Add(1)
	p.bytes.Add(uint64(len(res.Samples) * 2))
	p.metrics.DatagramsSent.Add(ctx, 1)
	p.metrics.BytesSent.Add(ctx, int64(len(res.Samples)*2))
	return nil
}

// Stats returns a snapshot of the counters
func (p *Pipeline) Stats() Stats {
	s := Stats{
		Buffers:    p.buffers.Load(),
		Frames:     p.frames.Load(),
		Datagrams:  p.datagrams.Load(),
		Bytes:      p.bytes.Load(),
		Malformed:  p.malformed.Load(),
		Repeats:    p.repeats.Load(),
		SendErrors: p.sendErrors.Load(),
	}
	if last := p.lastRepeat.Load(); last != nil {
		s.LastRepeat = *last
	}
	return s
}

// Config returns the pipeline configuration
func (p *Pipeline) Config() Config { return p.config }

// Destination returns the resolved destination
func (p *Pipeline) Destination() forward.Destination { return p.forwarder.Destination() }

// State returns the forwarder state
func (p *Pipeline) State() forward.State { return p.forwarder.State() }

// Close releases the socket. Safe to call more than once.
func (p *Pipeline) Close() error {
	return p.forwarder.Close()
}
