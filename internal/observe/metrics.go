// ABOUTME: OpenTelemetry instruments for sender and receiver counters
// ABOUTME: Creates counters and histograms from a MeterProvider, with a no-op fallback
// Package observe provides OpenTelemetry metrics for the sender and the
// receiver, plus the Prometheus bridge that serves them on /metrics.
//
// Tests should use [NewMetrics] with a custom [metric.MeterProvider] (for
// example one backed by a ManualReader) to avoid cross-test pollution.
package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// meterName is the instrumentation scope name used for all udp-audio metrics.
const meterName = "github.com/Resonate-Protocol/udp-audio"

// Metrics holds all metric instruments. The underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// BuffersReceived counts capture buffers delivered to the pipeline.
	BuffersReceived metric.Int64Counter

	// FramesConverted counts stereo frames turned into mono samples.
	FramesConverted metric.Int64Counter

	// BuffersMalformed counts buffers rejected for a partial frame.
	BuffersMalformed metric.Int64Counter

	// DatagramsSent counts datagrams handed to the socket without error.
	DatagramsSent metric.Int64Counter

	// BytesSent counts payload bytes handed to the socket without error.
	BytesSent metric.Int64Counter

	// SendErrors counts failed or partial sends. Use with attribute:
	//   attribute.String("reason", ...)
	SendErrors metric.Int64Counter

	// RepeatRuns counts repeated-sample runs at or above the threshold.
	RepeatRuns metric.Int64Counter

	// RepeatRunLength records the length of each reported run.
	RepeatRunLength metric.Int64Histogram

	// DatagramsReceived counts datagrams read by the receiver.
	DatagramsReceived metric.Int64Counter

	// BytesReceived counts payload bytes read by the receiver.
	BytesReceived metric.Int64Counter

	// DatagramsInvalid counts received datagrams that could not be decoded.
	DatagramsInvalid metric.Int64Counter
}

// runLengthBuckets covers runs from the default threshold up to a second of held audio at 48 kHz.
var runLengthBuckets = []float64{5, 10, 50, 100, 500, 1000, 5000, 48000}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider].
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.BuffersReceived, err = m.Int64Counter("udp_audio.buffers.received",
		metric.WithDescription("Capture buffers delivered to the pipeline."),
	); err != nil {
		return nil, err
	}
	if met.FramesConverted, err = m.Int64Counter("udp_audio.frames.converted",
		metric.WithDescription("Stereo frames converted to mono samples."),
	); err != nil {
		return nil, err
	}
	if met.BuffersMalformed, err = m.Int64Counter("udp_audio.buffers.malformed",
		metric.WithDescription("Capture buffers rejected because their length is not a whole number of frames."),
	); err != nil {
		return nil, err
	}
	if met.DatagramsSent, err = m.Int64Counter("udp_audio.datagrams.sent",
		metric.WithDescription("Datagrams handed to the socket."),
	); err != nil {
		return nil, err
	}
	if met.BytesSent, err = m.Int64Counter("udp_audio.bytes.sent",
		metric.WithDescription("Payload bytes handed to the socket."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.SendErrors, err = m.Int64Counter("udp_audio.send.errors",
		metric.WithDescription("Failed or partial datagram sends by reason."),
	); err != nil {
		return nil, err
	}
	if met.RepeatRuns, err = m.Int64Counter("udp_audio.repeat.runs",
		metric.WithDescription("Runs of identical samples at or above the repeat threshold."),
	); err != nil {
		return nil, err
	}
	if met.RepeatRunLength, err = m.Int64Histogram("udp_audio.repeat.run_length",
		metric.WithDescription("Length in frames of reported repeated-sample runs."),
		metric.WithExplicitBucketBoundaries(runLengthBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DatagramsReceived, err = m.Int64Counter("udp_audio.datagrams.received",
		metric.WithDescription("Datagrams read by the receiver."),
	); err != nil {
		return nil, err
	}
	if met.BytesReceived, err = m.Int64Counter("udp_audio.bytes.received",
		metric.WithDescription("Payload bytes read by the receiver."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.DatagramsInvalid, err = m.Int64Counter("udp_audio.datagrams.invalid",
		metric.WithDescription("Received datagrams with an odd payload length."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// Discard returns instruments backed by a no-op provider
func Discard() *Metrics {
	met, err := NewMetrics(noop.NewMeterProvider())
	if err != nil {
		panic("observe: noop metrics: " + err.Error())
	}
	return met
}

// RecordSendError records a send error counter increment with its reason.
func (m *Metrics) RecordSendError(ctx context.Context, reason string) {
	m.SendErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordRepeat records one reported repeated-sample run.
func (m *Metrics) RecordRepeat(ctx context.Context, count int, channel string) {
	attrs := metric.WithAttributes(attribute.String("channel", channel))
	m.RepeatRuns.Add(ctx, 1, attrs)
	m.RepeatRunLength.Record(ctx, int64(count), attrs)
}
