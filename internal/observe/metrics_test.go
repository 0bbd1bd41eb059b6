// ABOUTME: Tests for metric instruments and the Prometheus provider
// ABOUTME: Inspects recorded values through a ManualReader
package observe

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	m := findMetric(rm, name)
	if m == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is %T, want Sum[int64]", name, m.Data)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.BuffersReceived.Add(ctx, 3)
	m.DatagramsSent.Add(ctx, 2)
	m.BytesSent.Add(ctx, 1920)
	m.BuffersMalformed.Add(ctx, 1)
	m.RecordSendError(ctx, "would_block")
	m.RecordSendError(ctx, "other")

	rm := collect(t, reader)

	tests := []struct {
		name string
		want int64
	}{
		{"udp_audio.buffers.received", 3},
		{"udp_audio.datagrams.sent", 2},
		{"udp_audio.bytes.sent", 1920},
		{"udp_audio.buffers.malformed", 1},
		{"udp_audio.send.errors", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sumOf(t, rm, tt.name); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestRecordRepeat(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.RecordRepeat(context.Background(), 7, "left")

	rm := collect(t, reader)
	if got := sumOf(t, rm, "udp_audio.repeat.runs"); got != 1 {
		t.Errorf("expected 1 run, got %d", got)
	}

	hist := findMetric(rm, "udp_audio.repeat.run_length")
	if hist == nil {
		t.Fatal("run length histogram not found")
	}
	data, ok := hist.Data.(metricdata.Histogram[int64])
	if !ok {
		t.Fatalf("unexpected data type %T", hist.Data)
	}
	if len(data.DataPoints) != 1 || data.DataPoints[0].Sum != 7 {
		t.Errorf("expected one observation of 7, got %+v", data.DataPoints)
	}
}

func TestDiscard(t *testing.T) {
	m := Discard()
	m.BuffersReceived.Add(context.Background(), 1)
	m.RecordRepeat(context.Background(), 5, "right")
}

func TestProviderHandler(t *testing.T) {
	p, err := InitProvider(context.Background(), ProviderConfig{Registry: prometheus.NewRegistry()})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	m, err := NewMetrics(p.MeterProvider)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	m.DatagramsSent.Add(context.Background(), 4)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "udp_audio_datagrams_sent") {
		t.Errorf("expected datagram counter in scrape output, got:\n%s", rec.Body.String())
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	p, err := InitProvider(context.Background(), ProviderConfig{})
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("tcp listen unavailable: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Serve(ctx, addr, slog.New(slog.NewTextHandler(io.Discard, nil)))
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop after cancel")
	}
}
