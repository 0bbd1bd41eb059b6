// ABOUTME: Tests for the UDP receiver loop
// ABOUTME: Sends real loopback datagrams and records what reaches the output
package receiver

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/Resonate-Protocol/udp-audio/pkg/audio/encode"
)

// recordingOutput keeps every write
type recordingOutput struct {
	mu     sync.Mutex
	writes [][]int16
	err    error
}

func (o *recordingOutput) Open(sampleRate, channels int) error { return nil }
func (o *recordingOutput) Close() error                        { return nil }

func (o *recordingOutput) Write(samples []int16) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.writes = append(o.writes, append([]int16(nil), samples...))
	return o.err
}

func (o *recordingOutput) snapshot() [][]int16 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([][]int16(nil), o.writes...)
}

func startReceiver(t *testing.T, out *recordingOutput) (*Receiver, *net.UDPConn, context.CancelFunc, <-chan error) {
	t.Helper()
	r, err := Listen(Config{Bind: "127.0.0.1", Port: 0}, out)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	sender, err := net.DialUDP("udp", nil, net.UDPAddrFromAddrPort(r.Addr()))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { sender.Close() })
	return r, sender, cancel, done
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestReceiverPlaysDatagrams(t *testing.T) {
	out := &recordingOutput{}
	r, sender, cancel, done := startReceiver(t, out)
	defer cancel()

	enc := encode.NewPCM()
	sender.Write(enc.Encode([]int16{10, 20, 30}))
	sender.Write([]byte{})
	sender.Write([]byte{1, 2, 3})
	sender.Write(enc.Encode([]int16{-1, 32767}))

	waitFor(t, func() bool { return r.Stats().Datagrams == 4 })

	want := [][]int16{{10, 20, 30}, {-1, 32767}}
	if diff := cmp.Diff(want, out.snapshot()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}

	stats := r.Stats()
	if stats.Invalid != 1 {
		t.Errorf("expected 1 invalid datagram, got %d", stats.Invalid)
	}
	if stats.Samples != 5 || stats.Bytes != 13 {
		t.Errorf("expected 5 samples and 13 bytes, got %d and %d", stats.Samples, stats.Bytes)
	}
	if stats.LastPeer.Port() != uint16(sender.LocalAddr().(*net.UDPAddr).Port) {
		t.Errorf("unexpected last peer %s", stats.LastPeer)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil error on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestReceiverCountsOutputErrors(t *testing.T) {
	out := &recordingOutput{err: errors.New("device gone")}
	r, sender, cancel, _ := startReceiver(t, out)
	defer cancel()

	sender.Write(encode.NewPCM().Encode([]int16{1}))
	waitFor(t, func() bool { return r.Stats().OutputErrors == 1 })
}

func TestListenRejectsBadBind(t *testing.T) {
	if _, err := Listen(Config{Bind: "not-an-ip"}, &recordingOutput{}); err == nil {
		t.Error("expected error for invalid bind address")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	r, err := Listen(Config{Bind: "127.0.0.1"}, &recordingOutput{})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	if err := r.Run(context.Background()); err != nil {
		t.Errorf("Run on closed receiver should return nil, got %v", err)
	}
}
