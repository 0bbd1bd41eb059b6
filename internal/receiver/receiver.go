// ABOUTME: UDP receive loop for mono 16-bit audio datagrams
// ABOUTME: Decodes each datagram and hands the samples to an output
package receiver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/udp-audio/internal/observe"
	"github.com/Resonate-Protocol/udp-audio/pkg/audio/decode"
	"github.com/Resonate-Protocol/udp-audio/pkg/audio/output"
)

// maxDatagram is the largest UDP payload
const maxDatagram = 65535

// Config holds listener settings
type Config struct {
	Bind string
	Port uint16
}

// Stats is a snapshot of receiver counters
type Stats struct {
	Datagrams    uint64
	Bytes        uint64
	Samples      uint64
	Invalid      uint64
	OutputErrors uint64
	LastPeer     netip.AddrPort
}

// Receiver reads datagrams and plays them
type Receiver struct {
	conn    *net.UDPConn
	decoder *decode.PCMDecoder
	out     output.Output
	logger  *slog.Logger
	metrics *observe.Metrics

	datagrams    atomic.Uint64
	bytes        atomic.Uint64
	samples      atomic.Uint64
	invalid      atomic.Uint64
	outputErrors atomic.Uint64
	lastPeer     atomic.Pointer[netip.AddrPort]

	closeOnce sync.Once
}

// Option configures a Receiver
type Option func(*Receiver)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(r *Receiver) { r.logger = logger }
}

// WithMetrics sets the metric instruments
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Receiver) { r.metrics = m }
}

// Listen binds the UDP socket. The output must already be open.
func Listen(cfg Config, out output.Output, opts ...Option) (*Receiver, error) {
	bind := cfg.Bind
	if bind == "" {
		bind = "0.0.0.0"
	}
	ip, err := netip.ParseAddr(bind)
	if err != nil {
		return nil, fmt.Errorf("invalid bind address %q: %w", bind, err)
	}

	conn, err := net.ListenUDP("udp", net.UDPAddrFromAddrPort(netip.AddrPortFrom(ip, cfg.Port)))
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", netip.AddrPortFrom(ip, cfg.Port), err)
	}

	r := &Receiver{
		conn:    conn,
		decoder: decode.NewPCM(),
		out:     out,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = observe.Discard()
	}
	return r, nil
}

// Addr returns the bound local address
func (r *Receiver) Addr() netip.AddrPort {
	return r.conn.LocalAddr().(*net.UDPAddr).AddrPort()
}

// Run reads datagrams until ctx is done or the socket is closed
func (r *Receiver) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { r.Close() })
	defer stop()

	r.logger.Info("Receiver listening", "addr", r.Addr().String())

	buf := make([]byte, maxDatagram)
	var samples []int16

	for {
		n, peer, err := r.conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				r.logger.Info("Receiver stopping")
				return nil
			}
			return fmt.Errorf("read failed: %w", err)
		}

		samples, err = r.handle(ctx, buf[:n], peer, samples[:0])
		if err != nil {
			r.logger.Warn("Dropping datagram", "bytes", n, "peer", peer.String(), "err", err)
		}
	}
}

// handle decodes one payload and writes it out, reusing dst
func (r *Receiver) handle(ctx context.Context, payload []byte, peer netip.AddrPort, dst []int16) ([]int16, error) {
	r.datagrams.Add(1)
	r.bytes.Add(uint64(len(payload)))
	r.metrics.DatagramsReceived.Add(ctx, 1)
	r.metrics.BytesReceived.Add(ctx, int64(len(payload)))

	if prev := r.lastPeer.Load(); prev == nil || *prev != peer {
		r.logger.Info("Receiving from new sender", "peer", peer.String())
		r.lastPeer.Store(&peer)
	}

	samples, err := r.decoder.AppendDecode(dst, payload)
	if err != nil {
		r.invalid.Add(1)
		r.metrics.DatagramsInvalid.Add(ctx, 1)
		return samples, err
	}
	if len(samples) == 0 {
		return samples, nil
	}

	r.samples.Add(uint64(len(samples)))
	if err := r.out.Write(samples); err != nil {
		r.outputErrors.Add(1)
		return samples, fmt.Errorf("output write: %w", err)
	}
	return samples, nil
}

// Stats returns a snapshot of the counters
func (r *Receiver) Stats() Stats {
	s := Stats{
		Datagrams:    r.datagrams.Load(),
		Bytes:        r.bytes.Load(),
		Samples:      r.samples.Load(),
		Invalid:      r.invalid.Load(),
		OutputErrors: r.outputErrors.Load(),
	}
	if p := r.lastPeer.Load(); p != nil {
		s.LastPeer = *p
	}
	return s
}

// Close closes the socket. Safe to call more than once.
func (r *Receiver) Close() error {
	var err error
	r.closeOnce.Do(func() {
		err = r.conn.Close()
	})
	return err
}
