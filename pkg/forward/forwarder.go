// ABOUTME: Non-blocking datagram forwarder
// ABOUTME: Owns one UDP socket and sends each mono buffer as a single best-effort datagram
package forward

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Resonate-Protocol/udp-audio/pkg/audio/encode"
)

// MaxPayload is the largest UDP payload that fits one IPv4 datagram
const MaxPayload = 65507

// State is the lifecycle state of a Forwarder
type State int

const (
	StateUnconfigured State = iota
	StateConfigured
	StateOpen
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	case StateOpen:
		return "open"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Forwarder sends mono sample buffers to a fixed destination
type Forwarder struct {
	mu        sync.Mutex
	state     State
	dst       Destination
	socket    Socket
	newSocket SocketFactory
	encoder   *encode.PCMEncoder
	buf       []byte
	logger    *slog.Logger
}

// Option configures a Forwarder
type Option func(*Forwarder)

// WithLogger sets the logger used for socket diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(f *Forwarder) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// WithSocketFactory replaces the OS socket backend
func WithSocketFactory(factory SocketFactory) Option {
	return func(f *Forwarder) {
		if factory != nil {
			f.newSocket = factory
		}
	}
}

// New creates an unconfigured forwarder
func New(opts ...Option) *Forwarder {
	f := &Forwarder{
		newSocket: OpenSystemSocket,
		encoder:   encode.NewPCM(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Configure parses and stores the destination. It must be called before Open.
func (f *Forwarder) Configure(address string, port uint16) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateOpen:
		return ErrAlreadyOpen
	case StateFailed:
		return ErrFailed
	case StateClosed:
		return ErrClosed
	}

	dst, err := ParseDestination(address, port)
	if err != nil {
		return err
	}
	f.dst = dst
	f.state = StateConfigured
	return nil
}

// Open creates the socket. Failure to create it or to make it non-blocking
// leaves the forwarder permanently failed; failure to enable address reuse
// is only logged.
func (f *Forwarder) Open() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateUnconfigured:
		return ErrNotConfigured
	case StateOpen:
		return ErrAlreadyOpen
	case StateFailed:
		return ErrFailed
	case StateClosed:
		return ErrClosed
	}

	sock, err := f.newSocket(f.dst)
	if err != nil {
		f.state = StateFailed
		serr := &SocketError{Op: "create", Err: err}
		f.logger.Error("Could not create socket", "destination", f.dst.String(), "errno", int(serr.Errno()), "err", err)
		return serr
	}

	if err := sock.SetReuseAddr(); err != nil {
		f.logger.Warn("Socket unable to set reuseaddr", "errno", int(errnoOf(err)), "err", err)
	}

	if err := sock.SetNonblock(); err != nil {
		f.state = StateFailed
		_ = sock.Close()
		serr := &SocketError{Op: "set nonblocking", Err: err}
		f.logger.Error("Socket unable to set nonblocking mode", "errno", int(serr.Errno()), "err", err)
		return serr
	}

	f.socket = sock
	f.state = StateOpen
	f.logger.Debug("Datagram socket open", "destination", f.dst.String(), "family", f.dst.Family().String())
	return nil
}

// Send encodes samples as native-endian 16-bit PCM and transmits them as one datagram
func (f *Forwarder) Send(samples []int16) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.checkOpen(); err != nil {
		return err
	}

	f.buf = f.encoder.AppendEncode(f.buf[:0], samples)
	return f.send(f.buf)
}

func (f *Forwarder) checkOpen() error {
	switch f.state {
	case StateOpen:
		return nil
	case StateFailed:
		return ErrFailed
	case StateClosed:
		return ErrClosed
	default:
		return ErrNotOpen
	}
}

func (f *Forwarder) send(p []byte) error {
	n, err := f.socket.Send(p)
	if err != nil {
		return &SendError{Length: len(p), Sent: n, Err: err}
	}
	if n < len(p) {
		return &SendError{Length: len(p), Sent: n, Err: ErrShortWrite}
	}
	return nil
}

// Close releases the socket. It is idempotent and safe before Open.
func (f *Forwarder) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var err error
	if f.socket != nil {
		err = f.socket.Close()
		f.socket = nil
	}
	if f.state != StateFailed {
		f.state = StateClosed
	}
	return err
}

// State returns the current lifecycle state
func (f *Forwarder) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Destination returns the configured destination
func (f *Forwarder) Destination() Destination {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dst
}
