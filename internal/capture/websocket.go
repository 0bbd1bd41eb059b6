// ABOUTME: WebSocket ingest capture source
// ABOUTME: Accepts one producer streaming binary messages of raw stereo PCM
package capture

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// IngestPath is the HTTP path producers connect to
const IngestPath = "/ingest"

// WebSocketSource receives buffers pushed by a remote producer. Each binary
// message is delivered to the handler unchanged, so the producer decides the
// buffer size and pacing.
type WebSocketSource struct {
	opts     Options
	upgrader websocket.Upgrader
	active   atomic.Bool
	handleMu sync.Mutex

	serverMu sync.Mutex
	server   *http.Server
}

// NewWebSocket creates an ingest source listening on opts.Listen
func NewWebSocket(opts Options) *WebSocketSource {
	opts = opts.withDefaults()
	return &WebSocketSource{
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize: 16 * 1024,
			// Producers are non-browser clients on a trusted network
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// MaxMessageSize is the largest accepted message: MaxFramesPerBuffer frames
// of the configured format
func (s *WebSocketSource) MaxMessageSize() int64 {
	return int64(MaxFramesPerBuffer * s.opts.Format.FrameSize())
}

// Handler returns the ingest endpoint delivering to handle
func (s *WebSocketSource) Handler(handle Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.active.CompareAndSwap(false, true) {
			http.Error(w, "a producer is already connected", http.StatusConflict)
			return
		}
		defer s.active.Store(false)

		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.opts.Logger.Warn("WebSocket upgrade failed", "err", err)
			return
		}
		defer conn.Close()
		conn.SetReadLimit(s.MaxMessageSize())

		s.opts.Logger.Info("Producer connected", "remote", conn.RemoteAddr().String())
		s.consume(conn, handle)
		s.opts.Logger.Info("Producer disconnected", "remote", conn.RemoteAddr().String())
	})
}

func (s *WebSocketSource) consume(conn *websocket.Conn, handle Handler) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if errors.Is(err, websocket.ErrReadLimit) {
				s.opts.Logger.Warn("Producer message exceeds one datagram", "limit", s.MaxMessageSize())
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.opts.Logger.Warn("WebSocket error", "err", err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			s.opts.Logger.Debug("Ignoring non-binary message", "type", msgType)
			continue
		}

		s.handleMu.Lock()
		err = deliver(handle, data, s.opts.Logger)
		s.handleMu.Unlock()

		if errors.Is(err, ErrStop) {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stopping")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}
	}
}

// Run serves the ingest endpoint until ctx is done
func (s *WebSocketSource) Run(ctx context.Context, handle Handler) error {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.opts.Listen, err)
	}

	mux := http.NewServeMux()
	mux.Handle(IngestPath, s.Handler(handle))
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.serverMu.Lock()
	s.server = server
	s.serverMu.Unlock()

	s.opts.Logger.Info("WebSocket ingest listening", "addr", ln.Addr().String(), "path", IngestPath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("ingest shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("ingest server: %w", err)
	}
}

// Describe returns the listen address
func (s *WebSocketSource) Describe() string {
	return "websocket " + s.opts.Listen + IngestPath
}

// Close stops the ingest server if it is running
func (s *WebSocketSource) Close() error {
	s.serverMu.Lock()
	defer s.serverMu.Unlock()
	if s.server == nil {
		return nil
	}
	return s.server.Close()
}
