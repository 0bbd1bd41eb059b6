// ABOUTME: Datagram forwarder package
// ABOUTME: Provides Forwarder, Destination and socket backends
// Package forward transmits mono sample buffers to a fixed UDP destination.
//
// A Forwarder moves through Unconfigured → Configured → Open → Failed|Closed.
// Send never waits: the socket is non-blocking and a full send buffer, a
// transport error or a short write is reported as a *SendError without retry
// and without closing the socket. Any failure in Open is terminal; construct
// a new Forwarder to try again.
//
// Example:
//
//	fwd := forward.New(forward.WithLogger(logger))
//	if err := fwd.Configure("192.168.1.20", 5005); err != nil { ... }
//	if err := fwd.Open(); err != nil { ... }
//	defer fwd.Close()
//	err := fwd.Send(samples)
package forward
