// ABOUTME: Socket abstraction used by the datagram forwarder
// ABOUTME: Lets the OS backend be swapped for fault injection in tests
package forward

// Socket is an unconnected datagram socket bound to one destination
type Socket interface {
	// SetReuseAddr enables SO_REUSEADDR
	SetReuseAddr() error
	// SetNonblock puts the socket into non-blocking mode
	SetNonblock() error
	// Send transmits p as a single datagram without waiting
	Send(p []byte) (int, error)
	// Close releases the socket
	Close() error
}

// SocketFactory creates a socket for the destination's address family
type SocketFactory func(dst Destination) (Socket, error)
