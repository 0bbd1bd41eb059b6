// ABOUTME: Error types for the datagram forwarder
// ABOUTME: Socket setup failures, send failures and state violations
package forward

import (
	"errors"
	"fmt"
	"syscall"
)

var (
	// ErrNotConfigured is returned by Open before a destination is set
	ErrNotConfigured = errors.New("forwarder: destination not configured")
	// ErrAlreadyOpen is returned when Open or Configure is called on an open forwarder
	ErrAlreadyOpen = errors.New("forwarder: already open")
	// ErrNotOpen is returned by Send before Open succeeds
	ErrNotOpen = errors.New("forwarder: not open")
	// ErrFailed is returned by every operation after a fatal Open failure
	ErrFailed = errors.New("forwarder: failed")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("forwarder: closed")
	// ErrShortWrite is wrapped by SendError when fewer bytes than requested were sent
	ErrShortWrite = errors.New("short write")
)

// SocketError is a fatal failure while creating or configuring the socket
type SocketError struct {
	Op  string
	Err error
}

func (e *SocketError) Error() string {
	return fmt.Sprintf("socket %s: %v", e.Op, e.Err)
}

func (e *SocketError) Unwrap() error { return e.Err }

// Errno returns the OS error number, or 0 if there is none
func (e *SocketError) Errno() syscall.Errno { return errnoOf(e.Err) }

// SendError reports a failed or partial datagram send
type SendError struct {
	Length int
	Sent   int
	Err    error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("send %d bytes (sent %d): %v", e.Length, e.Sent, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Errno returns the OS error number, or 0 if there is none
func (e *SendError) Errno() syscall.Errno { return errnoOf(e.Err) }

// WouldBlock reports whether the send was dropped because the socket buffer was full
func (e *SendError) WouldBlock() bool {
	return errors.Is(e.Err, syscall.EAGAIN) || errors.Is(e.Err, syscall.EWOULDBLOCK)
}

func errnoOf(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return 0
}
