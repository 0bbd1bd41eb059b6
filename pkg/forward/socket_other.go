//go:build !unix

// ABOUTME: Portable datagram socket backend for non-POSIX platforms
// ABOUTME: Wraps an unbound net.UDPConn
package forward

import (
	"errors"
	"net"
)

type netSocket struct {
	conn *net.UDPConn
	dst  *net.UDPAddr
}

// OpenSystemSocket creates an unbound UDP socket for dst's family
func OpenSystemSocket(dst Destination) (Socket, error) {
	network := "udp4"
	if dst.Family() == IPv6 {
		network = "udp6"
	}
	conn, err := net.ListenUDP(network, nil)
	if err != nil {
		return nil, err
	}
	return &netSocket{conn: conn, dst: net.UDPAddrFromAddrPort(dst.AddrPort())}, nil
}

func (s *netSocket) SetReuseAddr() error {
	return errors.ErrUnsupported
}

// SetNonblock is a no-op: the runtime already drives the socket non-blocking.
func (s *netSocket) SetNonblock() error {
	return nil
}

func (s *netSocket) Send(p []byte) (int, error) {
	return s.conn.WriteToUDP(p, s.dst)
}

func (s *netSocket) Close() error {
	return s.conn.Close()
}
