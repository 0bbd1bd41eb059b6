//go:build unix

// ABOUTME: Raw POSIX datagram socket backend
// ABOUTME: Sends with sendto(2) directly so a full buffer returns EAGAIN instead of parking
package forward

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

type unixSocket struct {
	fd int
	sa unix.Sockaddr
}

// OpenSystemSocket creates an unbound SOCK_DGRAM socket for dst's family
func OpenSystemSocket(dst Destination) (Socket, error) {
	sa, domain, err := sockaddr(dst)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(domain, unix.SOCK_DGRAM, 0)
	if err != nil {
		return nil, os.NewSyscallError("socket", err)
	}
	unix.CloseOnExec(fd)

	return &unixSocket{fd: fd, sa: sa}, nil
}

func sockaddr(dst Destination) (unix.Sockaddr, int, error) {
	switch dst.Family() {
	case IPv4:
		return &unix.SockaddrInet4{Port: int(dst.Port()), Addr: dst.Addr().As4()}, unix.AF_INET, nil
	case IPv6:
		return &unix.SockaddrInet6{
			Port:   int(dst.Port()),
			Addr:   dst.Addr().As16(),
			ZoneId: uint32(dst.ZoneIndex()),
		}, unix.AF_INET6, nil
	default:
		return nil, 0, fmt.Errorf("unsupported address family for %s", dst)
	}
}

func (s *unixSocket) SetReuseAddr() error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(s.fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1))
}

func (s *unixSocket) SetNonblock() error {
	return os.NewSyscallError("fcntl", unix.SetNonblock(s.fd, true))
}

// Send issues one sendto(2). Datagram sends are all-or-nothing, so success means len(p).
func (s *unixSocket) Send(p []byte) (int, error) {
	if err := unix.Sendto(s.fd, p, 0, s.sa); err != nil {
		return 0, os.NewSyscallError("sendto", err)
	}
	return len(p), nil
}

func (s *unixSocket) Close() error {
	if s.fd < 0 {
		return nil
	}
	err := unix.Close(s.fd)
	s.fd = -1
	return os.NewSyscallError("close", err)
}
