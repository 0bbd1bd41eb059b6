// ABOUTME: Destination address parsing for the datagram forwarder
// ABOUTME: Resolves an IP literal and port once into a fixed endpoint
package forward

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
)

// Family is the address family of a destination
type Family int

const (
	IPv4 Family = iota + 1
	IPv6
)

func (f Family) String() string {
	switch f {
	case IPv4:
		return "ipv4"
	case IPv6:
		return "ipv6"
	default:
		return "unknown"
	}
}

// Destination is a resolved datagram endpoint
type Destination struct {
	addr      netip.Addr
	port      uint16
	zoneIndex int
}

// AddressError is returned when a destination cannot be parsed
type AddressError struct {
	Address string
	Err     error
}

func (e *AddressError) Error() string {
	return fmt.Sprintf("invalid destination address %q: %v", e.Address, e.Err)
}

func (e *AddressError) Unwrap() error { return e.Err }

// ParseDestination parses an IPv4 or IPv6 literal (IPv6 may carry a %zone)
// and a port. Host names are not resolved.
func ParseDestination(address string, port uint16) (Destination, error) {
	text := strings.TrimSpace(address)
	text = strings.TrimSuffix(strings.TrimPrefix(text, "["), "]")

	addr, err := netip.ParseAddr(text)
	if err != nil {
		return Destination{}, &AddressError{Address: address, Err: err}
	}
	if addr.Is4In6() && addr.Zone() == "" {
		addr = addr.Unmap()
	}

	d := Destination{addr: addr, port: port}
	if zone := addr.Zone(); zone != "" {
		idx, err := zoneIndex(zone)
		if err != nil {
			return Destination{}, &AddressError{Address: address, Err: err}
		}
		d.zoneIndex = idx
	}
	return d, nil
}

func zoneIndex(zone string) (int, error) {
	if n, err := strconv.Atoi(zone); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative zone index %d", n)
		}
		return n, nil
	}
	iface, err := net.InterfaceByName(zone)
	if err != nil {
		return 0, fmt.Errorf("unknown zone %q: %w", zone, err)
	}
	return iface.Index, nil
}

// Family returns the address family
func (d Destination) Family() Family {
	if !d.addr.IsValid() {
		return 0
	}
	if d.addr.Is4() {
		return IPv4
	}
	return IPv6
}

// Addr returns the destination IP
func (d Destination) Addr() netip.Addr { return d.addr }

// Port returns the destination port
func (d Destination) Port() uint16 { return d.port }

// ZoneIndex returns the IPv6 interface index, or 0
func (d Destination) ZoneIndex() int { return d.zoneIndex }

// AddrPort returns the destination as a netip.AddrPort
func (d Destination) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(d.addr, d.port)
}

// IsZero reports whether d has not been set
func (d Destination) IsZero() bool { return !d.addr.IsValid() }

func (d Destination) String() string {
	if d.IsZero() {
		return "<unset>"
	}
	return d.AddrPort().String()
}
