// File: endpoint/endpoint.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package endpoint converts between netip address/port pairs and the raw
// sockaddr forms consumed by socket calls. Datagram slots and channel
// endpoint queries speak netip.AddrPort; only this package touches the
// wire representation.
package endpoint

import (
	"net/netip"

	"golang.org/x/sys/unix"
)

// Domain returns the protocol family for the address.
func Domain(ap netip.AddrPort) int {
	if ap.Addr().Is4() || ap.Addr().Is4In6() {
		return unix.AF_INET
	}
	return unix.AF_INET6
}

// Sockaddr converts an address/port pair to the form bind, connect and
// sendto accept.
func Sockaddr(ap netip.AddrPort) unix.Sockaddr {
	addr := ap.Addr().Unmap()
	if addr.Is4() {
		sa := &unix.SockaddrInet4{Port: int(ap.Port())}
		sa.Addr = addr.As4()
		return sa
	}
	sa := &unix.SockaddrInet6{Port: int(ap.Port())}
	sa.Addr = addr.As16()
	return sa
}

// AddrPort converts a kernel-reported sockaddr back to an address/port
// pair. The second result is false for address families this library does
// not transfer datagrams over.
func AddrPort(sa unix.Sockaddr) (netip.AddrPort, bool) {
	switch a := sa.(type) {
	case *unix.SockaddrInet4:
		return netip.AddrPortFrom(netip.AddrFrom4(a.Addr), uint16(a.Port)), true
	case *unix.SockaddrInet6:
		return netip.AddrPortFrom(netip.AddrFrom16(a.Addr).Unmap(), uint16(a.Port)), true
	default:
		return netip.AddrPort{}, false
	}
}
