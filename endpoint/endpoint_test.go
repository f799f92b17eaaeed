// File: endpoint/endpoint_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package endpoint

import (
	"net/netip"
	"testing"

	"golang.org/x/sys/unix"
)

func TestDomain(t *testing.T) {
	cases := []struct {
		addr string
		want int
	}{
		{"127.0.0.1:80", unix.AF_INET},
		{"[::ffff:10.0.0.1]:80", unix.AF_INET},
		{"[::1]:80", unix.AF_INET6},
		{"[2001:db8::1]:443", unix.AF_INET6},
	}
	for _, c := range cases {
		if got := Domain(netip.MustParseAddrPort(c.addr)); got != c.want {
			t.Errorf("Domain(%s) = %d, want %d", c.addr, got, c.want)
		}
	}
}

func TestSockaddrRoundTrip(t *testing.T) {
	for _, s := range []string{"127.0.0.1:8080", "[2001:db8::2]:53"} {
		ap := netip.MustParseAddrPort(s)
		back, ok := AddrPort(Sockaddr(ap))
		if !ok {
			t.Fatalf("AddrPort rejected the sockaddr for %s", s)
		}
		if back != ap {
			t.Errorf("round trip %s -> %s", ap, back)
		}
	}
}

func TestSockaddrUnmapsV4InV6(t *testing.T) {
	ap := netip.MustParseAddrPort("[::ffff:192.0.2.1]:99")
	sa, ok := Sockaddr(ap).(*unix.SockaddrInet4)
	if !ok {
		t.Fatal("mapped v4 address must use the inet4 sockaddr")
	}
	if sa.Port != 99 {
		t.Fatalf("port = %d, want 99", sa.Port)
	}
}

func TestAddrPortRejectsForeignFamilies(t *testing.T) {
	if _, ok := AddrPort(&unix.SockaddrUnix{Name: "/tmp/x"}); ok {
		t.Fatal("unix sockaddr must be rejected")
	}
	if _, ok := AddrPort(nil); ok {
		t.Fatal("nil sockaddr must be rejected")
	}
}
