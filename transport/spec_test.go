// File: transport/spec_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package transport

import "testing"

func TestParseForms(t *testing.T) {
	cases := []struct {
		spec string
		want Request
	}{
		{"octets://ip4", Request{Octets, IP4, "tcp", ""}},
		{"octets://ip6", Request{Octets, IP6, "tcp", ""}},
		{"octets://ip4:tcp", Request{Octets, IP4, "tcp", ""}},
		{"octets://ip4:udp", Request{Octets, IP4, "udp", ""}},
		{"octets://ip6:udp", Request{Octets, IP6, "udp", ""}},
		{"octets://spawn/unidirectional", Request{Octets, Spawn, "", Unidirectional}},
		{"octets://spawn/bidirectional", Request{Octets, Spawn, "", Bidirectional}},
		{"octets://acquire/input", Request{Octets, Acquire, "", Input}},
		{"octets://acquire/output", Request{Octets, Acquire, "", Output}},
		{"octets://acquire/socket", Request{Octets, Acquire, "", Socket}},
		{"octets://file/read", Request{Octets, File, "", Read}},
		{"octets://file/overwrite", Request{Octets, File, "", Overwrite}},
		{"sockets://ip4", Request{Sockets, IP4, "", ""}},
		{"sockets://ip6", Request{Sockets, IP6, "", ""}},
		{"sockets://acquire", Request{Sockets, Acquire, "", Socket}},
		{"sockets://acquire/socket", Request{Sockets, Acquire, "", Socket}},
		{"datagrams://ip4", Request{Datagrams, IP4, "udp", ""}},
		{"datagrams://ip6", Request{Datagrams, IP6, "udp", ""}},
		{"datagrams://ip4:udp", Request{Datagrams, IP4, "udp", ""}},
		{"datagrams://ip6:udp", Request{Datagrams, IP6, "udp", ""}},
		{"ports://spawn/bidirectional", Request{Ports, Spawn, "", Bidirectional}},
		{"ports://acquire/socket", Request{Ports, Acquire, "", Socket}},
	}
	for _, c := range cases {
		got, err := Parse(c.spec)
		if err != nil {
			t.Errorf("Parse(%q): %v", c.spec, err)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %+v, want %+v", c.spec, got, c.want)
		}
	}
}

func TestParseRejects(t *testing.T) {
	bad := []string{
		"",
		"octets",
		"octets://",
		"octets://ip5",
		"octets://ip4:sctp",
		"octets://spawn",
		"octets://file/append",
		"sockets://spawn/bidirectional",
		"sockets://ip4:udp",
		"datagrams://ip4:tcp",
		"datagrams://spawn/unidirectional",
		"ports://ip4",
		"frames://ip4",
	}
	for _, spec := range bad {
		if _, err := Parse(spec); err == nil {
			t.Errorf("Parse(%q) accepted", spec)
		}
	}
}

func TestTupleFormBindVariant(t *testing.T) {
	r := Request{Octets, IP4, "tcp", Bind}
	if !validForms[r] {
		t.Fatal("tcp bind variant must be a valid structured request")
	}
	if got := r.String(); got != "octets://ip4/bind" {
		t.Fatalf("String() = %q", got)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, spec := range []string{
		"octets://ip4",
		"octets://ip6:udp",
		"octets://spawn/bidirectional",
		"sockets://ip4",
		"datagrams://ip6",
		"datagrams://ip4:udp",
		"ports://acquire/socket",
	} {
		r, err := Parse(spec)
		if err != nil {
			t.Fatalf("Parse(%q): %v", spec, err)
		}
		back, err := Parse(r.String())
		if err != nil {
			t.Fatalf("reparse %q: %v", r.String(), err)
		}
		if back != r {
			t.Errorf("round trip %q -> %+v -> %+v", spec, r, back)
		}
	}
}
