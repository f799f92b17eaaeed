// File: transport/spec.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package transport parses transport specifications into structured
// requests. A specification names the freight (what a channel transfers),
// the addressing scheme, an optional protocol, and a variant:
//
//	octets://ip4            octets://ip6:udp
//	octets://spawn/unidirectional
//	octets://acquire/input  octets://file/read
//	sockets://ip4           sockets://acquire/socket
//	datagrams://ip4[:udp]   ports://spawn/bidirectional
//
// The structured form (a Request literal, e.g. the tcp-bind variant) is
// accepted anywhere a specification string is.
package transport

import (
	"fmt"
	"strings"
)

// Freight identifies a channel variant's unit of transfer.
type Freight string

const (
	Octets    Freight = "octets"
	Sockets   Freight = "sockets"
	Datagrams Freight = "datagrams"
	Ports     Freight = "ports"
)

// Addressing schemes.
const (
	IP4     = "ip4"
	IP6     = "ip6"
	Spawn   = "spawn"
	Acquire = "acquire"
	File    = "file"
)

// Variants.
const (
	Unidirectional = "unidirectional"
	Bidirectional  = "bidirectional"
	Input          = "input"
	Output         = "output"
	Socket         = "socket"
	Read           = "read"
	Overwrite      = "overwrite"
	Bind           = "bind"
)

// Request is a parsed transport specification.
type Request struct {
	Freight    Freight
	Addressing string
	Protocol   string // "tcp" or "udp"; inet octets default to tcp, inet datagrams to udp
	Variant    string
}

// String renders the request in specification form.
func (r Request) String() string {
	s := fmt.Sprintf("%s://%s", r.Freight, r.Addressing)
	if r.Protocol == "udp" {
		s += ":udp"
	}
	if r.Variant != "" {
		s += "/" + r.Variant
	}
	return s
}

var validForms = map[Request]bool{
	{Octets, IP4, "tcp", ""}:            true,
	{Octets, IP6, "tcp", ""}:            true,
	{Octets, IP4, "udp", ""}:            true,
	{Octets, IP6, "udp", ""}:            true,
	{Octets, IP4, "tcp", Bind}:          true,
	{Octets, IP6, "tcp", Bind}:          true,
	{Octets, Spawn, "", Unidirectional}: true,
	{Octets, Spawn, "", Bidirectional}:  true,
	{Octets, Acquire, "", Input}:        true,
	{Octets, Acquire, "", Output}:       true,
	{Octets, Acquire, "", Socket}:       true,
	{Octets, File, "", Read}:            true,
	{Octets, File, "", Overwrite}:       true,
	{Sockets, IP4, "", ""}:              true,
	{Sockets, IP6, "", ""}:              true,
	{Sockets, Acquire, "", Socket}:      true,
	{Datagrams, IP4, "udp", ""}:         true,
	{Datagrams, IP6, "udp", ""}:         true,
	{Ports, Spawn, "", Bidirectional}:   true,
	{Ports, Acquire, "", Socket}:        true,
}

// Parse converts a specification string into a Request.
func Parse(spec string) (Request, error) {
	scheme, rest, ok := strings.Cut(spec, "://")
	if !ok || rest == "" {
		return Request{}, fmt.Errorf("transport: malformed specification %q", spec)
	}

	var r Request
	r.Freight = Freight(scheme)

	r.Addressing, r.Variant, _ = strings.Cut(rest, "/")
	if addr, proto, cut := strings.Cut(r.Addressing, ":"); cut {
		r.Addressing, r.Protocol = addr, proto
	}

	// Inet octet streams default to tcp, inet datagrams to udp, their
	// only protocol; sockets://acquire defaults to its only variant.
	if r.Freight == Octets && (r.Addressing == IP4 || r.Addressing == IP6) && r.Protocol == "" {
		r.Protocol = "tcp"
	}
	if r.Freight == Datagrams && (r.Addressing == IP4 || r.Addressing == IP6) && r.Protocol == "" {
		r.Protocol = "udp"
	}
	if r.Freight == Sockets && r.Addressing == Acquire && r.Variant == "" {
		r.Variant = Socket
	}

	if !validForms[r] {
		return Request{}, fmt.Errorf("transport: unrecognized specification %q", spec)
	}
	return r, nil
}
