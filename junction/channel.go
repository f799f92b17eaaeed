// File: junction/channel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package junction

import (
	"net/netip"

	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/endpoint"
	"github.com/momentics/hioload-io/port"
)

// Channel is one registered endpoint of a Junction. Every implementation
// lives in this package; callers outside it see the api.Channel subset.
type Channel interface {
	api.Channel

	// perform runs the channel's transfer step for one dispatch cycle.
	perform()

	// detach drops the attached resource.
	detach()

	// base exposes the shared state machine.
	base() *chanBase
}

// chanBase is the state shared by every channel variant. One bit of state
// per lifecycle concern; the Junction cycle reads and clears the readiness
// bits, the variant's perform step advances the resource bits.
type chanBase struct {
	j     *Junction
	p     *port.Port
	pol   api.Polarity
	self  Channel
	regFD int // descriptor at registration time; p.FD resets on close

	attached   bool // a resource is attached
	exhausted  bool // the attached resource is fully consumed or filled
	terminated bool
	noted      bool // termination notice not yet delivered
	kready     bool // kernel readiness observed this cycle
	forced     bool // user requested an empty transfer event
}

func (c *chanBase) init(j *Junction, p *port.Port, pol api.Polarity, self Channel) {
	c.j = j
	c.p = p
	c.pol = pol
	c.self = self
	c.exhausted = true
	p.Latch(latchBit(pol))
}

func latchBit(pol api.Polarity) uint8 {
	if pol == api.Input {
		return port.LatchInput
	}
	return port.LatchOutput
}

// Port returns the owning Port.
func (c *chanBase) Port() *port.Port { return c.p }

// Polarity reports the transfer direction.
func (c *chanBase) Polarity() api.Polarity { return c.pol }

// Exhausted reports whether the attached resource was fully transferred.
func (c *chanBase) Exhausted() bool { return c.exhausted }

// Terminated reports whether the channel is permanently closed.
func (c *chanBase) Terminated() bool { return c.terminated }

// Force queues an empty transfer event for the next dispatch cycle and
// wakes a blocked collection.
func (c *chanBase) Force() {
	if c.terminated {
		return
	}
	c.forced = true
	if c.j != nil {
		c.j.Force()
	}
}

// Terminate closes the channel. The resource is detached, the latch
// released (closing or shutting down the descriptor as latches dictate),
// and a termination notice queued for the next transfer window.
func (c *chanBase) Terminate() {
	if c.terminated {
		return
	}
	c.terminated = true
	c.noted = true
	if c.self != nil {
		c.self.detach()
	}
	c.attached = false
	c.exhausted = true
	c.p.Unlatch(latchBit(c.pol))
}

// Endpoint reports the socket's locally bound address, when it has one.
func (c *chanBase) Endpoint() (netip.AddrPort, bool) {
	if c.terminated || c.p.Kind != port.KindSocket || !c.p.OK() {
		return netip.AddrPort{}, false
	}
	sa, ok := c.p.Name()
	if !ok {
		return netip.AddrPort{}, false
	}
	return endpoint.AddrPort(sa)
}

// acquire is the shared attach guard: a terminated channel refuses, and so
// does one whose current resource is not exhausted.
func (c *chanBase) acquire() error {
	if c.terminated {
		return api.ErrTerminated
	}
	if c.attached && !c.exhausted {
		return api.ErrResourcePresent
	}
	return nil
}

func (c *chanBase) attach() {
	c.attached = true
	c.exhausted = false
}

// pending reports whether the channel has transfer work for the kernel.
func (c *chanBase) pending() bool {
	return !c.terminated && c.attached && !c.exhausted
}

func (c *chanBase) base() *chanBase { return c }
