// File: junction/datagrams.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package junction

import (
	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/endpoint"
	"github.com/momentics/hioload-io/port"
	"github.com/momentics/hioload-io/resource"
)

// Datagrams transfers whole messages through a slot array. One dispatch
// cycle moves slots until the array is exhausted or the kernel blocks; a
// mid-array block leaves the remaining slots attached for the next cycle.
type Datagrams struct {
	chanBase

	res   *resource.DatagramArray
	fill  int
	winLo int
	winHi int
}

// Acquire attaches a datagram slot array. Output slots must carry a
// destination endpoint; a slot with zero recorded length transmits its
// whole payload space. Input overwrites each slot's endpoint and length
// with the received message's source and size.
func (d *Datagrams) Acquire(res *resource.DatagramArray) error {
	if err := d.acquire(); err != nil {
		return err
	}
	d.res = res
	d.fill = 0
	d.winLo, d.winHi = 0, 0
	d.attach()
	if res.Count() == 0 {
		d.exhausted = true
	}
	return nil
}

// Resource returns the attached slot array.
func (d *Datagrams) Resource() *resource.DatagramArray { return d.res }

// Filled returns the count of slots transferred so far.
func (d *Datagrams) Filled() int { return d.fill }

// Window returns the slot range moved by the most recent dispatch.
func (d *Datagrams) Window() (lo, hi int) { return d.winLo, d.winHi }

func (d *Datagrams) detach() {
	d.res = nil
	d.fill = 0
	d.winLo, d.winHi = 0, 0
}

func (d *Datagrams) perform() {
	d.winLo, d.winHi = d.fill, d.fill
	for d.pending() {
		var io port.IO
		if d.pol == api.Input {
			io = d.receiveSlot()
		} else {
			io = d.sendSlot()
		}
		switch io {
		case port.IODone:
			d.fill++
			d.winHi = d.fill
			if d.fill == d.res.Count() {
				d.exhausted = true
			}
		case port.IOBlock:
			d.kready = false
			return
		case port.IOFail:
			d.Terminate()
			return
		}
	}
}

func (d *Datagrams) receiveSlot() port.IO {
	n, sa, io := d.p.ReceiveFrom(d.res.Payload(d.fill))
	if io != port.IODone {
		return io
	}
	d.res.SetLength(d.fill, n)
	if ap, ok := endpoint.AddrPort(sa); ok {
		d.res.SetEndpoint(d.fill, ap)
	}
	return port.IODone
}

func (d *Datagrams) sendSlot() port.IO {
	b := d.res.Payload(d.fill)
	if n := d.res.Length(d.fill); n > 0 {
		b = b[:n]
	}
	_, io := d.p.SendTo(b, endpoint.Sockaddr(d.res.Endpoint(d.fill)))
	return io
}
