// File: junction/octets.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package junction

import (
	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/port"
)

// Octets transfers a byte stream. One dispatch cycle performs at most one
// kernel call, so a single channel cannot starve the rest of the registry.
type Octets struct {
	chanBase

	buf   []byte
	off   int
	winLo int
	winHi int
}

// Acquire attaches a caller-owned byte buffer. Input fills it, output
// drains it; the channel is exhausted when the whole buffer transferred.
func (o *Octets) Acquire(b []byte) error {
	if err := o.acquire(); err != nil {
		return err
	}
	o.buf = b
	o.off = 0
	o.winLo, o.winHi = 0, 0
	o.attach()
	if len(b) == 0 {
		o.exhausted = true
	}
	return nil
}

// Resource returns the attached buffer.
func (o *Octets) Resource() []byte { return o.buf }

// Transferred returns the byte count moved from the attached buffer so far.
func (o *Octets) Transferred() int { return o.off }

// Window returns the buffer segment moved by the most recent dispatch.
func (o *Octets) Window() []byte { return o.buf[o.winLo:o.winHi] }

// ResizeKernelBuffer requests a new kernel transfer buffer size for this
// direction of the socket. Refusal is recorded but not fatal; abandonment
// under interruption is silent.
func (o *Octets) ResizeKernelBuffer(size int) {
	if o.terminated {
		return
	}
	o.p.ResizeBuffer(latchBit(o.pol), size)
}

func (o *Octets) detach() {
	o.buf = nil
	o.off = 0
	o.winLo, o.winHi = 0, 0
}

func (o *Octets) perform() {
	o.winLo, o.winHi = o.off, o.off
	if !o.pending() {
		return
	}

	var n int
	var io port.IO
	if o.pol == api.Input {
		n, io = o.p.ReadBytes(o.buf[o.off:])
	} else {
		n, io = o.p.WriteBytes(o.buf[o.off:])
	}

	switch io {
	case port.IODone:
		if n == 0 && o.pol == api.Input {
			// Zero-length read is end-of-stream.
			o.Terminate()
			return
		}
		o.off += n
		o.winHi = o.off
		if o.off == len(o.buf) {
			o.exhausted = true
		}
	case port.IOBlock:
		o.kready = false
	case port.IOFail:
		o.Terminate()
	}
}
