// File: junction/ports.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package junction

import (
	"github.com/momentics/hioload-io/api"
	"github.com/momentics/hioload-io/port"
)

// Ports transfers descriptors across a unix-domain socket, one ancillary
// message per slot. Input fills the attached slot array with received
// descriptors; output transmits the caller's descriptors in slot order.
// Transmitted descriptors stay owned by the caller.
type Ports struct {
	chanBase

	slots []int
	fill  int
	winLo int
	winHi int
}

// Acquire attaches a descriptor slot array, typically from
// resource.FDSlots. Output slots must hold valid descriptors.
func (t *Ports) Acquire(slots []int) error {
	if err := t.acquire(); err != nil {
		return err
	}
	t.slots = slots
	t.fill = 0
	t.winLo, t.winHi = 0, 0
	t.attach()
	if len(slots) == 0 {
		t.exhausted = true
	}
	return nil
}

// Resource returns the attached slot array.
func (t *Ports) Resource() []int { return t.slots }

// Filled returns the count of slots transferred so far.
func (t *Ports) Filled() int { return t.fill }

// Window returns the slot range moved by the most recent dispatch.
func (t *Ports) Window() (lo, hi int) { return t.winLo, t.winHi }

func (t *Ports) detach() {
	t.slots = nil
	t.fill = 0
	t.winLo, t.winHi = 0, 0
}

func (t *Ports) perform() {
	t.winLo, t.winHi = t.fill, t.fill
	for t.pending() {
		var io port.IO
		if t.pol == api.Input {
			fd, eof, rio := t.p.ReceiveFD()
			if eof {
				t.Terminate()
				return
			}
			if rio == port.IODone {
				if fd == port.Invalid {
					// Peer sent a byte without a descriptor; skip it.
					continue
				}
				t.slots[t.fill] = fd
			}
			io = rio
		} else {
			io = t.p.SendFD(t.slots[t.fill])
		}
		switch io {
		case port.IODone:
			t.fill++
			t.winHi = t.fill
			if t.fill == len(t.slots) {
				t.exhausted = true
			}
		case port.IOBlock:
			t.kready = false
			return
		case port.IOFail:
			t.Terminate()
			return
		}
	}
}
