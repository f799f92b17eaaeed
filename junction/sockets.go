// File: junction/sockets.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package junction

import "github.com/momentics/hioload-io/port"

// Sockets accepts connections from a listening socket. Each transferred
// unit is one accepted descriptor, already non-blocking and close-on-exec,
// deposited into the attached slot array. Always input polarity.
type Sockets struct {
	chanBase

	slots []int
	fill  int
	winLo int
	winHi int
}

// Acquire attaches a descriptor slot array, typically from
// resource.FDSlots. One dispatch cycle accepts until the array fills or
// the kernel has no pending connection.
func (s *Sockets) Acquire(slots []int) error {
	if err := s.acquire(); err != nil {
		return err
	}
	s.slots = slots
	s.fill = 0
	s.winLo, s.winHi = 0, 0
	s.attach()
	if len(slots) == 0 {
		s.exhausted = true
	}
	return nil
}

// Resource returns the attached slot array.
func (s *Sockets) Resource() []int { return s.slots }

// Filled returns the count of slots holding accepted descriptors.
func (s *Sockets) Filled() int { return s.fill }

// Window returns the slot range filled by the most recent dispatch.
func (s *Sockets) Window() (lo, hi int) { return s.winLo, s.winHi }

// ResizeBacklog re-issues listen with a new backlog. The listener keeps
// working with its old backlog when the kernel refuses.
func (s *Sockets) ResizeBacklog(backlog int) {
	if s.terminated {
		return
	}
	s.p.Relisten(backlog)
}

func (s *Sockets) detach() {
	s.slots = nil
	s.fill = 0
	s.winLo, s.winHi = 0, 0
}

func (s *Sockets) perform() {
	s.winLo, s.winHi = s.fill, s.fill
	for s.pending() {
		nfd, io := s.p.AcceptSocket()
		switch io {
		case port.IODone:
			s.slots[s.fill] = nfd
			s.fill++
			s.winHi = s.fill
			if s.fill == len(s.slots) {
				s.exhausted = true
			}
		case port.IOBlock:
			s.kready = false
			return
		case port.IOFail:
			s.Terminate()
			return
		}
	}
}
