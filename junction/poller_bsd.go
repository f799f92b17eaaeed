// File: junction/poller_bsd.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

//go:build darwin || dragonfly || freebsd

package junction

import (
	"github.com/momentics/hioload-io/kcall"
	"github.com/momentics/hioload-io/port"
	"golang.org/x/sys/unix"
)

// wakeIdent is the EVFILT_USER identity used for wait pre-emption.
const wakeIdent = 0

// kqueuePoller drives a kqueue instance. Filters are level-triggered;
// wait pre-emption triggers a user filter registered at construction.
type kqueuePoller struct {
	p      *port.Port
	events []unix.Kevent_t
	out    []Event
}

func newPoller(p *port.Port, size int) Poller {
	kp := &kqueuePoller{
		p:      p,
		events: make([]unix.Kevent_t, size),
	}

	p.Demand(kcall.Create, func() unix.Errno {
		fd, err := unix.Kqueue()
		if err != nil {
			return errnoOf(err)
		}
		unix.CloseOnExec(fd)
		p.FD = fd
		return 0
	})
	p.Kind = port.KindQueue
	if !p.OK() {
		return kp
	}

	var user unix.Kevent_t
	unix.SetKevent(&user, wakeIdent, unix.EVFILT_USER, unix.EV_ADD|unix.EV_CLEAR)
	p.Demand(kcall.Force, func() unix.Errno {
		_, err := unix.Kevent(p.FD, []unix.Kevent_t{user}, nil, nil)
		return errnoOf(err)
	})
	return kp
}

// submit pushes filter changes. Change submission must finish, so
// interruption retries without bound.
func (kp *kqueuePoller) submit(changes []unix.Kevent_t) error {
	for {
		_, err := unix.Kevent(kp.p.FD, changes, nil, nil)
		if err == unix.EINTR {
			continue
		}
		return err
	}
}

func (kp *kqueuePoller) Arm(fd int, read, write, known bool) bool {
	if kp.p.FD == port.Invalid {
		return false
	}
	flag := func(on bool) int {
		if on {
			return unix.EV_ADD
		}
		return unix.EV_DELETE
	}
	var changes []unix.Kevent_t
	// Deleting a filter that was never registered is an error, so an
	// unknown descriptor only submits additions.
	if read || known {
		var ev unix.Kevent_t
		unix.SetKevent(&ev, fd, unix.EVFILT_READ, flag(read))
		changes = append(changes, ev)
	}
	if write || known {
		var ev unix.Kevent_t
		unix.SetKevent(&ev, fd, unix.EVFILT_WRITE, flag(write))
		changes = append(changes, ev)
	}
	if len(changes) == 0 {
		return true
	}
	err := kp.submit(changes)
	if err == unix.ENOENT {
		err = nil
	}
	return err == nil
}

func (kp *kqueuePoller) Disarm(fd int) {
	if kp.p.FD == port.Invalid {
		return
	}
	var rd, wr unix.Kevent_t
	unix.SetKevent(&rd, fd, unix.EVFILT_READ, unix.EV_DELETE)
	unix.SetKevent(&wr, fd, unix.EVFILT_WRITE, unix.EV_DELETE)
	_ = kp.submit([]unix.Kevent_t{rd, wr})
}

func (kp *kqueuePoller) Collect(block bool) []Event {
	kp.out = kp.out[:0]
	if kp.p.FD == port.Invalid {
		return nil
	}
	var wait int64
	if block {
		wait = blockingWait.Nanoseconds()
	}
	ts := unix.NsecToTimespec(wait)

	var n int
	ok := kp.p.Demand(kcall.Collect, func() unix.Errno {
		var err error
		n, err = unix.Kevent(kp.p.FD, nil, kp.events, &ts)
		return errnoOf(err)
	})
	if !ok {
		return nil
	}

	for i := 0; i < n; i++ {
		ev := kp.events[i]
		if int(ev.Filter) == unix.EVFILT_USER {
			continue
		}
		e := Event{
			FD:  int(ev.Ident),
			HUP: int(ev.Flags)&unix.EV_EOF != 0,
			Err: int(ev.Flags)&unix.EV_ERROR != 0,
		}
		switch int(ev.Filter) {
		case unix.EVFILT_READ:
			e.Read = true
		case unix.EVFILT_WRITE:
			e.Write = true
		}
		kp.out = append(kp.out, e)
	}
	return kp.out
}

func (kp *kqueuePoller) Wake() {
	if kp.p.FD == port.Invalid {
		return
	}
	var trigger unix.Kevent_t
	unix.SetKevent(&trigger, wakeIdent, unix.EVFILT_USER, 0)
	trigger.Fflags = unix.NOTE_TRIGGER
	for {
		_, err := unix.Kevent(kp.p.FD, []unix.Kevent_t{trigger}, nil, nil)
		if err != unix.EINTR {
			return
		}
	}
}

func (kp *kqueuePoller) Close() {
	kp.p.Shatter()
}
