// File: junction/poller_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

//go:build linux

package junction

import (
	"time"

	"github.com/momentics/hioload-io/kcall"
	"github.com/momentics/hioload-io/port"
	"golang.org/x/sys/unix"
)

// epollPoller drives an epoll instance. Descriptors are armed
// level-triggered; wait pre-emption goes through an eventfd registered in
// the same instance.
type epollPoller struct {
	p      *port.Port
	wakeFD int
	events []unix.EpollEvent
	out    []Event
}

func newPoller(p *port.Port, size int) Poller {
	ep := &epollPoller{
		p:      p,
		wakeFD: port.Invalid,
		events: make([]unix.EpollEvent, size),
	}

	p.Demand(kcall.Create, func() unix.Errno {
		fd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
		if err != nil {
			return errnoOf(err)
		}
		p.FD = fd
		return 0
	})
	p.Kind = port.KindQueue
	if !p.OK() {
		return ep
	}

	p.Demand(kcall.Force, func() unix.Errno {
		fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
		if err != nil {
			return errnoOf(err)
		}
		ep.wakeFD = fd
		return 0
	})
	if ep.wakeFD != port.Invalid {
		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(ep.wakeFD)}
		if err := unix.EpollCtl(p.FD, unix.EPOLL_CTL_ADD, ep.wakeFD, &ev); err != nil {
			p.SetError(errnoOf(err), kcall.Create)
		}
	}
	return ep
}

func (ep *epollPoller) Arm(fd int, read, write, known bool) bool {
	if ep.p.FD == port.Invalid {
		return false
	}
	ev := unix.EpollEvent{Fd: int32(fd), Events: unix.EPOLLRDHUP}
	if read {
		ev.Events |= unix.EPOLLIN
	}
	if write {
		ev.Events |= unix.EPOLLOUT
	}

	op := unix.EPOLL_CTL_ADD
	if known {
		op = unix.EPOLL_CTL_MOD
	}
	err := unix.EpollCtl(ep.p.FD, op, fd, &ev)
	switch err {
	case unix.EEXIST:
		err = unix.EpollCtl(ep.p.FD, unix.EPOLL_CTL_MOD, fd, &ev)
	case unix.ENOENT:
		err = unix.EpollCtl(ep.p.FD, unix.EPOLL_CTL_ADD, fd, &ev)
	}
	// EPERM means epoll cannot watch this kind of descriptor (regular
	// files); the caller falls back to treating it as always ready.
	return err == nil
}

func (ep *epollPoller) Disarm(fd int) {
	if ep.p.FD == port.Invalid {
		return
	}
	_ = unix.EpollCtl(ep.p.FD, unix.EPOLL_CTL_DEL, fd, nil)
}

func (ep *epollPoller) Collect(block bool) []Event {
	ep.out = ep.out[:0]
	if ep.p.FD == port.Invalid {
		return nil
	}
	timeout := 0
	if block {
		timeout = int(blockingWait / time.Millisecond)
	}

	var n int
	ok := ep.p.Demand(kcall.Collect, func() unix.Errno {
		var err error
		n, err = unix.EpollWait(ep.p.FD, ep.events, timeout)
		return errnoOf(err)
	})
	if !ok {
		return nil
	}

	for i := 0; i < n; i++ {
		ev := ep.events[i]
		if int(ev.Fd) == ep.wakeFD {
			ep.drainWake()
			continue
		}
		ep.out = append(ep.out, Event{
			FD:    int(ev.Fd),
			Read:  ev.Events&(unix.EPOLLIN|unix.EPOLLPRI) != 0,
			Write: ev.Events&unix.EPOLLOUT != 0,
			HUP:   ev.Events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0,
			Err:   ev.Events&unix.EPOLLERR != 0,
		})
	}
	return ep.out
}

func (ep *epollPoller) drainWake() {
	var buf [8]byte
	for {
		if _, err := unix.Read(ep.wakeFD, buf[:]); err != unix.EINTR {
			return
		}
	}
}

func (ep *epollPoller) Wake() {
	if ep.wakeFD == port.Invalid {
		return
	}
	one := [8]byte{0: 1}
	for {
		if _, err := unix.Write(ep.wakeFD, one[:]); err != unix.EINTR {
			return
		}
	}
}

func (ep *epollPoller) Close() {
	if ep.wakeFD != port.Invalid {
		_ = unix.Close(ep.wakeFD)
		ep.wakeFD = port.Invalid
	}
	ep.p.Shatter()
}
