// File: port/ops.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Construction-class operations. Each wrapper is a thin closure over the
// raw call handed to the Demand retry loop; a Port that already carries a
// recorded failure short-circuits every subsequent step.

package port

import (
	"github.com/momentics/hioload-io/kcall"
	"golang.org/x/sys/unix"
)

// Socket creates a socket descriptor on the Port.
func (p *Port) Socket(domain, typ, proto int) bool {
	ok := p.Demand(kcall.Socket, func() unix.Errno {
		fd, err := unix.Socket(domain, typ|unix.SOCK_CLOEXEC, proto)
		if err != nil {
			return errnoOf(err)
		}
		p.FD = fd
		return 0
	})
	if ok {
		p.Kind = KindSocket
	}
	return ok
}

// Bind binds the socket to the given address.
func (p *Port) Bind(sa unix.Sockaddr) bool {
	return p.Demand(kcall.Bind, func() unix.Errno {
		return errnoOf(unix.Bind(p.FD, sa))
	})
}

// Listen marks the socket as accepting connections.
func (p *Port) Listen(backlog int) bool {
	return p.Demand(kcall.Listen, func() unix.Errno {
		return errnoOf(unix.Listen(p.FD, backlog))
	})
}

// Relisten re-issues listen to adjust the backlog of an established
// listener. Unlike construction-time Listen a failure is not recorded:
// the socket demonstrated it can listen already.
func (p *Port) Relisten(backlog int) {
	fd := p.FD
	p.Offer(kcall.Listen, func() unix.Errno {
		return errnoOf(unix.Listen(fd, backlog))
	})
}

// Connect starts a connection attempt. On a non-blocking socket an
// in-progress connect counts as success; readiness is reported through
// event collection.
func (p *Port) Connect(sa unix.Sockaddr) bool {
	return p.Demand(kcall.Connect, func() unix.Errno {
		switch e := errnoOf(unix.Connect(p.FD, sa)); e {
		case unix.EINPROGRESS, unix.EISCONN, unix.EALREADY:
			return 0
		default:
			return e
		}
	})
}

// OpenFile opens a filesystem path on the Port. The path must already be
// resolved; no traversal or link semantics are applied here.
func (p *Port) OpenFile(path string, flags int, mode uint32) bool {
	return p.Demand(kcall.Open, func() unix.Errno {
		fd, err := unix.Open(path, flags|unix.O_CLOEXEC, mode)
		if err != nil {
			return errnoOf(err)
		}
		p.FD = fd
		return 0
	})
}

// Identify classifies the descriptor via fstat and records its Kind.
// An unidentifiable descriptor records the failing call so the wrapping
// channel terminates with the classification error.
func (p *Port) Identify() bool {
	var st unix.Stat_t
	ok := p.Demand(kcall.Identify, func() unix.Errno {
		return errnoOf(unix.Fstat(p.FD, &st))
	})
	if !ok {
		p.Kind = KindBad
		return false
	}
	switch st.Mode & unix.S_IFMT {
	case unix.S_IFSOCK:
		p.Kind = KindSocket
	case unix.S_IFIFO:
		p.Kind = KindPipe
	case unix.S_IFREG:
		p.Kind = KindFile
	case unix.S_IFCHR:
		p.Kind = KindTTY
	case unix.S_IFBLK:
		p.Kind = KindDevice
	default:
		p.Kind = KindUnknown
	}
	return true
}

// SetNoBlocking puts the descriptor in non-blocking mode. Every transfer
// call thereafter is non-blocking by construction.
func (p *Port) SetNoBlocking() bool {
	return p.Demand(kcall.NoBlocking, func() unix.Errno {
		flags, err := unix.FcntlInt(uintptr(p.FD), unix.F_GETFL, 0)
		if err != nil {
			return errnoOf(err)
		}
		_, err = unix.FcntlInt(uintptr(p.FD), unix.F_SETFL, flags|unix.O_NONBLOCK)
		return errnoOf(err)
	})
}

// ResizeBuffer adjusts the socket transfer buffer for the given latch
// direction. Abandoning the attempt under interruption records nothing;
// a real refusal records the call but is not fatal.
func (p *Port) ResizeBuffer(latch uint8, size int) {
	if p.Kind != KindSocket || p.FD == Invalid {
		return
	}
	opt := unix.SO_RCVBUF
	if latch == LatchOutput {
		opt = unix.SO_SNDBUF
	}
	fd := p.FD
	p.Offer(kcall.SetOption, func() unix.Errno {
		return errnoOf(unix.SetsockoptInt(fd, unix.SOL_SOCKET, opt, size))
	})
}

// Name returns the locally bound address of the socket.
func (p *Port) Name() (unix.Sockaddr, bool) {
	var sa unix.Sockaddr
	ok := p.Demand(kcall.GetName, func() unix.Errno {
		var err error
		sa, err = unix.Getsockname(p.FD)
		return errnoOf(err)
	})
	return sa, ok
}

// MakePipe creates a pipe, placing the read end on r and the write end on
// w. A failure is recorded on both Ports: the pair is constructed as a
// unit and fails as one.
func MakePipe(r, w *Port) bool {
	var fds [2]int
	ok := r.Demand(kcall.Pipe, func() unix.Errno {
		return errnoOf(unix.Pipe2(fds[:], unix.O_CLOEXEC))
	})
	if !ok {
		w.SetError(r.Error(), kcall.Pipe)
		return false
	}
	r.FD, r.Kind = fds[0], KindPipe
	w.FD, w.Kind = fds[1], KindPipe
	return true
}

// MakeSocketPair creates a connected unix-domain stream pair across two
// Ports. A failure is recorded on both.
func MakeSocketPair(a, b *Port) bool {
	var fds [2]int
	ok := a.Demand(kcall.SocketPair, func() unix.Errno {
		var err error
		fds, err = unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
		return errnoOf(err)
	})
	if !ok {
		b.SetError(a.Error(), kcall.SocketPair)
		return false
	}
	a.FD, a.Kind = fds[0], KindSocket
	b.FD, b.Kind = fds[1], KindSocket
	return true
}
