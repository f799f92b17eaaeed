// File: port/io.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Transfer-class operations: one wrapper per transfer unit. Each performs
// a single non-blocking kernel call under the Transfer retry loop; the
// channel layer decides how many calls one dispatch cycle may issue.

package port

import (
	"github.com/momentics/hioload-io/kcall"
	"golang.org/x/sys/unix"
)

// ReadBytes reads into b. A zero count with IODone on a non-empty buffer
// is end-of-stream; the channel layer terminates on it.
func (p *Port) ReadBytes(b []byte) (int, IO) {
	return p.Transfer(kcall.Read, func() (int, unix.Errno) {
		n, err := unix.Read(p.FD, b)
		if err != nil {
			return 0, errnoOf(err)
		}
		return n, 0
	})
}

// WriteBytes writes from b, returning the accepted prefix length.
func (p *Port) WriteBytes(b []byte) (int, IO) {
	return p.Transfer(kcall.Write, func() (int, unix.Errno) {
		n, err := unix.Write(p.FD, b)
		if err != nil {
			return 0, errnoOf(err)
		}
		return n, 0
	})
}

// AcceptSocket accepts one pending connection, returning a descriptor
// already in non-blocking close-on-exec mode.
func (p *Port) AcceptSocket() (int, IO) {
	return p.Transfer(kcall.Accept, func() (int, unix.Errno) {
		return acceptNonblock(p.FD)
	})
}

// ReceiveFrom receives one datagram into b.
func (p *Port) ReceiveFrom(b []byte) (int, unix.Sockaddr, IO) {
	var from unix.Sockaddr
	n, io := p.Transfer(kcall.RecvFrom, func() (int, unix.Errno) {
		n, sa, err := unix.Recvfrom(p.FD, b, 0)
		if err != nil {
			return 0, errnoOf(err)
		}
		from = sa
		return n, 0
	})
	return n, from, io
}

// SendTo sends one datagram from b to the given endpoint.
func (p *Port) SendTo(b []byte, sa unix.Sockaddr) (int, IO) {
	return p.Transfer(kcall.SendTo, func() (int, unix.Errno) {
		if err := unix.Sendto(p.FD, b, sendFlags, sa); err != nil {
			return 0, errnoOf(err)
		}
		return len(b), 0
	})
}

// SendFD transmits one descriptor over a unix-domain socket with a single
// ancillary byte.
func (p *Port) SendFD(fd int) IO {
	rights := unix.UnixRights(fd)
	_, io := p.Transfer(kcall.SendMsg, func() (int, unix.Errno) {
		n, err := unix.SendmsgN(p.FD, []byte{0}, rights, nil, sendFlags)
		if err != nil {
			return 0, errnoOf(err)
		}
		return n, 0
	})
	return io
}

// ReceiveFD receives one descriptor from a unix-domain socket. A zero
// count with no descriptor is end-of-stream.
func (p *Port) ReceiveFD() (int, bool, IO) {
	var payload [1]byte
	oob := make([]byte, unix.CmsgSpace(4))
	received := Invalid
	eof := false

	_, io := p.Transfer(kcall.RecvMsg, func() (int, unix.Errno) {
		n, oobn, _, _, err := unix.Recvmsg(p.FD, payload[:], oob, recvFlags)
		if err != nil {
			return 0, errnoOf(err)
		}
		if n == 0 && oobn == 0 {
			eof = true
			return 0, 0
		}
		if oobn > 0 {
			msgs, perr := unix.ParseSocketControlMessage(oob[:oobn])
			if perr == nil {
				for _, m := range msgs {
					fds, ferr := unix.ParseUnixRights(&m)
					if ferr == nil && len(fds) > 0 {
						received = fds[0]
						break
					}
				}
			}
		}
		return n, 0
	})
	if io != IODone || eof {
		return Invalid, eof, io
	}
	return received, false, io
}
