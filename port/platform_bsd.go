//go:build darwin || dragonfly || freebsd

// File: port/platform_bsd.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package port

import (
	"github.com/momentics/hioload-io/kcall"
	"golang.org/x/sys/unix"
)

const (
	sendFlags = 0
	recvFlags = 0
)

// SetNoSigpipe sets SO_NOSIGPIPE on sockets so a peer reset surfaces as
// EPIPE instead of a signal. Non-socket descriptors record a no-op.
func (p *Port) SetNoSigpipe() bool {
	return p.Demand(kcall.NoSigpipe, func() unix.Errno {
		if p.Kind != KindSocket {
			return 0
		}
		return errnoOf(unix.SetsockoptInt(p.FD, unix.SOL_SOCKET, unix.SO_NOSIGPIPE, 1))
	})
}

func acceptNonblock(fd int) (int, unix.Errno) {
	nfd, _, err := unix.Accept(fd)
	if err != nil {
		return 0, errnoOf(err)
	}
	unix.CloseOnExec(nfd)
	if err := unix.SetNonblock(nfd, true); err != nil {
		unix.Close(nfd)
		return 0, errnoOf(err)
	}
	return nfd, 0
}
