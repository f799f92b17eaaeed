//go:build linux

// File: port/platform_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux has no descriptor-level SIGPIPE suppression; sends carry
// MSG_NOSIGNAL instead, so the no-SIGPIPE setup step is a recorded no-op.

package port

import (
	"github.com/momentics/hioload-io/kcall"
	"golang.org/x/sys/unix"
)

const (
	sendFlags = unix.MSG_NOSIGNAL
	recvFlags = unix.MSG_CMSG_CLOEXEC
)

// SetNoSigpipe applies the platform's SIGPIPE suppression. The injection
// seam is still consulted so the setup step can be failed in tests.
func (p *Port) SetNoSigpipe() bool {
	return p.Demand(kcall.NoSigpipe, func() unix.Errno {
		return 0
	})
}

func acceptNonblock(fd int) (int, unix.Errno) {
	nfd, _, err := unix.Accept4(fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
	if err != nil {
		return 0, errnoOf(err)
	}
	return nfd, 0
}
