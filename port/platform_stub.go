//go:build unix && !linux && !darwin && !dragonfly && !freebsd

// File: port/platform_stub.go
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

// SetNoSigpipe records a no-op; the platform offers no per-descriptor
// signal suppression. The injection seam is still consulted.
func (p *Port) SetNoSigpipe() bool {
	return p.Demand(kcall.NoSigpipe, func() unix.Errno {
		return 0
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
