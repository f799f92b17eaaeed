// File: port/port.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package port

import (
	"fmt"

	"github.com/momentics/hioload-io/kcall"
	"golang.org/x/sys/unix"
)

// Invalid is the descriptor value of a Port holding no kernel resource.
const Invalid = -1

// Kind classifies the descriptor behind a Port.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindBad
	KindPipe
	KindSocket
	KindFile
	KindDevice
	KindTTY
	KindQueue
)

var kindNames = [...]string{
	KindUnknown: "unknown",
	KindBad:     "bad",
	KindPipe:    "pipe",
	KindSocket:  "socket",
	KindFile:    "file",
	KindDevice:  "device",
	KindTTY:     "tty",
	KindQueue:   "queue",
}

func (k Kind) String() string { return kindNames[k] }

// Latch bits. Opposite-polarity channels sharing a Port each hold one.
const (
	LatchInput  uint8 = 1
	LatchOutput uint8 = 1 << 4
)

// Port is an OS descriptor with sticky failure state. A Port transitions to
// its closed state exactly once; afterwards the descriptor is never reused.
type Port struct {
	FD   int
	Kind Kind

	errno   unix.Errno
	cause   kcall.Call
	latches uint8
	leaked  bool
}

// New returns a Port holding no descriptor.
func New() *Port {
	return &Port{FD: Invalid}
}

// OK reports whether no failure has been recorded.
func (p *Port) OK() bool { return p.errno == 0 }

// Error returns the recorded errno, zero when none.
func (p *Port) Error() unix.Errno { return p.errno }

// Call returns the identifier of the failing call, kcall.None when no
// failure is recorded.
func (p *Port) Call() kcall.Call {
	if p.errno == 0 {
		return kcall.None
	}
	return p.cause
}

// SetError records a failure. The first recorded failure wins; later
// failures on an already-failed Port are ignored so the original cause
// stays visible.
func (p *Port) SetError(e unix.Errno, c kcall.Call) {
	if p.errno != 0 {
		return
	}
	p.errno = e
	p.cause = c
}

// Raised converts the recorded failure into an error value, nil when the
// Port is clean.
func (p *Port) Raised() error {
	if p.errno == 0 {
		return nil
	}
	return fmt.Errorf("%s: %w", p.cause, p.errno)
}

// Latch adds a latch bit.
func (p *Port) Latch(bit uint8) { p.latches |= bit }

// Latched reports whether any channel still holds the descriptor.
func (p *Port) Latched() bool { return p.latches != 0 }

// LatchedFor reports whether the given latch bit is held.
func (p *Port) LatchedFor(bit uint8) bool { return p.latches&bit != 0 }

// Unlatch releases one latch bit. On a socket shared with a still-latched
// peer the matching direction is shut down; releasing the last latch closes
// the descriptor.
func (p *Port) Unlatch(bit uint8) {
	if p.latches&bit == 0 {
		return
	}
	p.latches &^= bit

	if p.FD == Invalid || p.leaked {
		return
	}

	if p.latches != 0 {
		if p.Kind == KindSocket {
			how := unix.SHUT_RD
			if bit == LatchOutput {
				how = unix.SHUT_WR
			}
			fd := p.FD
			p.Offer(kcall.Release, func() unix.Errno {
				return errnoOf(unix.Shutdown(fd, how))
			})
		}
		return
	}

	p.closeNow()
}

// Leak releases every latch without closing, leaving the descriptor usable
// outside the library. Reports whether any latch was held.
func (p *Port) Leak() bool {
	held := p.latches != 0
	p.latches = 0
	p.leaked = true
	return held
}

// Shatter drops the kernel reference without the usual per-direction
// shutdown of a shared socket. Reports whether any latch was held.
func (p *Port) Shatter() bool {
	held := p.latches != 0
	p.latches = 0
	if p.FD != Invalid && !p.leaked {
		p.closeNow()
	}
	return held
}

// closeNow closes the descriptor under the release retry policy. When the
// retry ceiling is exhausted the descriptor is intentionally left as-is:
// a close abandoned under interruption leaves the descriptor in an
// externally recoverable state, and no error is recorded.
func (p *Port) closeNow() {
	fd := p.FD
	p.Offer(kcall.Release, func() unix.Errno {
		return errnoOf(unix.Close(fd))
	})
	p.FD = Invalid
}

// String describes the Port for diagnostics.
func (p *Port) String() string {
	if p.errno != 0 {
		return fmt.Sprintf("port %d (%s) failed in %s: %s",
			p.FD, p.Kind, p.cause, p.errno.Error())
	}
	return fmt.Sprintf("port %d (%s)", p.FD, p.Kind)
}

func errnoOf(err error) unix.Errno {
	if err == nil {
		return 0
	}
	if e, ok := err.(unix.Errno); ok {
		return e
	}
	return unix.EIO
}
