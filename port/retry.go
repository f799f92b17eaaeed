// File: port/retry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// The three retry loops wrapping every OS call. Each attempt first consults
// the kcall errno receptacle so fault-injection tests can substitute
// outcomes per call identifier.

package port

import (
	"github.com/momentics/hioload-io/kcall"
	"golang.org/x/sys/unix"
)

// IO is the outcome class of a transfer-class call.
type IO int

const (
	// IODone means the call succeeded and its count is valid.
	IODone IO = iota
	// IOBlock means the call cannot progress now; retry next cycle.
	IOBlock
	// IOFail means a failure was recorded on the Port.
	IOFail
)

func invoke(c kcall.Call, fn func() unix.Errno) unix.Errno {
	if e, ok := kcall.Override(c); ok {
		return e
	}
	return fn()
}

// Demand issues a construction-class call. EINTR is retried up to
// kcall.MaxAttempts; exhausting the ceiling records the interruption.
// Any other errno is recorded immediately. A Port already carrying an
// error performs no call.
func (p *Port) Demand(c kcall.Call, fn func() unix.Errno) bool {
	if p.errno != 0 {
		return false
	}
	for i := 0; i < kcall.MaxAttempts; i++ {
		switch e := invoke(c, fn); e {
		case 0:
			return true
		case unix.EINTR:
			continue
		default:
			p.SetError(e, c)
			return false
		}
	}
	p.SetError(unix.EINTR, c)
	return false
}

// Offer issues a release-class call. EINTR is retried up to the ceiling
// and then abandoned without recording anything; other errnos are recorded
// but the Port is not considered corrupted.
func (p *Port) Offer(c kcall.Call, fn func() unix.Errno) bool {
	for i := 0; i < kcall.MaxAttempts; i++ {
		switch e := invoke(c, fn); e {
		case 0:
			return true
		case unix.EINTR:
			continue
		default:
			p.SetError(e, c)
			return false
		}
	}
	return false
}

// Transfer issues a data-moving call. EINTR retries without bound,
// EAGAIN/EWOULDBLOCK reports would-block, and memory pressure is retried
// up to the ceiling before being recorded as the one fatal transfer
// failure class.
func (p *Port) Transfer(c kcall.Call, fn func() (int, unix.Errno)) (int, IO) {
	pressure := 0
	for {
		var n int
		var e unix.Errno
		if ie, ok := kcall.Override(c); ok {
			e = ie
		} else {
			n, e = fn()
		}
		switch e {
		case 0:
			return n, IODone
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, IOBlock
		case unix.ENOMEM, unix.ENOBUFS:
			pressure++
			if pressure < kcall.MaxAttempts {
				continue
			}
			p.SetError(e, c)
			return 0, IOFail
		default:
			p.SetError(e, c)
			return 0, IOFail
		}
	}
}
