// File: api/channel.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import (
	"github.com/momentics/hioload-io/port"
)

// Polarity is the transfer direction of a Channel relative to the process.
type Polarity int8

const (
	// Output moves units from the process to the kernel.
	Output Polarity = -1
	// Input moves units from the kernel into the process.
	Input Polarity = 1
)

// String returns "input" or "output".
func (p Polarity) String() string {
	if p == Input {
		return "input"
	}
	return "output"
}

// Channel is a typed, non-blocking I/O endpoint driven by a Junction.
//
// A Channel owns exactly one Port, possibly shared with a peer Channel of
// the opposite polarity. Failure is never raised per event: callers poll
// Terminated and the Port's recorded errno/call instead.
type Channel interface {
	// Port returns the owning Port. The Port carries the sticky failure
	// state recorded by the retry machinery.
	Port() *port.Port

	// Polarity reports the transfer direction.
	Polarity() Polarity

	// Exhausted reports whether the attached resource was fully
	// consumed or filled. A new resource clears it.
	Exhausted() bool

	// Terminated reports whether the Channel is permanently closed.
	// A terminated Channel performs no further OS calls.
	Terminated() bool

	// Terminate closes the Channel: the resource is detached and the
	// Port latch released. Safe to call at any time, repeatedly.
	Terminate()

	// Force queues an empty transfer event so the next dispatch cycle
	// reports the Channel even without kernel readiness.
	Force()
}
