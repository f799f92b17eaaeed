// File: junction/poller.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package junction

import "time"

// blockingWait bounds one collection wait; Force pre-empts it earlier.
const blockingWait = 9 * time.Second

// Event is one collected readiness notification for a descriptor.
type Event struct {
	FD    int
	Read  bool
	Write bool
	HUP   bool
	Err   bool
}

// Poller is the OS notification context behind a Junction. Implementations
// record their failures on the Junction's Port; a failed collection yields
// zero events. Wake must be safe to call from another goroutine while a
// Collect is blocked.
type Poller interface {
	// Arm subscribes the descriptor for the given directions. known
	// reports whether the descriptor is already subscribed.
	Arm(fd int, read, write, known bool) bool

	// Disarm drops the descriptor's subscription.
	Disarm(fd int)

	// Collect returns ready events, blocking up to blockingWait when
	// block is set and an interruption ceiling was not reached.
	Collect(block bool) []Event

	// Wake pre-empts a blocked Collect.
	Wake()

	// Close releases the notification context.
	Close()
}
