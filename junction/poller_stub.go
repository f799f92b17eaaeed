// File: junction/poller_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

//go:build unix && !linux && !darwin && !dragonfly && !freebsd

package junction

import (
	"time"

	"github.com/momentics/hioload-io/port"
)

// stubWait paces the dispatch loop on platforms without a kernel event
// queue. Every descriptor is treated as always ready, so transfers proceed
// by non-blocking attempts alone.
const stubWait = 10 * time.Millisecond

type stubPoller struct {
	wake chan struct{}
}

func newPoller(p *port.Port, size int) Poller {
	p.Kind = port.KindQueue
	return &stubPoller{wake: make(chan struct{}, 1)}
}

func (sp *stubPoller) Arm(fd int, read, write, known bool) bool { return false }

func (sp *stubPoller) Disarm(fd int) {}

func (sp *stubPoller) Collect(block bool) []Event {
	if !block {
		return nil
	}
	select {
	case <-sp.wake:
	case <-time.After(stubWait):
	}
	return nil
}

func (sp *stubPoller) Wake() {
	select {
	case sp.wake <- struct{}{}:
	default:
	}
}

func (sp *stubPoller) Close() {}
