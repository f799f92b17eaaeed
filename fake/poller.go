// File: fake/poller.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package fake provides controllable stand-ins for the notification layer.
// A fake poller never touches the kernel; tests script readiness per
// descriptor and observe arming decisions deterministically.
package fake

import (
	"sync"

	"github.com/momentics/hioload-io/junction"
)

// armState records the most recent subscription for one descriptor.
type armState struct {
	Read  bool
	Write bool
}

// Poller is a scripted junction.Poller. Ready events queued with Push are
// returned by the next Collect; arming is recorded, never acted on.
type Poller struct {
	mu      sync.Mutex
	armed   map[int]armState
	pending []junction.Event
	refuse  map[int]bool
	woken   int
	closed  bool
}

// NewPoller creates an empty fake poller.
func NewPoller() *Poller {
	return &Poller{
		armed:  make(map[int]armState),
		refuse: make(map[int]bool),
	}
}

// Push queues an event for the next Collect.
func (f *Poller) Push(ev junction.Event) {
	f.mu.Lock()
	f.pending = append(f.pending, ev)
	f.mu.Unlock()
}

// Refuse makes Arm reject the descriptor, the way epoll rejects regular
// files.
func (f *Poller) Refuse(fd int) {
	f.mu.Lock()
	f.refuse[fd] = true
	f.mu.Unlock()
}

// Armed reports the recorded subscription for fd.
func (f *Poller) Armed(fd int) (read, write, known bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, ok := f.armed[fd]
	return st.Read, st.Write, ok
}

// Woken returns the number of Wake calls.
func (f *Poller) Woken() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.woken
}

// Closed reports whether the poller was released.
func (f *Poller) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Poller) Arm(fd int, read, write, known bool) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refuse[fd] {
		return false
	}
	f.armed[fd] = armState{Read: read, Write: write}
	return true
}

func (f *Poller) Disarm(fd int) {
	f.mu.Lock()
	delete(f.armed, fd)
	f.mu.Unlock()
}

func (f *Poller) Collect(block bool) []junction.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.pending
	f.pending = nil
	return out
}

func (f *Poller) Wake() {
	f.mu.Lock()
	f.woken++
	f.mu.Unlock()
}

func (f *Poller) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}
