// File: kcall/script.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Scripts generate deterministic injected-outcome sequences for tests:
// fail-N-then-pass, fail-forever, and pass-once-then-fail. A script tracks
// how many injections were consumed so a test can confirm the exact number
// of retries the wrapped call performed.

package kcall

import (
	"sync"

	"golang.org/x/sys/unix"
)

// Script is an ErrnoHook source with bookkeeping.
type Script struct {
	mu        sync.Mutex
	errno     unix.Errno
	remaining int
	unlimited bool
	passFirst bool
	passed    bool
	consumed  int
}

// Failures injects e for the first n attempts, then passes through.
func Failures(n int, e unix.Errno) *Script {
	return &Script{errno: e, remaining: n}
}

// Interrupts injects EINTR for the first n attempts, then passes through.
func Interrupts(n int) *Script {
	return Failures(n, unix.EINTR)
}

// AlwaysFail injects e on every attempt.
func AlwaysFail(e unix.Errno) *Script {
	return &Script{errno: e, unlimited: true}
}

// PassThenFail lets the first attempt through and injects e afterwards.
func PassThenFail(e unix.Errno) *Script {
	return &Script{errno: e, unlimited: true, passFirst: true}
}

// Next implements ErrnoHook.
func (s *Script) Next(Call) (unix.Errno, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.passFirst && !s.passed {
		s.passed = true
		return 0, false
	}
	if s.unlimited {
		s.consumed++
		return s.errno, true
	}
	if s.remaining > 0 {
		s.remaining--
		s.consumed++
		return s.errno, true
	}
	return 0, false
}

// Drained reports whether every scripted injection was consumed.
func (s *Script) Drained() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.unlimited && s.remaining == 0
}

// Consumed returns the number of injected outcomes handed out so far.
func (s *Script) Consumed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumed
}
