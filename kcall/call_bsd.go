//go:build darwin || dragonfly || freebsd

// File: kcall/call_bsd.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package kcall

const (
	createName  = "kqueue"
	collectName = "kevent"
	forceName   = "kevent"
)
