//go:build unix && !linux && !darwin && !dragonfly && !freebsd

// File: kcall/call_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package kcall

const (
	createName  = "poll"
	collectName = "poll"
	forceName   = "poll"
)
