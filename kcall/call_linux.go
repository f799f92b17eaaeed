//go:build linux

// File: kcall/call_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package kcall

const (
	createName  = "epoll_create1"
	collectName = "epoll_wait"
	forceName   = "eventfd"
)
