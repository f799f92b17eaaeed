// File: junction/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package junction implements the event-notification owner and its typed
// channels.
//
// A Junction owns one OS notification context (epoll on Linux, kqueue on
// Darwin, DragonFly and FreeBSD, a paced always-ready fallback on the
// remaining unix platforms), a registry of live channels, and the
// dispatch cycle. The
// cycle is scoped: Enter arms notification for every pending direction and
// collects ready events, dispatch performs one non-blocking transfer step
// per ready channel, Exit closes the transfer window. Force pre-empts a
// blocked wait from another goroutine; it is the only cross-goroutine
// operation.
//
// Channels are allocated through the Junction from transport
// specifications and registered automatically; termination deregisters.
// Channel failure is never raised per event. It is recorded on the
// channel's Port and delivered as a termination notice in the transfer
// window.
package junction
