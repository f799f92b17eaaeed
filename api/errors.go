// File: api/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Transition errors raised synchronously by the channel and junction state
// machines. I/O failures are never surfaced this way; they are recorded on
// the Port and observed through Channel state.

package api

import "fmt"

var (
	// ErrTerminated is returned when an operation requires a live Channel.
	ErrTerminated = fmt.Errorf("already terminated")

	// ErrResourcePresent is returned when a resource is attached to a
	// direction whose current resource is not yet exhausted.
	ErrResourcePresent = fmt.Errorf("resource already present")

	// ErrCycleActive is returned when a Junction cycle is entered twice.
	ErrCycleActive = fmt.Errorf("dispatch cycle already active")

	// ErrUnsupported is returned for transport requests the platform
	// cannot satisfy.
	ErrUnsupported = fmt.Errorf("transport request not supported")
)
