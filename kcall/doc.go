// File: kcall/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package kcall names every OS call issued on behalf of a Port and carries
// the process-wide fault-injection receptacles used to exercise the retry
// machinery without real kernel fault conditions.
//
// Two receptacles exist: an errno receptacle mapping a call identifier to a
// script of injected outcomes, and an allocation receptacle forcing failure
// at named construction sites. Both are test-only; when empty they cost a
// single atomic load per call.
package kcall
