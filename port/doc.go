// File: port/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package port owns OS descriptors and the retry policy applied to every
// call issued on their behalf.
//
// A Port is a descriptor plus sticky failure state: the errno and the call
// identifier of the first failing operation. Channels of opposite polarity
// may share one Port through latch bits; the descriptor is closed exactly
// once, when the last latch is released.
//
// Three retry classes cover every call:
//
//   - Demand: construction-class calls. EINTR retried up to
//     kcall.MaxAttempts; at the ceiling the interruption is recorded.
//     Any other errno is recorded immediately.
//   - Offer: release-class calls (close, shutdown, setsockopt). EINTR
//     retried up to the ceiling and then abandoned without recording;
//     other errnos are recorded but are not fatal to the descriptor.
//   - Transfer: data-moving calls. EINTR retried without bound, EAGAIN
//     reported as would-block, ENOMEM/ENOBUFS retried up to the ceiling
//     and recorded only when the ceiling is reached.
package port
