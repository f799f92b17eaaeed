// File: resource/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package resource provides the caller-owned transfer buffers lent to
// channels for the duration of one transfer: byte buffers for octet
// streams, datagram slot arrays carrying a per-message endpoint, and
// descriptor slot arrays for listeners and descriptor-passing channels.
//
// Ownership stays with the caller. A channel holds a reference only while
// a transfer is incomplete and drops it at exhaustion or termination.
package resource
