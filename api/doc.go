// File: api/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package api defines the public capability surface of hioload-io: the
// Channel interface shared by all four endpoint variants, transfer
// polarities, and the structured errors surfaced by state transitions.
package api
