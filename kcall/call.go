// File: kcall/call.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Call identifiers for every syscall the library performs. The identifier is
// the injection key; the reported name is the syscall as a user would see it
// in diagnostics, so distinct identifiers may share a name (both fcntl mode
// changes report "fcntl").

package kcall

// Call identifies one of the OS calls wrapped by the port layer.
type Call uint8

const (
	None Call = iota

	// Descriptor acquisition.
	Socket
	SocketPair
	Pipe
	Open
	Identify // fstat-based descriptor classification

	// Descriptor configuration.
	NoBlocking // fcntl O_NONBLOCK
	NoSigpipe  // fcntl F_SETNOSIGPIPE where the platform has it
	Bind
	Listen
	Connect
	SetOption // setsockopt
	GetName   // getsockname

	// Transfers.
	Read
	Write
	Accept
	RecvFrom
	SendTo
	RecvMsg
	SendMsg

	// Release and event machinery.
	Release // close
	Create  // event queue construction
	Collect // event collection
	Force   // wait pre-emption

	numCalls
)

// MaxAttempts bounds every limited retry loop. A call is issued at most this
// many times per operation; transfer-call EINTR is exempt and retries without
// bound.
const MaxAttempts = 256

var callNames = [numCalls]string{
	None:       "none",
	Socket:     "socket",
	SocketPair: "socketpair",
	Pipe:       "pipe",
	Open:       "open",
	Identify:   "fstat",
	NoBlocking: "fcntl",
	NoSigpipe:  "fcntl",
	Bind:       "bind",
	Listen:     "listen",
	Connect:    "connect",
	SetOption:  "setsockopt",
	GetName:    "getsockname",
	Read:       "read",
	Write:      "write",
	Accept:     "accept",
	RecvFrom:   "recvfrom",
	SendTo:     "sendto",
	RecvMsg:    "recvmsg",
	SendMsg:    "sendmsg",
	Release:    "close",
	Create:     createName,
	Collect:    collectName,
	Force:      forceName,
}

// String returns the user-visible syscall name.
func (c Call) String() string {
	if c >= numCalls {
		return "invalid"
	}
	return callNames[c]
}
