// File: resource/datagrams.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package resource

import (
	"net/netip"

	"github.com/momentics/hioload-io/kcall"
)

// DatagramArray is a fixed slot array of (endpoint, payload) pairs backed
// by one contiguous buffer. For output the caller sets each slot's
// destination endpoint and payload before attaching; for input the channel
// fills payload, length and source endpoint per received message.
type DatagramArray struct {
	space   int
	data    []byte
	addrs   []netip.AddrPort
	lengths []int
}

// NewDatagramArray allocates count slots of space payload bytes each.
func NewDatagramArray(space, count int) (*DatagramArray, error) {
	if err := kcall.CheckAllocation("datagram-array"); err != nil {
		return nil, err
	}
	return &DatagramArray{
		space:   space,
		data:    make([]byte, space*count),
		addrs:   make([]netip.AddrPort, count),
		lengths: make([]int, count),
	}, nil
}

// Count returns the number of slots.
func (d *DatagramArray) Count() int { return len(d.addrs) }

// Space returns the payload capacity of one slot.
func (d *DatagramArray) Space() int { return d.space }

// Payload returns the full payload window of slot i.
func (d *DatagramArray) Payload(i int) []byte {
	return d.data[i*d.space : (i+1)*d.space]
}

// Length returns the transferred byte count of slot i.
func (d *DatagramArray) Length(i int) int { return d.lengths[i] }

// SetLength records the byte count to transmit from slot i; input
// transfers overwrite it with the received length.
func (d *DatagramArray) SetLength(i, n int) { d.lengths[i] = n }

// Endpoint returns the slot's endpoint: destination for output slots,
// source for received input slots.
func (d *DatagramArray) Endpoint(i int) netip.AddrPort { return d.addrs[i] }

// SetEndpoint assigns the slot's destination endpoint.
func (d *DatagramArray) SetEndpoint(i int, ap netip.AddrPort) { d.addrs[i] = ap }
