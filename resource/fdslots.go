// File: resource/fdslots.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package resource

// NoFD marks an unfilled descriptor slot.
const NoFD = -1

// FDSlots allocates a descriptor slot array for listener and
// descriptor-passing channels. Input transfers fill slots in order;
// output transfers consume them in order.
func FDSlots(count int) []int {
	s := make([]int, count)
	for i := range s {
		s[i] = NoFD
	}
	return s
}
