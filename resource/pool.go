// File: resource/pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package resource

import "sync"

// BufferPool recycles fixed-size transfer buffers. A buffer detached from
// a terminated channel can be returned here instead of discarded; Get
// always yields a full-length, reusable slice.
type BufferPool struct {
	size int
	pool sync.Pool
}

// NewBufferPool creates a pool of size-byte buffers.
func NewBufferPool(size int) *BufferPool {
	p := &BufferPool{size: size}
	p.pool.New = func() any {
		return make([]byte, size)
	}
	return p
}

// Size returns the buffer length this pool serves.
func (p *BufferPool) Size() int { return p.size }

// Get returns a buffer of the pool's size.
func (p *BufferPool) Get() []byte {
	return p.pool.Get().([]byte)
}

// Put returns a buffer. Foreign-sized slices are dropped.
func (p *BufferPool) Put(b []byte) {
	if cap(b) < p.size {
		return
	}
	p.pool.Put(b[:p.size])
}
