// File: pool/bytepool.go
//
// Fixed-size byte buffer pool. Connection streams draw their read and
// write buffers from here so that short-lived connections do not churn
// the allocator.

package pool

import "sync"

// BytePool hands out byte slices of one fixed size.
type BytePool struct {
	size int
	p    sync.Pool
}

// NewBytePool creates a pool of buffers of the given size.
func NewBytePool(size int) *BytePool {
	b := &BytePool{size: size}
	b.p.New = func() any { return make([]byte, size) }
	return b
}

// Size returns the buffer size this pool hands out.
func (b *BytePool) Size() int { return b.size }

// Get returns a buffer of the pool's size.
func (b *BytePool) Get() []byte {
	return b.p.Get().([]byte)
}

// Put returns a buffer to the pool. Buffers of a different size are
// dropped instead of poisoning the pool.
func (b *BytePool) Put(buf []byte) {
	if len(buf) != b.size {
		return
	}
	b.p.Put(buf)
}
