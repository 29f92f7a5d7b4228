// File: pool/bytepool.go
// Author: momentics <momentics@gmail.com>

package pool

// BytePool hands out fixed-size byte slices, e.g. datagram receive buffers
// and file transfer chunks.
type BytePool struct {
	pool *SyncPool[*[]byte]
	size int
}

var _ ObjectPool[[]byte] = (*BytePool)(nil)

// NewBytePool creates a pool of size-byte buffers.
func NewBytePool(size int) *BytePool {
	if size <= 0 {
		size = 1
	}
	sp := NewSyncPool(func() *[]byte {
		b := make([]byte, size)
		return &b
	}).WithReset(func(b *[]byte) bool {
		if cap(*b) != size {
			return false
		}
		*b = (*b)[:size]
		return true
	})
	return &BytePool{pool: sp, size: size}
}

// Size returns the length of every buffer handed out.
func (b *BytePool) Size() int {
	return b.size
}

// Get returns a buffer of Size bytes.
func (b *BytePool) Get() []byte {
	return *b.pool.Get()
}

// Put returns buf to the pool. Buffers of a different capacity are dropped.
func (b *BytePool) Put(buf []byte) {
	b.pool.Put(&buf)
}
