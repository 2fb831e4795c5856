/*
Package arena provides the per-frame bump allocator and the two-pool swing
used by the frame collector. All scratch buffers for one frame come out of
a single pool and are dropped together when the swing rotates.
*/
package arena

import "unsafe"

const minBlock = 1 << 16

// Pool is a bump allocator over a chain of byte slabs. Individual
// deallocation is a no-op; the pool releases everything at once when it is
// dropped.
type Pool struct {
	block  []byte
	off    int
	filled [][]byte
	used   int
}

// NewPool returns a pool whose first slab holds at least capacity bytes.
func NewPool(capacity int) *Pool {
	if capacity < minBlock {
		capacity = minBlock
	}
	return &Pool{block: make([]byte, capacity)}
}

// Used returns the total number of bytes handed out so far. The swing uses
// it as the high-water mark when sizing the next frame's pool.
func (p *Pool) Used() int {
	return p.used
}

func (p *Pool) raw(size, align int) []byte {
	off := (p.off + align - 1) &^ (align - 1)
	if off+size > len(p.block) {
		grow := len(p.block) * 2
		if grow < size {
			grow = size
		}
		p.filled = append(p.filled, p.block)
		p.block = make([]byte, grow)
		off = 0
	}
	p.off = off + size
	p.used += size
	return p.block[off : off+size]
}

// Alloc draws a zeroed slice of n elements from the pool.
func Alloc[T any](p *Pool, n int) []T {
	if n == 0 {
		return nil
	}
	var zero T
	b := p.raw(n*int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero)))
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

// Swing holds the previous and current frame pools. Buffers from the
// previous frame stay readable until the next rotation.
type Swing struct {
	previous *Pool
	current  *Pool
}

// NewSwing returns a swing with an empty current pool.
func NewSwing() *Swing {
	return &Swing{current: NewPool(0)}
}

// Current returns the pool serving the frame in progress.
func (s *Swing) Current() *Pool {
	return s.current
}

// Previous returns the frozen pool of the last completed frame, or nil
// before the first rotation.
func (s *Swing) Previous() *Pool {
	return s.previous
}

// Rotate freezes the current pool and installs a fresh one sized to twice
// the frozen pool's high-water mark.
func (s *Swing) Rotate() {
	s.previous = s.current
	s.current = NewPool(s.previous.Used() << 1)
}
