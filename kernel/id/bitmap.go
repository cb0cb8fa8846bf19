// Package id provides a bitmap-backed identifier allocator, used to hand
// out thread and process identifiers from a bounded range without ever
// reusing one still in use.
package id

import (
	"math/bits"

	"github.com/haoud/silicium/kernel/sync"
)

const wordBits = 64

// Bitmap is a fixed-capacity bitmap sized in bits at construction time.
type Bitmap struct {
	words []uint64
	bits  uint32
}

// NewBitmap allocates a bitmap capable of tracking the given number of
// bits, all initially clear.
func NewBitmap(capacity uint32) *Bitmap {
	words := (capacity + wordBits - 1) / wordBits
	return &Bitmap{words: make([]uint64, words), bits: capacity}
}

// Set marks bit index as 1.
func (b *Bitmap) Set(index uint32) {
	b.words[index/wordBits] |= 1 << (index % wordBits)
}

// Clear marks bit index as 0.
func (b *Bitmap) Clear(index uint32) {
	b.words[index/wordBits] &^= 1 << (index % wordBits)
}

// Get returns the value of bit index.
func (b *Bitmap) Get(index uint32) bool {
	return b.words[index/wordBits]&(1<<(index%wordBits)) != 0
}

// FirstZero finds the lowest-indexed clear bit, sets it, and returns its
// index. ok is false if every bit is already set.
func (b *Bitmap) FirstZero() (index uint32, ok bool) {
	for w, word := range b.words {
		if word == ^uint64(0) {
			continue
		}
		bit := uint32(bits.TrailingZeros64(^word))
		i := uint32(w)*wordBits + bit
		if i >= b.bits {
			return 0, false
		}
		b.words[w] |= 1 << bit
		return i, true
	}
	return 0, false
}

// Generator hands out identifiers in [0, limit) by tracking which ones are
// currently in use in a Bitmap, guarded by a spinlock (spec §5: the TID and
// PID allocators each have their own mutex).
type Generator struct {
	mu     sync.Spinlock
	bitmap *Bitmap
}

// NewGenerator creates a Generator that allocates identifiers in [0, limit).
func NewGenerator(limit uint32) *Generator {
	return &Generator{bitmap: NewBitmap(limit)}
}

// Generate returns the lowest unused identifier and marks it in use, or
// ok=false if the generator has been exhausted.
func (g *Generator) Generate() (id uint32, ok bool) {
	g.mu.Acquire()
	defer g.mu.Release()
	return g.bitmap.FirstZero()
}

// Release returns id to the pool of identifiers available for reuse.
func (g *Generator) Release(id uint32) {
	g.mu.Acquire()
	defer g.mu.Release()
	g.bitmap.Clear(id)
}
