// Package pmm contains code that manages physical memory: the frame
// registry that tracks the state of every physical page the kernel has
// ever observed, and the allocator that hands frames (and contiguous
// ranges of frames) out of it.
package pmm

import "github.com/haoud/silicium/kernel/addr"

// Frame describes a physical memory page index. It is an alias of
// addr.Frame so that registry/allocator code can be written in terms of
// the dense index while sharing the single validated definition of "what
// a frame is" with the rest of the tree.
type Frame = addr.Frame

// InvalidFrame is returned by allocators that fail to reserve a frame.
const InvalidFrame = addr.InvalidFrame
