package pmm

import (
	"github.com/haoud/silicium/kernel"
	"github.com/haoud/silicium/kernel/addr"
	"github.com/haoud/silicium/kernel/kfmt"
)

var errOutOfFrames = &kernel.Error{Module: "pmm", Message: "out of physical memory"}

// Allocate returns the first Free frame, clears Free and sets the
// requested extra flags, and sets its reference count to 1. It returns
// InvalidFrame if no frame is available.
func (r *Registry) Allocate(extra Flags) addr.Frame {
	f, ok := r.AllocateRange(1, extra)
	if !ok {
		return InvalidFrame
	}
	return f
}

// AllocateRange returns the first index i such that the n frames starting
// at i are all Free, marks them all allocated (Free cleared, extra set,
// refcount 1) and returns the starting frame. It runs a windowed linear
// scan over the registry (spec §4.1: O(total_frames*n) worst case).
func (r *Registry) AllocateRange(n int, extra Flags) (addr.Frame, bool) {
	if n <= 0 {
		return InvalidFrame, false
	}

	r.mu.Acquire()
	defer r.mu.Release()

	total := len(r.frames)
	for start := 0; start+n <= total; start++ {
		if !r.frames[start].flags.Has(Free) {
			continue
		}

		allFree := true
		for j := 1; j < n; j++ {
			if !r.frames[start+j].flags.Has(Free) {
				allFree = false
				start += j // skip past the non-free frame we just found
				break
			}
		}
		if !allFree {
			continue
		}

		for j := 0; j < n; j++ {
			info := &r.frames[start+j]
			info.flags = (info.flags &^ Free) | extra
			info.count = 1
		}
		return addr.FrameFromIndex(uintptr(start)), true
	}

	return InvalidFrame, false
}

// Deallocate releases a single frame previously returned by Allocate,
// equivalent to DeallocateRange(frame, 1).
func (r *Registry) Deallocate(frame addr.Frame) {
	r.DeallocateRange(frame, 1)
}

// DeallocateRange decrements the reference count of the n frames starting
// at frame (precondition: all are currently allocated) and, for each one
// whose count reaches zero, clears Kernel and sets Free. A frame that was
// handed out via Reference k extra times needs k+1 total Deallocate calls
// before it actually returns to Free. An out-of-range request logs a
// warning instead of panicking (spec §4.1: "Failure mode on out-of-range:
// log a warning, no panic"), since it may indicate a benign race during
// teardown.
func (r *Registry) DeallocateRange(frame addr.Frame, n int) {
	r.mu.Acquire()
	defer r.mu.Release()

	start := uintptr(frame)
	if n <= 0 || start+uintptr(n) > uintptr(len(r.frames)) {
		kfmt.Printf("[pmm] deallocate_range: frame %d..%d out of range (total=%d)\n", start, start+uintptr(n), len(r.frames))
		return
	}

	for i := uintptr(0); i < uintptr(n); i++ {
		info := &r.frames[start+i]
		if info.release() {
			info.flags = (info.flags &^ Kernel) | Free
		}
	}
}

// Reference saturating-increments the reference count of frame,
// equivalent to ReferenceRange(frame, 1).
func (r *Registry) Reference(frame addr.Frame) {
	r.ReferenceRange(frame, 1)
}

// ReferenceRange saturating-increments the reference count of the n
// frames starting at frame. A frame handed out this way must be freed an
// equal number of times via Deallocate before it returns to Free;
// saturating at the maximum count permanently pins it (spec §4.1).
func (r *Registry) ReferenceRange(frame addr.Frame, n int) {
	r.mu.Acquire()
	defer r.mu.Release()

	start := uintptr(frame)
	if n <= 0 || start+uintptr(n) > uintptr(len(r.frames)) {
		kfmt.Printf("[pmm] reference_range: frame %d..%d out of range (total=%d)\n", start, start+uintptr(n), len(r.frames))
		return
	}

	for i := uintptr(0); i < uintptr(n); i++ {
		info := &r.frames[start+i]
		if info.count == maxRefCount {
			kfmt.Printf("[pmm] reference: frame %d refcount saturated, pinning permanently\n", uintptr(start)+i)
		}
		info.retain()
	}
}

// Release decrements the reference count of frame and, if it reaches
// zero, clears Kernel and sets Free. It panics if frame's count was
// already zero (a double free), matching the origin allocator's refusal
// to silently accept one.
func (r *Registry) Release(frame addr.Frame) {
	r.mu.Acquire()
	defer r.mu.Release()

	info := &r.frames[uintptr(frame)]
	if info.release() {
		info.flags = (info.flags &^ Kernel) | Free
	}
}

// package-level convenience wrappers over the global registry, used by
// callers (boot allocator hand-off, ELF loader, vmm) that do not hold
// their own Registry reference.

// AllocFrame allocates a single frame from the global registry.
func AllocFrame() (Frame, *kernel.Error) {
	f := global.Allocate(0)
	if !f.Valid() {
		return InvalidFrame, errOutOfFrames
	}
	return f, nil
}
