package vmm

import (
	"github.com/haoud/silicium/kernel"
	"github.com/haoud/silicium/kernel/addr"
	"github.com/haoud/silicium/kernel/mem"
	"github.com/haoud/silicium/kernel/sync"
)

// earlyReserveBase is the start of the kernel virtual address range handed
// out by EarlyReserveRegion. It sits well outside addr.HHDMBase so the two
// ranges never collide.
const earlyReserveBase = uintptr(0xFFFF_A000_0000_0000)

var (
	earlyReserveMu   sync.Spinlock
	earlyReserveNext = earlyReserveBase
)

// EarlyReserveRegion hands out size bytes of unique kernel virtual address
// space without establishing any page mapping. It exists for callers, such
// as the Go runtime's heap bootstrap hooks, that need to reserve a VA range
// before they know how much of it will ever be backed by a frame.
func EarlyReserveRegion(size mem.Size) (uintptr, *kernel.Error) {
	rounded := (uintptr(size) + uintptr(mem.PageSize) - 1) &^ (uintptr(mem.PageSize) - 1)

	earlyReserveMu.Acquire()
	defer earlyReserveMu.Release()

	start := earlyReserveNext
	earlyReserveNext += rounded
	return start, nil
}

var (
	zeroFrameMu    sync.Spinlock
	zeroFrameValue addr.Frame
	zeroFrameSet   bool
)

// ZeroFrame returns a single shared, zeroed physical frame. Callers map it
// read-only (or CopyOnWrite) into multiple address spaces; the first write
// to any page backed by it takes a page fault that hands the writer a
// private copy (see handlePageFault).
func ZeroFrame() (addr.Frame, *kernel.Error) {
	zeroFrameMu.Acquire()
	defer zeroFrameMu.Release()

	if zeroFrameSet {
		return zeroFrameValue, nil
	}

	frame, kerr := frameAllocatorFn()
	if kerr != nil {
		return addr.InvalidFrame, ErrOutOfMemory
	}
	zeroFrame(frame)

	zeroFrameValue = frame
	zeroFrameSet = true
	return frame, nil
}
