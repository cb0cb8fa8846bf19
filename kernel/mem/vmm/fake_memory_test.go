package vmm

import (
	"testing"
	"unsafe"

	"github.com/haoud/silicium/kernel"
	"github.com/haoud/silicium/kernel/addr"
	"github.com/haoud/silicium/kernel/mem"
)

// fakePhysMemory backs a handful of physical frames with real Go-allocated
// pages and installs direct-map seams that resolve to them, so walk/map/root
// logic can be exercised without a real HHDM.
type fakePhysMemory struct {
	pages [][mem.PageSize]byte
}

func newFakePhysMemory(t *testing.T, count int) *fakePhysMemory {
	t.Helper()
	m := &fakePhysMemory{pages: make([][mem.PageSize]byte, count)}

	origFrameDirectMap, origPhysDirectMap := frameDirectMapFn, physDirectMapFn
	t.Cleanup(func() {
		frameDirectMapFn = origFrameDirectMap
		physDirectMapFn = origPhysDirectMap
	})

	frameDirectMapFn = func(f addr.Frame) uintptr {
		idx := int(uintptr(f))
		if idx < 0 || idx >= len(m.pages) {
			t.Fatalf("fakePhysMemory: frame %d out of range", idx)
		}
		return uintptr(unsafe.Pointer(&m.pages[idx][0]))
	}
	physDirectMapFn = func(p addr.Physical) uintptr {
		idx := int(uintptr(p) >> mem.PageShift)
		if idx < 0 || idx >= len(m.pages) {
			t.Fatalf("fakePhysMemory: physical address %#x out of range", uintptr(p))
		}
		return uintptr(unsafe.Pointer(&m.pages[idx][0]))
	}

	return m
}

// frame returns the addr.Frame identifying page i.
func (m *fakePhysMemory) frame(i int) addr.Frame { return addr.FrameFromIndex(uintptr(i)) }

// root returns the physical address rootTable/walk expect for page i.
func (m *fakePhysMemory) root(i int) uintptr { return uintptr(i) << mem.PageShift }

// table returns the page i reinterpreted as a page table, for direct
// inspection/mutation by a test.
func (m *fakePhysMemory) table(i int) *[entriesPerTable]pageTableEntry {
	return (*[entriesPerTable]pageTableEntry)(unsafe.Pointer(&m.pages[i][0]))
}

// installAllocator makes frameAllocatorFn hand out pages [start, len(pages))
// in order, failing once exhausted.
func (m *fakePhysMemory) installAllocator(t *testing.T, start int) {
	t.Helper()
	next := start
	orig := frameAllocatorFn
	t.Cleanup(func() { frameAllocatorFn = orig })

	frameAllocatorFn = func() (addr.Frame, *kernel.Error) {
		if next >= len(m.pages) {
			return addr.InvalidFrame, ErrOutOfMemory
		}
		f := m.frame(next)
		next++
		return f, nil
	}
}
