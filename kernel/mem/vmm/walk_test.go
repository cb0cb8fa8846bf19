package vmm

import (
	"testing"

	memsize "github.com/haoud/silicium/kernel/mem"
)

func TestWalkFailOnMissingReturnsErrMissingTable(t *testing.T) {
	fm := newFakePhysMemory(t, 1)

	_, err := walk(fm.root(0), 0x1000, failOnMissing)
	if err != ErrMissingTable {
		t.Fatalf("expected ErrMissingTable; got %v", err)
	}
}

func TestWalkAllocateOnMissingBuildsEveryLevel(t *testing.T) {
	fm := newFakePhysMemory(t, 5)
	fm.installAllocator(t, 1)

	const vaddr = uintptr(0x0000_0040_2010_3000)

	entry, err := walk(fm.root(0), vaddr, allocateOnMissing(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.present() {
		t.Fatal("a freshly walked leaf entry should not already be present")
	}

	pml4Index := (vaddr >> pageLevelShifts[0]) & tableIndexMask
	pml4Entry := fm.table(0)[pml4Index]
	if !pml4Entry.present() {
		t.Fatal("expected PML4 entry to be installed")
	}
	if !pml4Entry.hasFlags(FlagUser) {
		t.Fatal("expected an intermediate table below the user/kernel boundary to be tagged FlagUser")
	}
}

func TestWalkMarksKernelHalfTablesWithoutFlagUser(t *testing.T) {
	fm := newFakePhysMemory(t, 5)
	fm.installAllocator(t, 1)

	const vaddr = uintptr(0xFFFF_8000_0010_3000)

	if _, err := walk(fm.root(0), vaddr, allocateOnMissing(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pml4Index := (vaddr >> pageLevelShifts[0]) & tableIndexMask
	if fm.table(0)[pml4Index].hasFlags(FlagUser) {
		t.Fatal("a kernel-half intermediate table must not carry FlagUser")
	}
}

func TestWalkZeroesNewlyAllocatedTables(t *testing.T) {
	fm := newFakePhysMemory(t, 5)
	fm.installAllocator(t, 1)

	// Poison frame 1 (the first one walk will allocate) before the walk.
	for i := range fm.pages[1] {
		fm.pages[1][i] = 0xAA
	}

	if _, err := walk(fm.root(0), 0x1000, allocateOnMissing(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, b := range fm.pages[1] {
		if b != 0 {
			t.Fatalf("expected newly allocated table to be zeroed; byte %d is %#x", i, b)
		}
	}
}

func TestWalkTerminatesEarlyOnHugePage(t *testing.T) {
	fm := newFakePhysMemory(t, 2)

	const vaddr = uintptr(0x0000_0000_4020_1000) // PDPT index 1, PD index 1

	pdptIndex := (vaddr >> pageLevelShifts[0]) & tableIndexMask
	pml4 := fm.table(0)
	pml4[pdptIndex].setFrame(fm.frame(1))
	pml4[pdptIndex].setFlags(FlagPresent | FlagWritable)

	pdIndex := (vaddr >> pageLevelShifts[1]) & tableIndexMask
	pdpt := fm.table(1)
	pdpt[pdIndex].setFlags(FlagPresent | FlagWritable | FlagHuge)

	entry, err := walk(fm.root(0), vaddr, failOnMissing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !entry.huge() {
		t.Fatal("expected walk to return the huge PDPT entry directly")
	}
}

func TestWalkOutOfMemoryPropagates(t *testing.T) {
	fm := newFakePhysMemory(t, 1)
	fm.installAllocator(t, 1) // no frames left for the allocator

	_, err := walk(fm.root(0), 0x1000, allocateOnMissing(0))
	if err != ErrOutOfMemory {
		t.Fatalf("expected ErrOutOfMemory; got %v", err)
	}
}

// sanity check the level shift table still matches a 4-level, 512-entry,
// 4KiB page layout.
func TestPageLevelShiftsCoverFullVirtualRange(t *testing.T) {
	if got := uint(memsize.PageShift); pageLevelShifts[pageLevels-1] != got {
		t.Fatalf("expected leaf level shift to equal PageShift (%d); got %d", got, pageLevelShifts[pageLevels-1])
	}
}
