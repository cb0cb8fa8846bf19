package vmm

import (
	"testing"

	"github.com/haoud/silicium/kernel/addr"
)

func withMockedCPUPrimitives(t *testing.T) (flushed *[]uintptr, shotdown *int) {
	t.Helper()
	origFlush, origSwitch, origActive, origShootdown := flushTLBEntryFn, switchPDTFn, activePDTFn, shootdownFn
	t.Cleanup(func() {
		flushTLBEntryFn, switchPDTFn, activePDTFn, shootdownFn = origFlush, origSwitch, origActive, origShootdown
	})

	var (
		flushLog      []uintptr
		shootdownCalls int
		current        uintptr
	)
	flushTLBEntryFn = func(vaddr uintptr) { flushLog = append(flushLog, vaddr) }
	switchPDTFn = func(root uintptr) { current = root }
	activePDTFn = func() uintptr { return current }
	shootdownFn = func() { shootdownCalls++ }

	return &flushLog, &shootdownCalls
}

func TestMapTranslateUnmapRoundTrip(t *testing.T) {
	fm := newFakePhysMemory(t, 4)
	fm.installAllocator(t, 1)
	flushed, shotdowns := withMockedCPUPrimitives(t)

	const vaddr = uintptr(0x1000)
	target := fm.frame(3)

	if err := Map(fm.root(0), vaddr, target, FlagWritable); err != nil {
		t.Fatalf("unexpected Map error: %v", err)
	}

	got, ok := Translate(fm.root(0), vaddr)
	if !ok {
		t.Fatal("expected Translate to find the mapping Map just installed")
	}
	if got != target {
		t.Fatalf("expected Translate to return frame %v; got %v", target, got)
	}

	unmapped, err := Unmap(fm.root(0), vaddr)
	if err != nil {
		t.Fatalf("unexpected Unmap error: %v", err)
	}
	if unmapped != target {
		t.Fatalf("expected Unmap to return frame %v; got %v", target, unmapped)
	}
	if len(*flushed) != 1 || (*flushed)[0] != vaddr {
		t.Fatalf("expected Unmap to flush vaddr %#x exactly once; got %v", vaddr, *flushed)
	}
	if *shotdowns != 1 {
		t.Fatalf("expected Unmap to broadcast exactly one shootdown; got %d", *shotdowns)
	}

	if _, ok := Translate(fm.root(0), vaddr); ok {
		t.Fatal("expected Translate to fail after Unmap")
	}
}

func TestMapRejectsDoubleMapWithoutModifying(t *testing.T) {
	fm := newFakePhysMemory(t, 4)
	fm.installAllocator(t, 1)
	withMockedCPUPrimitives(t)

	const vaddr = uintptr(0x2000)
	first := fm.frame(3)

	if err := Map(fm.root(0), vaddr, first, FlagWritable); err != nil {
		t.Fatalf("unexpected error on first Map: %v", err)
	}

	second := addr.FrameFromIndex(99)
	if err := Map(fm.root(0), vaddr, second, FlagWritable); err != ErrAlreadyMapped {
		t.Fatalf("expected ErrAlreadyMapped on double map; got %v", err)
	}

	got, ok := Translate(fm.root(0), vaddr)
	if !ok || got != first {
		t.Fatalf("double map must not modify the existing mapping; got frame=%v ok=%v", got, ok)
	}
}

func TestUnmapMissingReturnsErrNotMapped(t *testing.T) {
	fm := newFakePhysMemory(t, 1)
	withMockedCPUPrimitives(t)

	if _, err := Unmap(fm.root(0), 0x3000); err != ErrNotMapped {
		t.Fatalf("expected ErrNotMapped; got %v", err)
	}
}

func TestSetCurrentAndCurrentRootDelegateToCPU(t *testing.T) {
	withMockedCPUPrimitives(t)

	SetCurrent(0x5000)
	if got := CurrentRoot(); got != 0x5000 {
		t.Fatalf("expected CurrentRoot to reflect the last SetCurrent; got %#x", got)
	}
}
