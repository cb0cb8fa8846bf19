// Package allocator implements the transient boot-time allocator (spec
// §4.9): a bump allocator over the sanitized memory map, used only
// before the frame registry (pmm.Registry) is online, and the
// sanitization step that turns the bootloader's memory map into the
// region list both the boot allocator and pmm.New consume.
package allocator

import (
	"github.com/haoud/silicium/kernel"
	"github.com/haoud/silicium/kernel/addr"
	"github.com/haoud/silicium/kernel/kfmt"
	"github.com/haoud/silicium/kernel/mem"
	"github.com/haoud/silicium/kernel/mem/pmm"
)

var errBootAllocOutOfMemory = &kernel.Error{Module: "boot_mem_alloc", Message: "out of memory"}

// BootAllocator is a bump allocator over a sanitized memory map. Each
// allocation consumes bytes from the front of the first Usable region
// with enough remaining room, shrinking that region's Start in place and
// recording a matching Kernel-kind bookkeeping entry so the region list
// handed to pmm.New reflects exactly what the boot allocator consumed.
type BootAllocator struct {
	regions     []pmm.Region
	regionIdx   int
	lastKernel  int // index into regions of the last appended/extended Kernel entry, or -1
	disabled    bool
	kernelStart uintptr
	kernelEnd   uintptr
}

// New constructs a BootAllocator over regions, which must already be
// sanitized (see Sanitize): Usable bases page-aligned up, ends
// page-aligned down, the running kernel image already carved out.
func New(regions []pmm.Region, kernelStart, kernelEnd uintptr) *BootAllocator {
	return &BootAllocator{
		regions:     regions,
		lastKernel:  -1,
		kernelStart: kernelStart,
		kernelEnd:   kernelEnd,
	}
}

// AllocateAlign reserves size bytes aligned to align (which must be a
// power of two) and returns their physical address.
func (b *BootAllocator) AllocateAlign(size mem.Size, align uintptr) (addr.Physical, *kernel.Error) {
	if b.disabled {
		panic("boot allocator used after disable")
	}

	for b.regionIdx < len(b.regions) {
		reg := &b.regions[b.regionIdx]
		if reg.Kind != pmm.Usable {
			b.regionIdx++
			continue
		}

		start := addr.Physical((uintptr(reg.Start) + align - 1) &^ (align - 1))
		end := start + addr.Physical(size)
		if end > reg.End {
			b.regionIdx++
			continue
		}

		reg.Start = end
		b.recordKernelUse(start, end)
		return start, nil
	}

	return 0, errBootAllocOutOfMemory
}

// AllocateFrame reserves a single page-aligned frame.
func (b *BootAllocator) AllocateFrame() (addr.Frame, *kernel.Error) {
	phys, err := b.AllocateAlign(mem.PageSize, uintptr(mem.PageSize))
	if err != nil {
		return pmm.InvalidFrame, err
	}
	return phys.Frame(), nil
}

// recordKernelUse extends the last bookkeeping Kernel region if it is
// adjacent to [start, end), or appends a new one otherwise.
func (b *BootAllocator) recordKernelUse(start, end addr.Physical) {
	if b.lastKernel >= 0 && b.regions[b.lastKernel].End == start {
		b.regions[b.lastKernel].End = end
		return
	}
	b.regions = append(b.regions, pmm.Region{Start: start, End: end, Kind: pmm.Kernel})
	b.lastKernel = len(b.regions) - 1
}

// Disable permanently retires the allocator. Any further allocation
// request is a programmer error and panics (spec §4.9).
func (b *BootAllocator) Disable() { b.disabled = true }

// Regions returns the current region list, including every bookkeeping
// Kernel entry recorded so far. This is the memory map handed off to
// pmm.New once the boot allocator is retired.
func (b *BootAllocator) Regions() []pmm.Region { return b.regions }

// PrintMemoryMap logs the sanitized memory map and a summary of the
// kernel image location, mirroring the boot trace the teacher prints
// before any TTY is attached.
func (b *BootAllocator) PrintMemoryMap() {
	kfmt.Printf("[boot_mem_alloc] system memory map:\n")
	var totalFree mem.Size
	for _, reg := range b.regions {
		kfmt.Printf("\t[0x%16x - 0x%16x], kind: %d\n", uintptr(reg.Start), uintptr(reg.End), int(reg.Kind))
		if reg.Kind == pmm.Usable {
			totalFree += mem.Size(reg.End - reg.Start)
		}
	}
	kfmt.Printf("[boot_mem_alloc] available memory: %dKb\n", uint64(totalFree/mem.Kb))
	kfmt.Printf("[boot_mem_alloc] kernel loaded at 0x%x - 0x%x\n", b.kernelStart, b.kernelEnd)
}
