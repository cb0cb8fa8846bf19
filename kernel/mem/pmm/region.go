package pmm

import (
	"github.com/haoud/silicium/kernel/addr"
	"github.com/haoud/silicium/kernel/mem"
)

// RegionKind classifies a range of the sanitized memory map handed off by
// the bootloader. It mirrors the kinds the original memory-map sanitizer
// produces, independent of any particular bootloader's wire format.
type RegionKind uint8

const (
	// Usable memory is free for the kernel to hand out.
	Usable RegionKind = iota
	// Kernel covers the running kernel image itself.
	Kernel
	// Reserved memory must never be touched (MMIO, firmware tables, ...).
	Reserved
	// AcpiReclaimable holds ACPI tables; usable once the kernel is done
	// parsing them, treated as regular memory in the meantime.
	AcpiReclaimable
	// BootloaderReclaimable holds bootloader-owned structures (the memory
	// map itself, module images, ...); the registry records these frames
	// as Boot with a reference count of 1.
	BootloaderReclaimable
	// BadMemory is physically faulty and must never be allocated.
	BadMemory
)

// Region describes one contiguous, page-aligned range of the sanitized
// memory map.
type Region struct {
	Start addr.Physical
	End   addr.Physical
	Kind  RegionKind
}

// Frames returns the inclusive range of frame indices [first, last] this
// region spans.
func (r Region) Frames() (first, last addr.Frame) {
	return r.Start.Frame(), addr.Frame((uintptr(r.End) - 1) >> mem.PageShift)
}
