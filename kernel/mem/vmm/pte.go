package vmm

import (
	"unsafe"

	"github.com/haoud/silicium/kernel/addr"
)

// pteAddrMask isolates the 40-bit page-aligned physical address field
// (bits 12..51) of a raw page table entry (spec §3 Page table).
const pteAddrMask = uint64(0x000F_FFFF_FFFF_F000)

// pageTableEntry is one raw 64-bit slot of a page table, at any of the
// four levels (PML4, PDPT, PD, PT). The layout is identical at every
// level: flag bits, a physical address field, and the NX bit.
type pageTableEntry uint64

func (pte pageTableEntry) present() bool { return pte.hasFlags(FlagPresent) }
func (pte pageTableEntry) huge() bool    { return pte.hasFlags(FlagHuge) }

// hasFlags reports whether all bits of want are set.
func (pte pageTableEntry) hasFlags(want PageTableEntryFlag) bool {
	return uint64(pte)&uint64(want) == uint64(want)
}

// flagsOnly returns pte with its address field masked out, used when
// propagating a source entry's flags onto a freshly allocated destination
// frame (see root.go's canonical-PML4 construction).
func (pte pageTableEntry) flagsOnly() PageTableEntryFlag {
	return PageTableEntryFlag(uint64(pte) &^ pteAddrMask)
}

func (pte *pageTableEntry) setFlags(flags PageTableEntryFlag) {
	*pte |= pageTableEntry(flags)
}

func (pte *pageTableEntry) clearFlags(flags PageTableEntryFlag) {
	*pte &^= pageTableEntry(flags)
}

// frame returns the physical frame this entry addresses.
func (pte pageTableEntry) frame() addr.Frame {
	return addr.FrameFromIndex(uintptr((uint64(pte) & pteAddrMask) >> 12))
}

// setFrame updates the entry to point at frame's physical address,
// preserving its flag bits.
func (pte *pageTableEntry) setFrame(frame addr.Frame) {
	*pte = pageTableEntry(uint64(*pte)&^pteAddrMask | uint64(frame.Address().AsUintptr())&pteAddrMask)
}

// table returns the direct-mapped (HHDM) view of the next-level table this
// entry points to (spec §4.5: the only mechanism used to reach a newly
// allocated intermediate table's contents, no recursive self-mapping).
func (pte pageTableEntry) table() *[entriesPerTable]pageTableEntry {
	return (*[entriesPerTable]pageTableEntry)(unsafe.Pointer(frameDirectMapFn(pte.frame())))
}
