// Package vmm implements the four-level x86_64 page table engine: a
// higher-half direct map (HHDM) over every physical frame, a canonical
// kernel PML4 shared (GLOBAL-tagged) across every process, and map/unmap/
// translate operations parameterized by which PML4 root to walk rather than
// relying on a single recursively self-mapped table (spec §4.2, §4.5).
package vmm

import (
	"unsafe"

	"github.com/haoud/silicium/kernel"
	"github.com/haoud/silicium/kernel/addr"
	"github.com/haoud/silicium/kernel/mem"
	"github.com/haoud/silicium/kernel/mem/pmm"
)

// pageLevels is PML4, PDPT, PD, PT.
const pageLevels = 4

// entriesPerTable is the fixed 512-entry width of every paging level.
const entriesPerTable = 4096 / 8

// pageLevelShifts holds, per level, the bit position of that level's index
// field within a virtual address (spec §4.2: "(V >> 39) & 0x1FF, (V >> 30)
// & 0x1FF, (V >> 21) & 0x1FF, (V >> 12) & 0x1FF").
var pageLevelShifts = [pageLevels]uint{39, 30, 21, 12}

const tableIndexMask = uintptr(entriesPerTable - 1)

// userHalfBoundary is the first virtual address outside the user half
// (spec §3 Virtual address / §4.2 kernel-user split).
const userHalfBoundary = uintptr(0x0000_8000_0000_0000)

var (
	ErrMissingTable  = &kernel.Error{Module: "vmm", Message: "missing intermediate page table"}
	ErrOutOfMemory   = &kernel.Error{Module: "vmm", Message: "out of physical memory"}
	ErrAlreadyMapped = &kernel.Error{Module: "vmm", Message: "virtual address already mapped"}
	ErrNotMapped     = &kernel.Error{Module: "vmm", Message: "virtual address not mapped"}

	// frameAllocatorFn is the sole source of frames for intermediate page
	// tables; it is pmm.AllocFrame in production and overridden by tests.
	frameAllocatorFn = pmm.AllocFrame

	// frameDirectMapFn/physDirectMapFn are the sole means this package uses
	// to turn a physical address into a dereferenceable pointer. Routing
	// every access through these (method-expression) seams, rather than
	// calling addr.Frame.DirectMapped/addr.Physical.DirectMapped directly,
	// lets tests substitute a plain Go-backed array for "physical memory"
	// without a real HHDM.
	frameDirectMapFn = addr.Frame.DirectMapped
	physDirectMapFn  = addr.Physical.DirectMapped
)

// missingPolicy controls what walk does when it reaches a not-present
// intermediate entry (spec §4.2 "Missing-entry policy (a parameter to the
// walk, not a global decision)").
type missingPolicy struct {
	allocate bool
	flags    PageTableEntryFlag
}

// failOnMissing surfaces ErrMissingTable instead of allocating.
var failOnMissing = missingPolicy{}

// allocateOnMissing allocates, zeroes (via the HHDM), and installs a fresh
// intermediate table, tagging it with flags in addition to PRESENT|WRITABLE
// (and USER, if the walked address is in the user half).
func allocateOnMissing(flags PageTableEntryFlag) missingPolicy {
	return missingPolicy{allocate: true, flags: flags}
}

// rootTable returns the direct-mapped view of the PML4 at physical address
// root.
func rootTable(root uintptr) *[entriesPerTable]pageTableEntry {
	p, ok := addr.NewPhysical(root)
	if !ok {
		panic("vmm: invalid PML4 physical address")
	}
	return (*[entriesPerTable]pageTableEntry)(unsafe.Pointer(physDirectMapFn(p)))
}

// zeroFrame clears frame's contents through the HHDM (spec §4.5: "the only
// mechanism used by the page table engine to zero newly-allocated
// intermediate tables").
func zeroFrame(frame addr.Frame) {
	kernel.Memset(frameDirectMapFn(frame), 0, uintptr(mem.PageSize))
}

// walk descends the 4-level tree rooted at the PML4 at physical address
// root, following the indices vaddr decomposes into, and returns the final
// entry reached: either the level-3 (PT) entry, or a level-1 (PDPT) or
// level-2 (PD) entry if a huge page terminates the walk early (spec §4.2
// "Huge-page entries at PDPT or PD terminate the walk early").
func walk(root uintptr, vaddr uintptr, policy missingPolicy) (*pageTableEntry, *kernel.Error) {
	table := rootTable(root)

	for level := 0; level < pageLevels; level++ {
		index := (vaddr >> pageLevelShifts[level]) & tableIndexMask
		entry := &table[index]

		if level == pageLevels-1 {
			return entry, nil
		}

		if entry.present() {
			if entry.huge() {
				return entry, nil
			}
			table = entry.table()
			continue
		}

		if !policy.allocate {
			return nil, ErrMissingTable
		}

		frame, kerr := frameAllocatorFn()
		if kerr != nil {
			return nil, ErrOutOfMemory
		}
		zeroFrame(frame)

		newFlags := FlagPresent | FlagWritable | policy.flags
		if vaddr < userHalfBoundary {
			newFlags |= FlagUser
		}
		entry.setFrame(frame)
		entry.setFlags(newFlags)
		table = entry.table()
	}

	return nil, ErrMissingTable
}
