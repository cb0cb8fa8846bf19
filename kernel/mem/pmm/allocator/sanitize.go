package allocator

import (
	"github.com/haoud/silicium/kernel/addr"
	"github.com/haoud/silicium/kernel/mem"
	"github.com/haoud/silicium/kernel/mem/pmm"
	"github.com/haoud/silicium/multiboot"
)

// Sanitize converts the bootloader-reported memory map into the region
// list the boot allocator and, later, pmm.New consume. It page-aligns
// every Usable region's base up and its end down (spec §4.9's invariant
// that the allocator relies on), and carves the running kernel image out
// of whichever region contains it, inserting a pmm.Kernel region in its
// place. Regions are returned in the order the bootloader reports them;
// they are not sorted.
func Sanitize(kernelStart, kernelEnd uintptr) []pmm.Region {
	pageSizeMinus1 := uint64(mem.PageSize - 1)

	var regions []pmm.Region
	multiboot.VisitMemRegions(func(entry *multiboot.MemoryMapEntry) bool {
		kind, ok := regionKind(entry.Type)
		if !ok {
			return true
		}

		start := entry.PhysAddress
		end := entry.PhysAddress + entry.Length
		if kind == pmm.Usable {
			// Round the usable sub-range in; a partial page at either
			// edge cannot be safely handed out as a whole frame.
			start = (start + pageSizeMinus1) &^ pageSizeMinus1
			end &^= pageSizeMinus1
		}
		if end <= start {
			return true
		}

		regions = append(regions, pmm.Region{
			Start: addr.Physical(start),
			End:   addr.Physical(end),
			Kind:  kind,
		})
		return true
	})

	return carveOutKernel(regions, kernelStart, kernelEnd)
}

func regionKind(t multiboot.MemoryEntryType) (pmm.RegionKind, bool) {
	switch t {
	case multiboot.MemAvailable:
		return pmm.Usable, true
	case multiboot.MemAcpiReclaimable:
		return pmm.AcpiReclaimable, true
	case multiboot.MemReserved, multiboot.MemNvs:
		return pmm.Reserved, true
	default:
		return pmm.Reserved, true
	}
}

// carveOutKernel splits the Usable region (if any) that overlaps
// [kernelStart, kernelEnd) into up to two remaining Usable regions plus
// a pmm.Kernel region covering the image, rounded out to page
// boundaries.
func carveOutKernel(regions []pmm.Region, kernelStart, kernelEnd uintptr) []pmm.Region {
	pageSizeMinus1 := uintptr(mem.PageSize - 1)
	start := addr.Physical(kernelStart &^ pageSizeMinus1)
	end := addr.Physical((kernelEnd + pageSizeMinus1) &^ pageSizeMinus1)

	out := make([]pmm.Region, 0, len(regions)+2)
	for _, reg := range regions {
		if reg.Kind != pmm.Usable || end <= reg.Start || start >= reg.End {
			out = append(out, reg)
			continue
		}

		if reg.Start < start {
			out = append(out, pmm.Region{Start: reg.Start, End: start, Kind: pmm.Usable})
		}
		out = append(out, pmm.Region{Start: start, End: end, Kind: pmm.Kernel})
		if end < reg.End {
			out = append(out, pmm.Region{Start: end, End: reg.End, Kind: pmm.Usable})
		}
	}
	return out
}
