package pmm

import (
	"unsafe"

	"github.com/haoud/silicium/kernel"
	"github.com/haoud/silicium/kernel/addr"
	"github.com/haoud/silicium/kernel/mem"
	"github.com/haoud/silicium/kernel/sync"
)

var (
	errNoSpaceForRegistry = &kernel.Error{Module: "pmm", Message: "no usable region large enough to hold the frame registry"}

	// newInfoSliceFn materializes the frame-info array at a physical
	// location through the direct map. Tests override this to return a
	// plain Go-heap backed slice instead of reaching through the HHDM,
	// which does not exist under `go test`.
	newInfoSliceFn = func(location addr.Physical, count uintptr) []Info {
		return unsafe.Slice((*Info)(unsafe.Pointer(location.DirectMapped())), count)
	}
)

// Registry is the sole source of truth for which physical frames exist,
// are usable, are free, or are pinned (spec §4.1). It is constructed
// exactly once during late boot from the sanitized memory map and
// mutated thereafter only through Allocator and explicit retain calls.
type Registry struct {
	mu     sync.Spinlock
	frames []Info
}

// global is the single process-wide frame registry. It is nil until Init
// has been called from the boot CPU.
var global *Registry

// Init constructs the global registry from the sanitized memory map and
// installs it as the registry used by AllocFrame and returned by Global. It must be
// called exactly once, after the boot allocator has produced a fully
// sanitized region list (spec §4.1 Construction).
func Init(regions []Region) *kernel.Error {
	r, err := New(regions)
	if err != nil {
		return err
	}
	global = r
	return nil
}

// Global returns the process-wide registry installed by Init.
func Global() *Registry { return global }

// isRegularKind reports whether k counts towards the registry's extent
// (Usable, Kernel, AcpiReclaimable, BootloaderReclaimable all describe
// memory the kernel may eventually touch; Reserved/BadMemory do not).
func isRegularKind(k RegionKind) bool {
	switch k {
	case Usable, Kernel, AcpiReclaimable, BootloaderReclaimable:
		return true
	default:
		return false
	}
}

// New builds a Registry covering [0, end) where end is the highest end
// address across regular-memory regions, per spec §4.1 Construction.
func New(regions []Region) (*Registry, *kernel.Error) {
	var lastEnd addr.Physical
	for _, reg := range regions {
		if isRegularKind(reg.Kind) && reg.End > lastEnd {
			lastEnd = reg.End
		}
	}

	totalFrames := uintptr(lastEnd.Frame()) + 1
	arraySize := totalFrames * unsafe.Sizeof(Info{})
	arraySizePages := (mem.Size(arraySize) + mem.PageSize - 1) / mem.PageSize * mem.PageSize

	arrayLocation, ok := findSpaceFor(regions, mem.Size(arraySizePages))
	if !ok {
		return nil, errNoSpaceForRegistry
	}

	reg := &Registry{frames: newInfoSliceFn(arrayLocation, totalFrames)}

	for _, region := range regions {
		classifyRegion(reg.frames, region)
	}

	// Mark the frames backing the registry itself as permanently owned
	// by the kernel, regardless of what the region they were carved out
	// of was originally classified as.
	startFrame := arrayLocation.Frame()
	pageCount := uintptr(arraySizePages) / uintptr(mem.PageSize)
	for i := uintptr(0); i < pageCount; i++ {
		info := &reg.frames[uintptr(startFrame)+i]
		info.flags = Kernel | Regular
		info.count = 1
	}

	return reg, nil
}

// findSpaceFor returns the start of the first Usable region large enough
// to hold size contiguous bytes.
func findSpaceFor(regions []Region, size mem.Size) (addr.Physical, bool) {
	for _, region := range regions {
		if region.Kind != Usable {
			continue
		}
		if mem.Size(region.End-region.Start) >= size {
			return region.Start, true
		}
	}
	return 0, false
}

// classifyRegion applies spec §4.1's region-kind classification table to
// every frame covered by region.
func classifyRegion(frames []Info, region Region) {
	first, last := region.Frames()
	var flags Flags
	var count uint32

	switch region.Kind {
	case BadMemory:
		flags = Poisoned
	case Reserved:
		flags = Reserved
	case Kernel, AcpiReclaimable:
		flags, count = Regular|Kernel, 1
	case BootloaderReclaimable:
		flags, count = Boot, 1
	case Usable:
		flags = Regular | Free
	}

	for idx := uintptr(first); idx <= uintptr(last) && idx < uintptr(len(frames)); idx++ {
		frames[idx] = Info{flags: flags, count: count}
	}
}

// TotalFrames returns the number of frame-info records in the registry.
func (r *Registry) TotalFrames() int { return len(r.frames) }

// Info returns a copy of the frame-info record for f. It panics if f is
// out of range; callers that cannot guarantee f is in range should check
// against TotalFrames first.
func (r *Registry) Info(f addr.Frame) Info {
	r.mu.Acquire()
	defer r.mu.Release()
	return r.frames[uintptr(f)]
}
