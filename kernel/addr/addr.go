// Package addr defines the strongly-typed physical and virtual address
// primitives shared by the memory-management packages. Unlike the bare
// uintptr aliases used elsewhere in the tree, values of these types are
// only ever constructed through a validating constructor so that an
// out-of-range or non-canonical address cannot silently flow into the
// page table engine or the frame registry.
package addr

import "github.com/haoud/silicium/kernel/mem"

const (
	// physMaxBits is the architectural limit on physical address width.
	physMaxBits = 52
	physMax     = uintptr(1)<<physMaxBits - 1

	// kernelHalfStart is the first canonical kernel-half virtual address
	// (bits 63..47 all one).
	kernelHalfStart = uintptr(0xFFFF_8000_0000_0000)

	// userHalfEnd is one past the last canonical user-half virtual address
	// (bits 63..47 all zero).
	userHalfEnd = uintptr(0x0000_8000_0000_0000)

	// HHDMBase is the fixed kernel-half virtual address at which the
	// bootloader identity-maps all of physical memory (spec §4.5).
	HHDMBase = kernelHalfStart
)

// Physical is a validated physical address, at most 52 significant bits.
type Physical uintptr

// NewPhysical validates v and returns the corresponding Physical address.
// ok is false if v exceeds the architectural physical address width.
func NewPhysical(v uintptr) (p Physical, ok bool) {
	if v > physMax {
		return 0, false
	}
	return Physical(v), true
}

// AsUintptr returns the raw address value.
func (p Physical) AsUintptr() uintptr { return uintptr(p) }

// Frame returns the page-aligned frame index containing this address.
func (p Physical) Frame() Frame { return Frame(uintptr(p) >> mem.PageShift) }

// DirectMapped returns the kernel virtual address that maps this physical
// address 1:1 through the HHDM (spec §4.5): translate_phys(P) = HHDM_BASE+P.
func (p Physical) DirectMapped() uintptr { return HHDMBase + uintptr(p) }

// Frame is a page-aligned physical address, expressed as a dense frame
// index (address = index << PageShift).
type Frame uintptr

// InvalidFrame is returned by allocators that fail to reserve a frame.
const InvalidFrame = Frame(^uintptr(0))

// FrameFromIndex constructs a Frame from a raw frame index.
func FrameFromIndex(index uintptr) Frame { return Frame(index) }

// Index returns the dense frame index.
func (f Frame) Index() uintptr { return uintptr(f) }

// Valid reports whether f is a real frame (as opposed to InvalidFrame).
func (f Frame) Valid() bool { return f != InvalidFrame }

// Address returns the physical address of the first byte of this frame.
func (f Frame) Address() Physical { return Physical(uintptr(f) << mem.PageShift) }

// DirectMapped returns the HHDM virtual address backing this frame.
func (f Frame) DirectMapped() uintptr { return Physical(uintptr(f) << mem.PageShift).DirectMapped() }

// Space tags a Virtual address as belonging to the user or kernel half of
// the canonical 48-bit address space.
type Space interface {
	contains(v uintptr) bool
}

// User is the Space tag for the lower (user) half: addresses below 2^47.
type User struct{}

func (User) contains(v uintptr) bool { return v < userHalfEnd }

// Kernel is the Space tag for the upper (kernel) half: addresses at or
// above 0xFFFF_8000_0000_0000.
type Kernel struct{}

func (Kernel) contains(v uintptr) bool { return v >= kernelHalfStart }

// Virtual is a canonical virtual address tagged with the half of the
// address space it belongs to. Canonicality (bits 63..47 uniform) is
// enforced by the Space predicate at construction time.
type Virtual[S Space] uintptr

// TryNewVirtual validates v against S and returns the Virtual address, or
// ok=false if v is not canonical for that half.
func TryNewVirtual[S Space](v uintptr) (addr Virtual[S], ok bool) {
	var s S
	if !s.contains(v) {
		return 0, false
	}
	return Virtual[S](v), true
}

// AsUintptr returns the raw address value.
func (v Virtual[S]) AsUintptr() uintptr { return uintptr(v) }

// PageOffset returns the offset of v within its containing page.
func (v Virtual[S]) PageOffset() uintptr { return uintptr(v) & uintptr(mem.PageSize-1) }
