package vmm

import (
	"github.com/haoud/silicium/kernel"
	"github.com/haoud/silicium/kernel/addr"
	"github.com/haoud/silicium/kernel/cpu"
	"github.com/haoud/silicium/kernel/trap"
)

var (
	// flushTLBEntryFn/switchPDTFn/activePDTFn are mockable seams over the
	// real CPU primitives.
	flushTLBEntryFn = cpu.FlushTLBEntry
	switchPDTFn     = cpu.SwitchPDT
	activePDTFn     = cpu.ActivePDT

	// shootdownFn broadcasts a TLB shootdown IPI to every other core
	// (spec §4.3). It is a function variable so package init order does
	// not require kernel/trap to be wired up in unit tests.
	shootdownFn = trap.BroadcastShootdown
)

// Map installs a mapping from vaddr to frame under the PML4 at physical
// address root, allocating any missing intermediate table along the way.
// Returns ErrAlreadyMapped without modifying anything if the final entry is
// already present (spec §4.2 map(), scenario 2: double-map rejection).
func Map(root uintptr, vaddr uintptr, frame addr.Frame, flags PageTableEntryFlag) *kernel.Error {
	entry, err := walk(root, vaddr, allocateOnMissing(flags))
	if err != nil {
		return err
	}
	if entry.present() {
		return ErrAlreadyMapped
	}

	entry.setFrame(frame)
	entry.setFlags(flags | FlagPresent)
	return nil
}

// Unmap clears the mapping for vaddr under root, shoots down the TLB
// (locally and across cores), and returns the frame that was mapped there.
// Returns ErrNotMapped if vaddr has no mapping (spec §4.2 unmap()).
func Unmap(root uintptr, vaddr uintptr) (addr.Frame, *kernel.Error) {
	entry, err := walk(root, vaddr, failOnMissing)
	if err != nil {
		return addr.InvalidFrame, ErrNotMapped
	}
	if !entry.present() {
		return addr.InvalidFrame, ErrNotMapped
	}

	frame := entry.frame()
	*entry = 0
	flushTLBEntryFn(vaddr)
	shootdownFn()
	return frame, nil
}

// Translate returns the frame vaddr is mapped to under root, or ok=false if
// it is not mapped (spec §4.2 translate()).
func Translate(root uintptr, vaddr uintptr) (frame addr.Frame, ok bool) {
	entry, err := walk(root, vaddr, failOnMissing)
	if err != nil || !entry.present() {
		return addr.InvalidFrame, false
	}
	return entry.frame(), true
}

// SetCurrent loads root into CR3, making it the active PML4 on the calling
// core (spec §4.2 set_current()).
func SetCurrent(root uintptr) { switchPDTFn(root) }

// CurrentRoot returns the physical address of the currently active PML4.
func CurrentRoot() uintptr { return activePDTFn() }
