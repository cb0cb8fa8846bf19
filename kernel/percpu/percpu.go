// Package percpu implements per-core state (spec §4.4).
//
// The original design places every per-CPU variable in a linker-defined
// template section and, on each core's bring-up, copies that template into
// a freshly allocated buffer whose address is loaded into GS_BASE; a cell's
// address is then the template offset added to the per-CPU base read back
// from GS:0. Go's linker gives no equivalent of a custom per-CPU section, so
// this package keeps the same guarantee — each core sees its own private
// copy of T, guarded against concurrent access from an interrupt on the
// same core — via a dense array indexed by a per-core slot assigned at
// Bootstrap time and recovered from GS_BASE, rather than a template copy.
// This is recorded as a deliberate adaptation, not an oversight: see
// DESIGN.md.
package percpu

import (
	"github.com/haoud/silicium/kernel/irq"
	"github.com/haoud/silicium/kernel/sync"
)

// MaxCPUs bounds the number of cores this kernel image can bring up.
const MaxCPUs = 256

var (
	// currentFn returns the calling core's slot index. Overridden by
	// tests; in production it resolves to currentCPUIndex (amd64 file),
	// which reads the index back out of GS_BASE.
	currentFn = currentCPUIndex

	mu         sync.Spinlock
	nextIndex  uint32
	lapicIndex = map[uint64]uint32{}

	// programGSBaseFn is a mockable seam over programGSBase, following the
	// same pattern as kernel/irq's enableFn/disableFn.
	programGSBaseFn = programGSBase
)

// PerCpu holds one private T per core. The zero value is MaxCPUs
// zero-valued T slots; no construction step is required beyond declaring
// a package-level `var x percpu.PerCpu[T]`, mirroring the teacher's
// `#[percpu] static` declarations.
type PerCpu[T any] struct {
	slots [MaxCPUs]T
}

// Guard grants access to one core's slot of a PerCpu[T]. Go has no
// Deref/DerefMut traits to overload, so Guard exposes the slot through an
// explicit pointer (Value) rather than operator dispatch; the important
// property — IRQs disabled for the guard's lifetime, restored on Release —
// is preserved.
type Guard[T any] struct {
	Value    *T
	irqState irq.State
}

// Release restores the interrupt state saved when the guard was created.
// Callers must not use Value after calling Release.
func (g *Guard[T]) Release() {
	irq.Restore(g.irqState)
}

// Local returns a guard over the calling core's slot, with interrupts
// disabled for the guard's lifetime.
func (p *PerCpu[T]) Local() *Guard[T] {
	state := irq.SaveAndDisable()
	return &Guard[T]{Value: &p.slots[currentFn()], irqState: state}
}

// With runs f with the calling core's slot, disabling interrupts for the
// duration — the short-lived equivalent of Local()/Release().
func (p *PerCpu[T]) With(f func(*T)) {
	g := p.Local()
	defer g.Release()
	f(g.Value)
}

// Bootstrap assigns the calling core (identified by its LAPIC id) a dense
// per-core slot index and programs GS_BASE so that currentCPUIndex can
// recover it later. Must be called exactly once per core, early during that
// core's initialization (spec §4.4 step order: GS_BASE before anything else
// touches a PerCpu cell).
func Bootstrap(lapicID uint64) uint32 {
	mu.Acquire()
	defer mu.Release()

	if idx, ok := lapicIndex[lapicID]; ok {
		return idx
	}
	if nextIndex >= MaxCPUs {
		panic("percpu: too many cores for MaxCPUs")
	}

	idx := nextIndex
	nextIndex++
	lapicIndex[lapicID] = idx
	programGSBaseFn(idx)
	return idx
}
