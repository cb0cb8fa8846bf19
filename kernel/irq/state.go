package irq

import "github.com/haoud/silicium/kernel/cpu"

// State captures whether interrupts were enabled at the moment it was
// saved, so a later Restore can put things back exactly as they were.
type State struct {
	enabled bool
}

var (
	// enableFn/disableFn/haltFn are mockable seams over the real
	// CPU-level primitives, following the same pattern as the rest of
	// the tree's archFn variables.
	enableFn  = cpu.EnableInterrupts
	disableFn = cpu.DisableInterrupts
	haltFn    = cpu.Halt

	// irqEnabled tracks the current interrupt-enable state on this core.
	// Reading the real flag back out of RFLAGS would need an extra
	// opcode this tree does not otherwise expose; this flag is kept in
	// lockstep by Enable/Disable/SaveAndDisable/Restore instead.
	irqEnabled = true
)

// Disable disables interrupts on the current core.
func Disable() {
	disableFn()
	irqEnabled = false
}

// Enable enables interrupts on the current core.
func Enable() {
	enableFn()
	irqEnabled = true
}

// Enabled reports whether interrupts are currently enabled.
func Enabled() bool { return irqEnabled }

// Save returns the current interrupt-enable state without changing it.
func Save() State { return State{enabled: irqEnabled} }

// SaveAndDisable saves the current interrupt-enable state and disables
// interrupts, returning the saved state for a later Restore.
func SaveAndDisable() State {
	state := Save()
	Disable()
	return state
}

// Restore re-enables interrupts if state was saved while they were
// enabled, or leaves them disabled otherwise.
func Restore(state State) {
	if state.enabled {
		Enable()
	} else {
		Disable()
	}
}

// EnableAndWait enables interrupts and halts the CPU until the next one
// arrives, used by the scheduler's idle loop (spec §4.7).
func EnableAndWait() {
	Enable()
	haltFn()
}
