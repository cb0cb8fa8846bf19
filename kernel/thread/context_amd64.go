package thread

import (
	"github.com/haoud/silicium/kernel/gate"
	"github.com/haoud/silicium/kernel/trap"
)

// Selector values match the flat GDT the rt0 bring-up code installs before
// jumping into Go: null, kernel code, kernel data, user code (RPL 3), user
// data (RPL 3), in that fixed order.
const (
	kernelCodeSelector = 0x08
	kernelDataSelector = 0x10
	userCodeSelector   = 0x1B
	userDataSelector   = 0x23

	// rflagsInterruptEnable is bit 9 (IF) of RFLAGS.
	rflagsInterruptEnable = 1 << 9
)

// Context is a thread's saved register state, restored by run whenever the
// thread is dispatched and captured back into it when a trap interrupts the
// thread (spec §4.8).
type Context struct {
	Registers gate.Registers
}

// newUserContext builds the trampoline frame spec §4.8 describes: a
// return-from-interrupt shaped frame that, the first time the thread runs,
// delivers control to entry in user mode with interrupts enabled and RSP
// pointing at the top of the thread's user stack.
func newUserContext(entry, userStackTop uintptr) Context {
	var ctx Context
	ctx.Registers.RIP = uint64(entry)
	ctx.Registers.RSP = uint64(userStackTop)
	ctx.Registers.CS = userCodeSelector
	ctx.Registers.SS = userDataSelector
	ctx.Registers.RFlags = rflagsInterruptEnable
	return ctx
}

// run is implemented in assembly. It loads ctx's registers (switching to
// ring 3 via IRETQ on the first run, or simply resuming a previously
// interrupted thread), and does not return to the caller until a trap
// occurs; at that point it has already saved the interrupted register state
// back into ctx and reports what kind of trap it was, along with the
// trap-specific data and CPU-pushed error code (spec §4.6's InterruptFrame
// tagging, done by the common entry stub rather than duplicated per-thread).
func run(ctx *Context) (kind trap.Kind, data uint64, errorCode uint64)
