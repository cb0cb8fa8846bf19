package trap

import (
	"github.com/haoud/silicium/kernel/cpu"
	"github.com/haoud/silicium/kernel/gate"
)

// exceptionVectorCount covers the architectural exception range (spec §6:
// "Vectors 0-31: exceptions").
const exceptionVectorCount = 32

// irqVectorTop is one past the highest vector Init wires into the common
// handler: the remapped-then-masked PIC range plus the APIC timer (spec §6:
// "The PIC is remapped to vectors 32..48").
const irqVectorTop = 48

// Init installs the common adapter on every vector the dispatcher owns:
// the 32 exception vectors, the IOAPIC-managed IRQ range, and the
// dedicated TLB shootdown vector. Must run after gate.Init.
func Init() {
	endOfInterruptFn = sendEOI

	for v := 0; v < exceptionVectorCount; v++ {
		gate.HandleInterrupt(gate.InterruptNumber(v), 0, makeAdapter(KindException, uint64(v)))
	}
	for v := TimerVector; v < irqVectorTop; v++ {
		gate.HandleInterrupt(gate.InterruptNumber(v), 0, makeAdapter(KindIRQ, uint64(v)))
	}
	gate.HandleInterrupt(gate.InterruptNumber(ShootdownVector), 0, makeAdapter(KindIRQ, ShootdownVector))
}

// makeAdapter returns the gate-level handler for a fixed (kind, vector)
// pair: it builds the unified Frame and feeds it to Dispatch. The verdict
// is discarded here for IRQs/exceptions reached outside thread execution
// (e.g. during early boot before a thread is running); kernel/thread's
// Execute calls Dispatch directly with the trapped thread's own frame and
// returns the verdict to kernel/sched.
func makeAdapter(kind Kind, vector uint64) func(*gate.Registers) {
	return func(regs *gate.Registers) {
		Dispatch(&Frame{
			Registers: regs,
			Kind:      kind,
			Data:      vector,
			Error:     regs.ErrorCode,
		})
	}
}

// handleShootdown performs a local full TLB flush by reloading CR3 with
// its own current value (spec §4.3: "the shootdown path also invalidates
// locally").
func handleShootdown() {
	cpu.SwitchPDT(cpu.ActivePDT())
}

// sendEOI signals the LAPIC that the current IRQ has been serviced. Wired
// as a function variable so tests can run Dispatch without a LAPIC driver
// present.
func sendEOI() {
	cpu.WriteMSR(msrLAPICEOI, 0)
}

// msrLAPICEOI is the x2APIC EOI register, written with any value to
// acknowledge the in-service interrupt.
const msrLAPICEOI = cpu.MSR(0x80B)

// BroadcastShootdown sends the TLB shootdown IPI to every other core
// (spec §4.3) and performs the local invalidation itself.
func BroadcastShootdown() {
	cpu.SendIPI(ShootdownVector)
	handleShootdown()
}
