package vmm

import (
	"github.com/haoud/silicium/kernel"
	"github.com/haoud/silicium/kernel/cpu"
	"github.com/haoud/silicium/kernel/gate"
	"github.com/haoud/silicium/kernel/kfmt"
	"github.com/haoud/silicium/kernel/mem"
	"github.com/haoud/silicium/kernel/trap"
)

// readCR2Fn reads the faulting address out of CR2; a seam so tests can
// drive pageFaultHandler without real hardware.
var readCR2Fn = cpu.ReadCR2

// InitFaultHandlers wires the page fault and general protection fault
// exception handlers into the trap dispatcher (spec §4.6: "Exception
// handler... may consult CR2 for page faults").
func InitFaultHandlers() {
	trap.RegisterException(uint8(gate.PageFaultException), handlePageFault)
	trap.RegisterException(uint8(gate.GPFException), handleGPF)
}

// handlePageFault resolves a copy-on-write fault by allocating a private
// frame, copying the shared zero page's contents into it through the HHDM,
// and retrying; every other page fault kills the faulting thread via the
// unified Resume verdict (spec §4.6, §7 "unhandled exception on a user
// thread transitions it to Killed").
func handlePageFault(frame *trap.Frame) trap.Resume {
	faultAddr := uintptr(readCR2Fn())
	root := CurrentRoot()

	entry, err := walk(root, faultAddr, failOnMissing)
	if err == nil && entry.present() && !entry.hasFlags(FlagWritable) && entry.hasFlags(FlagCopyOnWrite) {
		newFrame, kerr := frameAllocatorFn()
		if kerr == nil {
			kernel.Memcopy(frameDirectMapFn(entry.frame()), frameDirectMapFn(newFrame), uintptr(mem.PageSize))
			entry.clearFlags(FlagCopyOnWrite)
			entry.setFlags(FlagWritable)
			entry.setFrame(newFrame)
			flushTLBEntryFn(faultAddr)
			return trap.Continue
		}
	}

	kfmt.Printf("vmm: unrecoverable page fault at %16x (error=%x)\n", faultAddr, frame.Error)
	return trap.Kill(uint32(frame.Error))
}

// handleGPF kills the faulting thread; a GPF has no recoverable case at
// this layer.
func handleGPF(frame *trap.Frame) trap.Resume {
	kfmt.Printf("vmm: general protection fault (error=%x)\n", frame.Error)
	return trap.Kill(uint32(frame.Error))
}
