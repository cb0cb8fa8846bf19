package percpu

import "github.com/haoud/silicium/kernel/cpu"

// programGSBase records idx as the calling core's slot index by writing it
// into GS_BASE. currentCPUIndex reads it back out. This replaces the
// template's GS:0 base-pointer indirection (see percpu.go doc comment).
func programGSBase(idx uint32) {
	cpu.WriteMSR(cpu.MSRGSBase, uint64(idx))
}

// currentCPUIndex returns the slot index Bootstrap assigned to the calling
// core.
func currentCPUIndex() uint32 {
	return uint32(cpu.ReadMSR(cpu.MSRGSBase))
}
