// Package kmain ties every kernel subsystem together into the boot
// sequence: the rt0 assembly stub hands control here once the GDT and an
// initial 4K stack are set up.
package kmain

import (
	"github.com/haoud/silicium/kernel"
	"github.com/haoud/silicium/kernel/cpu"
	"github.com/haoud/silicium/kernel/goruntime"
	"github.com/haoud/silicium/kernel/hal"
	"github.com/haoud/silicium/multiboot"
	"github.com/haoud/silicium/kernel/kfmt"
	"github.com/haoud/silicium/kernel/mem/pmm"
	"github.com/haoud/silicium/kernel/mem/pmm/allocator"
	"github.com/haoud/silicium/kernel/mem/vmm"
	"github.com/haoud/silicium/kernel/percpu"
	"github.com/haoud/silicium/kernel/sched"
	"github.com/haoud/silicium/kernel/trap"
)

var errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}

// Kmain is the only Go symbol visible to the rt0 initialization code. The
// rt0 stub passes the multiboot info pointer and the physical address range
// the kernel image itself occupies so the boot allocator can carve them out
// of the memory map before anything else touches physical memory.
//
// Kmain is not expected to return; if it does, the rt0 stub halts the CPU.
//
//go:noinline
func Kmain(multibootInfoPtr, kernelStart, kernelEnd uintptr) {
	multiboot.SetInfoPtr(multibootInfoPtr)

	hal.InitTerminal()
	hal.ActiveTerminal.Clear()

	regions := allocator.Sanitize(kernelStart, kernelEnd)
	if err := pmm.Init(regions); err != nil {
		kfmt.Panic(err)
	}

	if err := vmm.Init(cpu.ActivePDT()); err != nil {
		kfmt.Panic(err)
	}
	vmm.InitFaultHandlers()

	if err := goruntime.Init(); err != nil {
		kfmt.Panic(err)
	}

	percpu.Bootstrap(bootstrapLapicID())
	trap.Init()

	// Enter never returns in production; it only returns to tests that
	// drive the scheduler's step functions directly instead of this loop.
	sched.Enter()

	// Use kfmt.Panic instead of panic() to prevent the compiler from
	// treating this call as dead code and eliminating it.
	kfmt.Panic(errKmainReturned)
}

// bootstrapLapicID extracts the boot CPU's local APIC id from CPUID leaf 1
// (EBX bits 24-31), the value the BSP uses to identify itself before the
// APIC MMIO/MSR interface has been mapped.
func bootstrapLapicID() uint64 {
	_, ebx, _, _ := cpu.ID(1)
	return uint64(ebx >> 24)
}
