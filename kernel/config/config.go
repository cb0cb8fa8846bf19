// Package config collects the kernel-wide tunables that the rest of the
// tree references by name instead of hard-coding. None of these are meant
// to vary at runtime; they are compile-time constants the way the teacher's
// gopher-os package expresses architecture constants (mm_constants_amd64.go,
// vmm_constants_amd64.go).
package config

const (
	// TimerHZ is the frequency, in Hz, at which the APIC timer fires once
	// calibrated against the PIT. Every tick increments the global jiffy
	// counter and drives scheduler preemption. Valid values are 10, 100,
	// 250 or 1000; asserted by init().
	TimerHZ = 1000

	// PageSize is the size, in bytes, of a single physical/virtual page.
	PageSize = 4096

	// PageShift is log2(PageSize); used to convert between addresses and
	// page/frame indices.
	PageShift = 12

	// MaxHandles bounds the number of kernel handles that can be
	// allocated across all processes at once.
	MaxHandles = 1024

	// MaxTasks bounds the number of threads (and therefore TIDs) the
	// kernel can have alive simultaneously.
	MaxTasks = 1024

	// MaxProcesses bounds the number of processes (and therefore PIDs)
	// the kernel can have alive simultaneously.
	MaxProcesses = 1024

	// KStackSize is the size, in bytes, of each thread's own kernel
	// stack (as opposed to the larger per-core kernel stack the trap
	// dispatcher switches to for the bulk of handler work).
	KStackSize = 8192
)

func init() {
	if TimerHZ != 10 && TimerHZ != 100 && TimerHZ != 250 && TimerHZ != 1000 {
		panic("config: TimerHZ must be one of 10, 100, 250, 1000")
	}
	if PageSize != 1<<PageShift {
		panic("config: PageSize must equal 1 << PageShift")
	}
	if KStackSize%PageSize != 0 || KStackSize < 8192 {
		panic("config: KStackSize must be a page-aligned multiple of PageSize, at least 8192")
	}
}
