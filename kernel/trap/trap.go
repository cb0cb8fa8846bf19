// Package trap implements the unified exception/IRQ/syscall dispatcher.
// Every trap source converges on a single InterruptFrame shape and is
// routed through Dispatch to a handler that returns a Resume verdict,
// which the scheduler (kernel/sched) interprets.
package trap

import (
	"sync/atomic"

	"github.com/haoud/silicium/kernel/gate"
	"github.com/haoud/silicium/kernel/kfmt"
)

// Kind tags which of the three trap categories produced a frame.
type Kind uint8

const (
	// KindException covers CPU exceptions (vectors 0-31).
	KindException Kind = 0

	// KindIRQ covers hardware interrupts delivered through the IOAPIC/LAPIC,
	// including the APIC timer and the TLB shootdown IPI.
	KindIRQ Kind = 1

	// KindSyscall covers userspace entries via the syscall instruction.
	KindSyscall Kind = 2
)

// TimerVector is the dedicated APIC timer vector (spec §6).
const TimerVector = 32

// ShootdownVector is the dedicated cross-core TLB invalidation vector
// (spec §6); its handler runs lock-free and does not go through the
// named-callback IRQ registry.
const ShootdownVector = 0xA0

// Frame is the fixed-layout record every trap converges on: the saved
// register file (gate.Registers already merges the CPU-pushed return frame
// and the general-purpose set) plus the tagging the dispatcher needs to
// demux without knowing which stub produced it.
type Frame struct {
	*gate.Registers

	// Kind distinguishes exception/IRQ/syscall.
	Kind Kind

	// Data is the vector number (exception, IRQ) or syscall number.
	Data uint64

	// Error is the CPU-pushed error code for exceptions that have one,
	// 0 otherwise.
	Error uint64
}

// resumeKind enumerates the dispositions a handler can hand back to the
// scheduler after a trap.
type resumeKind uint8

const (
	resumeContinue resumeKind = iota
	resumeYield
	resumeTerminate
	resumeKill
)

// Resume is the verdict a trap handler returns; the scheduler (kernel/sched)
// is the sole consumer (spec §4.6/§4.7).
type Resume struct {
	kind resumeKind
	code uint32
}

// Continue resumes the thread immediately; it will re-execute without a
// full context save if it has not yet reached its scheduling deadline.
var Continue = Resume{kind: resumeContinue}

// Yield saves the thread's context and re-enqueues it unconditionally.
var Yield = Resume{kind: resumeYield}

// Terminate reports that the thread exited normally with the given code.
func Terminate(code uint32) Resume { return Resume{kind: resumeTerminate, code: code} }

// Kill reports that the thread was killed (e.g. by an unhandled exception
// or a signal) with the given code.
func Kill(code uint32) Resume { return Resume{kind: resumeKill, code: code} }

// IsContinue reports whether r is Continue.
func (r Resume) IsContinue() bool { return r.kind == resumeContinue }

// IsYield reports whether r is Yield.
func (r Resume) IsYield() bool { return r.kind == resumeYield }

// Terminated reports whether r is Terminate, and if so its exit code.
func (r Resume) Terminated() (code uint32, ok bool) {
	return r.code, r.kind == resumeTerminate
}

// Killed reports whether r is Kill, and if so its code.
func (r Resume) Killed() (code uint32, ok bool) {
	return r.code, r.kind == resumeKill
}

// ExceptionHandlerFn handles a CPU exception. It may consult CR2 (page
// faults) via the caller-supplied frame and returns a verdict for the
// trapped thread.
type ExceptionHandlerFn func(frame *Frame) Resume

// IRQHandlerFn handles a hardware interrupt. Unlike exceptions, several
// named callbacks may be registered against the same vector (spec §4.6:
// "fires any registered per-IRQ callbacks (name-keyed)").
type IRQHandlerFn func(frame *Frame)

// SyscallHandlerFn handles one syscall number.
type SyscallHandlerFn func(frame *Frame) Resume

type namedIRQHandler struct {
	name string
	fn   IRQHandlerFn
}

var (
	exceptionHandlers [32]ExceptionHandlerFn
	irqHandlers       = map[uint64][]namedIRQHandler{}
	syscallHandlers   = map[uint64]SyscallHandlerFn{}

	// endOfInterruptFn signals the LAPIC that an IRQ has been serviced.
	// It is a function variable, rather than a direct call, so that tests
	// can run Dispatch without a real LAPIC present; production code
	// wires it up during Init.
	endOfInterruptFn = func() {}

	// jiffies is the free-running tick counter advanced by the BSP's
	// timer IRQ (spec §6: "Each tick increments a global JIFFIES atomic").
	jiffies uint64
)

// unhandledException is the default verdict for an exception with no
// registered handler: the originating thread cannot continue safely.
func unhandledException(frame *Frame) Resume {
	kfmt.Printf("trap: unhandled exception %d (error=%x)\n", frame.Data, frame.Error)
	kfmt.Printf("RIP = %16x CS = %16x RFL = %16x\n", frame.Registers.RIP, frame.Registers.CS, frame.Registers.RFlags)
	return Kill(uint32(frame.Data))
}

// RegisterException installs the handler for the given exception vector
// (< 32). Passing a nil handler restores the default kill-on-unhandled
// behavior.
func RegisterException(vector uint8, handler ExceptionHandlerFn) {
	exceptionHandlers[vector] = handler
}

// RegisterIRQ adds a named callback for the given IRQ vector. Multiple
// callbacks may be registered against the same vector; all of them fire,
// in registration order, on every occurrence.
func RegisterIRQ(vector uint64, name string, handler IRQHandlerFn) {
	irqHandlers[vector] = append(irqHandlers[vector], namedIRQHandler{name: name, fn: handler})
}

// RegisterSyscall installs the handler for the given syscall number.
// Passing a nil handler removes any existing registration, causing the
// number to again report as unimplemented.
func RegisterSyscall(number uint64, handler SyscallHandlerFn) {
	if handler == nil {
		delete(syscallHandlers, number)
		return
	}
	syscallHandlers[number] = handler
}

// Jiffies returns the current tick count.
func Jiffies() uint64 { return atomic.LoadUint64(&jiffies) }

// Dispatch routes frame to the handler selected by its Kind, returning the
// verdict the scheduler should apply. This is the single convergence point
// every assembly trap stub's Go-side call eventually reaches (spec §4.6).
func Dispatch(frame *Frame) Resume {
	switch frame.Kind {
	case KindException:
		return dispatchException(frame)
	case KindIRQ:
		dispatchIRQ(frame)
		return Continue
	case KindSyscall:
		return dispatchSyscall(frame)
	default:
		kfmt.Printf("trap: frame with unknown kind %d\n", frame.Kind)
		return Kill(0)
	}
}

func dispatchException(frame *Frame) Resume {
	if frame.Data < uint64(len(exceptionHandlers)) {
		if handler := exceptionHandlers[frame.Data]; handler != nil {
			return handler(frame)
		}
	}
	return unhandledException(frame)
}

func dispatchIRQ(frame *Frame) {
	// The shootdown vector is handled inline, lock-free, ahead of the
	// named-callback registry (spec §5: "do not acquire any mutex inside
	// the trap dispatcher's shortest paths... TLB shootdown handler").
	if frame.Data == ShootdownVector {
		handleShootdown()
		endOfInterruptFn()
		return
	}

	if frame.Data == TimerVector {
		atomic.AddUint64(&jiffies, 1)
	}

	for _, h := range irqHandlers[frame.Data] {
		h.fn(frame)
	}
	endOfInterruptFn()
}

func dispatchSyscall(frame *Frame) Resume {
	handler, ok := syscallHandlers[frame.Data]
	if !ok {
		kfmt.Printf("trap: unimplemented syscall %d\n", frame.Data)
		return Terminate(^uint32(0))
	}
	return handler(frame)
}
