// Package thread implements thread identity, state, and context
// save/restore (spec §4.8).
package thread

import (
	"github.com/haoud/silicium/kernel/config"
	"github.com/haoud/silicium/kernel/trap"
)

// userStackBase is the fixed address new threads get as the top of their
// user stack, mirroring original_source/kernel/src/user/thread.rs's
// STACK_BASE constant. A future per-thread virtual memory region allocator
// is expected to replace this.
const userStackBase = 0x0000_07FF_FFFF_F000

// nanosPerTick converts one timer tick into nanoseconds at config.TimerHZ.
const nanosPerTick = 1_000_000_000 / config.TimerHZ

// nowFn reads the current time, expressed in nanoseconds derived from the
// free-running jiffy counter (kernel/trap). Overridden by tests.
var nowFn = func() uint64 { return trap.Jiffies() * nanosPerTick }

// runFn is a mockable seam over the assembly run function, following the
// same pattern as kernel/irq's enableFn/disableFn.
var runFn = run

// Thread is a single schedulable unit of execution belonging to a process
// (spec §3 Thread, §4.8).
type Thread struct {
	tid   TID
	state State

	context Context

	// pageTableRoot is the physical address of the PML4 this thread runs
	// under, shared with every other thread of the same process.
	pageTableRoot uintptr

	// vruntime and deadline are both in nanoseconds, accumulated and
	// compared by the scheduler (spec §4.7); owned here so a thread
	// carries its own scheduling state across enqueue/dequeue.
	vruntime uint64
	deadline uint64

	// exitCode holds the code passed to Resume.Terminate/Resume.Kill once
	// the thread has left the Running state for the last time.
	exitCode uint32
}

// New creates a thread that will begin executing at entry, under
// pageTableRoot, the first time the scheduler runs it. The thread starts in
// state Created and must be handed to kernel/sched.Enqueue to become
// eligible for execution.
func New(entry uintptr, pageTableRoot uintptr) *Thread {
	return &Thread{
		tid:           generateTID(),
		state:         Created,
		context:       newUserContext(entry, userStackBase),
		pageTableRoot: pageTableRoot,
	}
}

// TID returns the thread's unique identifier.
func (t *Thread) TID() TID { return t.tid }

// State returns the thread's current lifecycle state.
func (t *Thread) State() State { return t.state }

// SetState overwrites the thread's lifecycle state.
func (t *Thread) SetState(s State) { t.state = s }

// ExitCode returns the code a thread in state Exited or Killed left behind.
func (t *Thread) ExitCode() uint32 { return t.exitCode }

// VRuntime returns the thread's accumulated virtual runtime in nanoseconds.
func (t *Thread) VRuntime() uint64 { return t.vruntime }

// SetVRuntime overwrites the thread's accumulated virtual runtime, used by
// the scheduler to enforce the min_vruntime insertion clamp (spec §4.7).
func (t *Thread) SetVRuntime(v uint64) { t.vruntime = v }

// Deadline returns the nanosecond vruntime at which this thread should be
// preempted if still running.
func (t *Thread) Deadline() uint64 { return t.deadline }

// SetDeadline overwrites the thread's preemption deadline.
func (t *Thread) SetDeadline(d uint64) { t.deadline = d }

// PageTableRoot returns the physical address of the PML4 this thread runs
// under.
func (t *Thread) PageTableRoot() uintptr { return t.pageTableRoot }

// Release returns the thread's TID to the allocator. Call once the thread
// has been removed from every collection that could still observe it.
func (t *Thread) Release() { t.tid.release() }

// Execute resumes the thread until it traps, accounts the elapsed vruntime,
// and returns the trap verdict describing what the scheduler should do next
// (spec §4.7's per-iteration loop, §4.8's execute()).
func (t *Thread) Execute() trap.Resume {
	start := nowFn()
	kind, data, errorCode := runFn(&t.context)
	end := nowFn()

	// A timer tick that preempted the thread may not yet be reflected in
	// the jiffy counter read by nowFn at this point; treat a clock that
	// appears to have gone backwards as "one tick elapsed" instead
	// (spec §4.7).
	if end < start {
		end = start + nanosPerTick
	}
	t.vruntime += end - start

	frame := &trap.Frame{
		Registers: &t.context.Registers,
		Kind:      kind,
		Data:      data,
		Error:     errorCode,
	}
	resume := trap.Dispatch(frame)

	if code, ok := resume.Terminated(); ok {
		t.exitCode = code
	} else if code, ok := resume.Killed(); ok {
		t.exitCode = code
	}
	return resume
}
