// Package sched implements the CFS-style fair scheduler (spec §4.7): a
// vruntime-ordered ready queue, deadline-based preemption, and the entry
// point that runs threads forever on the calling core.
package sched

import (
	"github.com/haoud/silicium/kernel/irq"
	"github.com/haoud/silicium/kernel/kfmt"
	"github.com/haoud/silicium/kernel/sync"
	"github.com/haoud/silicium/kernel/thread"
)

// quantum is the 20ms deadline granted to a thread once selected, expressed
// in nanoseconds (spec §4.7: "deadline = vruntime + 20 ms").
const quantum = 20_000_000

// fairScheduler is a single global ready queue shared by every core (spec
// §5: "The scheduler is a global structure under a single mutex"; spec's
// Non-goals explicitly exclude per-CPU run queues and load balancing).
type fairScheduler struct {
	mu sync.Spinlock

	// minVruntime is the floor new or re-enqueued threads are clamped to,
	// so a thread that has been blocked a long time cannot claim unfair
	// priority (spec §4.7 Insertion).
	minVruntime uint64

	// ready holds every Ready thread, unsorted; Select does a linear
	// sweep for the minimum rather than maintaining a sorted structure,
	// matching the teacher-grounded vector the spec explicitly allows
	// ("vector + sort, heap, or balanced tree"). A red-black tree is
	// listed in scheduler.rs as a possible future improvement, not a
	// requirement.
	ready []*thread.Thread
}

var scheduler fairScheduler

// add clamps t's vruntime to minVruntime, marks it Ready, and appends it to
// the queue. Callers must already hold scheduler.mu.
func (s *fairScheduler) add(t *thread.Thread) {
	if t.VRuntime() < s.minVruntime {
		t.SetVRuntime(s.minVruntime)
	}
	t.SetState(thread.Ready)
	s.ready = append(s.ready, t)
}

// popMin removes and returns the queued thread with the smallest vruntime,
// or nil if the queue is empty. Callers must already hold scheduler.mu.
func (s *fairScheduler) popMin() *thread.Thread {
	if len(s.ready) == 0 {
		return nil
	}

	minIndex := 0
	for i, t := range s.ready {
		if t.VRuntime() < s.ready[minIndex].VRuntime() {
			minIndex = i
		}
	}

	selected := s.ready[minIndex]
	s.ready = append(s.ready[:minIndex], s.ready[minIndex+1:]...)

	// Track the new floor: the smallest vruntime still queued, so the
	// next insertion cannot undercut every thread that has been waiting
	// (spec §4.7: "min_vruntime is updated to the smallest vruntime
	// currently queued").
	if len(s.ready) > 0 {
		floor := s.ready[0].VRuntime()
		for _, t := range s.ready[1:] {
			if t.VRuntime() < floor {
				floor = t.VRuntime()
			}
		}
		s.minVruntime = floor
	}

	return selected
}

// Enqueue adds t to the ready queue, making it eligible for selection by
// Enter on any core.
func Enqueue(t *thread.Thread) {
	scheduler.mu.Acquire()
	defer scheduler.mu.Release()
	scheduler.add(t)
}

// selectNext blocks (idling the CPU between attempts) until a thread is
// available, then removes it from the queue, assigns it a fresh deadline,
// and marks it Running (spec §4.7 Selection).
func selectNext() *thread.Thread {
	for {
		scheduler.mu.Acquire()
		t := scheduler.popMin()
		scheduler.mu.Release()

		if t != nil {
			t.SetDeadline(t.VRuntime() + quantum)
			t.SetState(thread.Running)
			return t
		}

		// Ready queue empty: idle with interrupts enabled until
		// something (e.g. the timer, a wake-up IRQ) arrives, then go
		// back and try again (spec §4.7: "enable interrupts, halt,
		// disable, retry").
		irq.EnableAndWait()
		irq.Disable()
	}
}

// Enter runs the scheduler's main loop on the calling core. It never
// returns in production; tests call the unexported step functions instead
// of this loop directly.
//
//go:noinline
func Enter() {
	for {
		t := selectNext()
		for t.State() == thread.Running {
			resume := t.Execute()
			_, terminated := resume.Terminated()
			_, killed := resume.Killed()

			switch {
			case terminated:
				t.SetState(thread.Exited)
				kfmt.Printf("sched: thread %d terminated with code %d\n", t.TID(), t.ExitCode())
			case killed:
				t.SetState(thread.Killed)
				kfmt.Printf("sched: thread %d killed with code %d\n", t.TID(), t.ExitCode())
			case resume.IsYield():
				Enqueue(t)
			case resume.IsContinue():
				if t.VRuntime() > t.Deadline() {
					Enqueue(t)
				}
				// else: still within its deadline, loop and
				// re-execute without a full re-enqueue.
			}
		}
	}
}
