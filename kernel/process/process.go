// Package process implements process identity and the system-wide process
// registry (spec §3 Process, §4.8).
package process

import "github.com/haoud/silicium/kernel/sync"

// Process is a container in which threads are allowed to run and share
// resources. A process cannot meaningfully exist without at least one
// thread, except during its own creation.
type Process struct {
	pid PID

	// pageTableRoot is the physical address of this process's PML4,
	// shared by every thread created under it.
	pageTableRoot uintptr
}

// New creates a process whose threads will run under pageTableRoot.
func New(pageTableRoot uintptr) *Process {
	return &Process{
		pid:           generatePID(),
		pageTableRoot: pageTableRoot,
	}
}

// PID returns the process's unique identifier.
func (p *Process) PID() PID { return p.pid }

// PageTableRoot returns the physical address of the process's PML4.
func (p *Process) PageTableRoot() uintptr { return p.pageTableRoot }

// Release returns the process's PID to the allocator. Call once the process
// has been removed from the registry and every thread belonging to it has
// exited.
func (p *Process) Release() { p.pid.release() }

var (
	mu        sync.Spinlock
	processes []*Process
)

// Register adds process to the system-wide process registry.
func Register(process *Process) {
	mu.Acquire()
	defer mu.Release()
	processes = append(processes, process)
}

// Remove takes process pid out of the registry and returns it. Panics if no
// such process is registered, mirroring process.rs's Remove (which indexes
// an Option produced by position().unwrap()): callers are expected to know
// the process they are removing is still registered.
func Remove(pid PID) *Process {
	mu.Acquire()
	defer mu.Release()

	for i, p := range processes {
		if p.pid == pid {
			processes = append(processes[:i], processes[i+1:]...)
			return p
		}
	}
	panic("process: Remove called with an unregistered PID")
}

// Get looks up a process by PID, returning nil if none is registered under
// it.
func Get(pid PID) *Process {
	mu.Acquire()
	defer mu.Release()

	for _, p := range processes {
		if p.pid == pid {
			return p
		}
	}
	return nil
}
