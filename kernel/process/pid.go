package process

import (
	"github.com/haoud/silicium/kernel/config"
	"github.com/haoud/silicium/kernel/id"
)

// pidAllocator hands out process identifiers from [0, config.MaxProcesses),
// grounded on original_source/kernel/src/user/pid.rs's bitmap-backed
// PID_ALLOCATOR.
var pidAllocator = id.NewGenerator(config.MaxProcesses)

// PID identifies a process, unique among all processes currently alive in
// the system.
type PID uint32

// generatePID allocates a fresh PID, panicking if the system is out of
// process identifiers (pid.rs's Pid::generate().expect(...)).
func generatePID() PID {
	id, ok := pidAllocator.Generate()
	if !ok {
		panic("process: out of process identifiers")
	}
	return PID(id)
}

// release returns pid to the pool of identifiers available for reuse.
func (pid PID) release() {
	pidAllocator.Release(uint32(pid))
}
