package thread

import (
	"github.com/haoud/silicium/kernel/config"
	"github.com/haoud/silicium/kernel/id"
)

// tidAllocator hands out thread identifiers from [0, config.MaxTasks),
// grounded on original_source/kernel/src/user/tid.rs's bitmap-backed
// TID_ALLOCATOR.
var tidAllocator = id.NewGenerator(config.MaxTasks)

// TID identifies a thread, unique among all threads currently alive in the
// system. Generate hands out the lowest free identifier, so the first TID
// issued is 0.
type TID uint32

// generateTID allocates a fresh TID, panicking if the system is out of
// thread identifiers — mirroring tid.rs's Tid::generate().expect(...) at
// its only two call sites (both during thread creation, where there is no
// sensible recovery).
func generateTID() TID {
	id, ok := tidAllocator.Generate()
	if !ok {
		panic("thread: out of thread identifiers")
	}
	return TID(id)
}

// release returns tid to the pool of identifiers available for reuse.
func (tid TID) release() {
	tidAllocator.Release(uint32(tid))
}
