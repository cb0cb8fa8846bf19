package thread

import (
	"testing"

	"github.com/haoud/silicium/kernel/trap"
)

func withMockedClock(t *testing.T, ticks ...uint64) {
	t.Helper()
	i := 0
	origNow := nowFn
	nowFn = func() uint64 {
		v := ticks[i]
		if i < len(ticks)-1 {
			i++
		}
		return v
	}
	t.Cleanup(func() { nowFn = origNow })
}

func withMockedRun(t *testing.T, kind trap.Kind, data, errorCode uint64) {
	t.Helper()
	orig := runFn
	runFn = func(ctx *Context) (trap.Kind, uint64, uint64) { return kind, data, errorCode }
	t.Cleanup(func() { runFn = orig })
}

func TestNewThreadStartsCreatedWithFreshTID(t *testing.T) {
	a := New(0x1000, 0x2000)
	b := New(0x1000, 0x2000)
	defer a.Release()
	defer b.Release()

	if a.State() != Created {
		t.Errorf("expected new thread to start Created, got %v", a.State())
	}
	if a.TID() == b.TID() {
		t.Error("expected distinct threads to receive distinct TIDs")
	}
}

func TestReleaseAllowsTIDReuse(t *testing.T) {
	a := New(0x1000, 0x2000)
	tid := a.TID()
	a.Release()

	b := New(0x1000, 0x2000)
	defer b.Release()
	if b.TID() != tid {
		t.Errorf("expected the released TID %v to be reused, got %v", tid, b.TID())
	}
}

func TestExecuteAccumulatesVRuntime(t *testing.T) {
	th := New(0x1000, 0x2000)
	defer th.Release()

	withMockedClock(t, 100, 130)
	withMockedRun(t, trap.KindSyscall, 999, 0)

	th.Execute()

	if th.VRuntime() != 30 {
		t.Errorf("expected vruntime to advance by 30, got %d", th.VRuntime())
	}
}

func TestExecuteHandlesClockWraparound(t *testing.T) {
	th := New(0x1000, 0x2000)
	defer th.Release()

	withMockedClock(t, 200, 50)
	withMockedRun(t, trap.KindSyscall, 999, 0)

	th.Execute()

	if th.VRuntime() != nanosPerTick {
		t.Errorf("expected vruntime to advance by exactly one tick on wraparound, got %d", th.VRuntime())
	}
}

func TestExecuteTerminateSetsExitCode(t *testing.T) {
	trap.RegisterSyscall(1, func(f *trap.Frame) trap.Resume { return trap.Terminate(7) })
	defer trap.RegisterSyscall(1, nil)

	th := New(0x1000, 0x2000)
	defer th.Release()

	withMockedClock(t, 0, 0)
	withMockedRun(t, trap.KindSyscall, 1, 0)

	resume := th.Execute()
	if _, ok := resume.Terminated(); !ok {
		t.Fatal("expected a Terminate verdict")
	}
	if th.ExitCode() != 7 {
		t.Errorf("expected exit code 7, got %d", th.ExitCode())
	}
}
