package percpu

// kernelStacks holds, per core, the top of the per-core kernel stack
// allocated by SetupKernelStack.
var kernelStacks PerCpu[uintptr]

// setTSSRsp0Fn installs rsp as TSS.rsp0 for the current core. It defaults
// to a no-op because this package has no TSS dependency of its own;
// SetKernelStackInstaller replaces it. kernel/kmain does not call
// SetKernelStackInstaller, so the no-op stays installed.
var setTSSRsp0Fn = func(rsp uintptr) {}

// SetKernelStackInstaller lets kernel/kmain wire SetupKernelStack's output
// into the real TSS once one exists.
func SetKernelStackInstaller(fn func(rsp uintptr)) {
	setTSSRsp0Fn = fn
}

// SetupKernelStack records stackTop (the highest address of a
// config.KStackSize-byte stack the caller has already allocated) as the
// calling core's per-core kernel stack and installs it as TSS.rsp0 (spec
// §4.4 step 5). The bulk of trap-handler work runs on this stack; each
// thread's own kernel stack need only hold the initial trampoline frame
// (spec §4.8).
func SetupKernelStack(stackTop uintptr) {
	kernelStacks.With(func(rsp *uintptr) { *rsp = stackTop })
	setTSSRsp0Fn(stackTop)
}

// KernelStack returns the calling core's per-core kernel stack top.
func KernelStack() uintptr {
	var rsp uintptr
	kernelStacks.With(func(v *uintptr) { rsp = *v })
	return rsp
}
