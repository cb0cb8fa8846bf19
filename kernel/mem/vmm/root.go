package vmm

import "github.com/haoud/silicium/kernel"

// userEntries is the number of PML4 entries (0..256) reserved for the user
// half; the remaining 256..512 are the kernel half (spec §3 PML4, §4.2
// kernel/user split).
const userEntries = entriesPerTable / 2

// kernelRoot is the physical address of the canonical kernel PML4 built by
// Init. Every per-process PML4's kernel half is a copy of this one.
var kernelRoot uintptr

// Init builds the canonical kernel PML4 by recursively copying the
// bootloader-provided identity PML4's kernel half into freshly-allocated
// frames, tagging every copied entry GLOBAL so the mappings survive CR3
// reloads, and pre-allocating+zeroing every kernel PDPT slot so a later
// kernel-half change does not need to be propagated into any PML4 created
// before it (spec §4.2). bootRoot is the physical address of the
// bootloader's page table, still active when this runs.
func Init(bootRoot uintptr) *kernel.Error {
	frame, kerr := frameAllocatorFn()
	if kerr != nil {
		return ErrOutOfMemory
	}
	zeroFrame(frame)
	kernelRoot = uintptr(frame.Address().AsUintptr())

	src := rootTable(bootRoot)
	dst := rootTable(kernelRoot)
	for i := userEntries; i < entriesPerTable; i++ {
		if err := copyKernelSlot(&src[i], &dst[i]); err != nil {
			return err
		}
	}

	switchPDTFn(kernelRoot)
	return nil
}

// copyKernelSlot handles one top-level (PML4) kernel-half entry: if the
// bootloader's entry is absent, pre-allocate an empty PDPT so future kernel
// mappings never need propagating into sibling PML4s; if huge, share the
// leaf verbatim; otherwise recursively copy the PDPT subtree.
func copyKernelSlot(src, dst *pageTableEntry) *kernel.Error {
	if !src.present() {
		frame, kerr := frameAllocatorFn()
		if kerr != nil {
			return ErrOutOfMemory
		}
		zeroFrame(frame)
		dst.setFrame(frame)
		dst.setFlags(FlagPresent | FlagWritable | FlagGlobal)
		return nil
	}
	if src.huge() {
		*dst = *src
		dst.setFlags(FlagGlobal)
		return nil
	}
	return copySubtree(src, dst, 1)
}

// copySubtree recursively copies the table src points to (at the given
// paging level: 1=PDPT, 2=PD, 3=PT) into a freshly allocated frame
// referenced by dst, sharing PT-level and huge-page leaves verbatim and
// stopping the recursion there (spec §4.2 "Huge-page handling").
func copySubtree(src, dst *pageTableEntry, level int) *kernel.Error {
	frame, kerr := frameAllocatorFn()
	if kerr != nil {
		return ErrOutOfMemory
	}
	zeroFrame(frame)
	dst.setFrame(frame)
	dst.setFlags(src.flagsOnly() | FlagGlobal)

	srcTable, dstTable := src.table(), dst.table()

	if level == pageLevels-1 {
		for i := range srcTable {
			if srcTable[i].present() {
				dstTable[i] = srcTable[i]
				dstTable[i].setFlags(FlagGlobal)
			}
		}
		return nil
	}

	for i := range srcTable {
		if !srcTable[i].present() {
			continue
		}
		if srcTable[i].huge() {
			dstTable[i] = srcTable[i]
			dstTable[i].setFlags(FlagGlobal)
			continue
		}
		if err := copySubtree(&srcTable[i], &dstTable[i], level+1); err != nil {
			return err
		}
	}
	return nil
}

// NewUserRoot allocates a fresh PML4 whose kernel half (entries 256..512)
// is the canonical kernel PML4's kernel half and whose user half starts
// empty, ready for the ELF loader to populate (spec §4.2, §3 Process).
func NewUserRoot() (uintptr, *kernel.Error) {
	frame, kerr := frameAllocatorFn()
	if kerr != nil {
		return 0, ErrOutOfMemory
	}
	zeroFrame(frame)
	root := uintptr(frame.Address().AsUintptr())

	dst := rootTable(root)
	src := rootTable(kernelRoot)
	for i := userEntries; i < entriesPerTable; i++ {
		dst[i] = src[i]
	}
	return root, nil
}

// KernelRoot returns the physical address of the canonical kernel PML4.
func KernelRoot() uintptr { return kernelRoot }
