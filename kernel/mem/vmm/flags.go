package vmm

// PageTableEntryFlag describes a flag that can be applied to a page table
// entry. Bit positions match the architectural layout (spec §6): PRESENT=0,
// WRITABLE=1, USER=2, WRITE_THROUGH=3, NO_CACHE=4, ACCESSED=5, DIRTY=6,
// HUGE_PAGE=7, GLOBAL=8, NO_EXECUTE=63. Bits 9-11 are software-defined; this
// tree uses bit 9 for CopyOnWrite, adapted from the teacher's lazy-allocation
// scheme (see fault_amd64.go).
type PageTableEntryFlag uint64

const (
	FlagPresent      PageTableEntryFlag = 1 << 0
	FlagWritable     PageTableEntryFlag = 1 << 1
	FlagUser         PageTableEntryFlag = 1 << 2
	FlagWriteThrough PageTableEntryFlag = 1 << 3
	FlagNoCache      PageTableEntryFlag = 1 << 4
	FlagAccessed     PageTableEntryFlag = 1 << 5
	FlagDirty        PageTableEntryFlag = 1 << 6
	FlagHuge         PageTableEntryFlag = 1 << 7
	FlagGlobal       PageTableEntryFlag = 1 << 8
	FlagCopyOnWrite  PageTableEntryFlag = 1 << 9
	FlagNoExecute    PageTableEntryFlag = 1 << 63
)
