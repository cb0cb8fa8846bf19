package main

import "github.com/haoud/silicium/kernel/kmain"

var multibootInfoPtr uintptr

// main makes a dummy call to the real kernel entry point. The actual rt0
// assembly stub branches directly to kmain.Kmain with the real multiboot
// pointer and kernel image bounds; this main() exists only so `go build`
// has a package-main entry point to compile against and never runs in a
// booted image. A global variable is passed as an argument to prevent the
// compiler from inlining the call and dropping kmain.Kmain from the
// generated object file.
func main() {
	kmain.Kmain(multibootInfoPtr, 0, 0)
}
