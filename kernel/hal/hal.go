// Package hal wires together the hardware-facing pieces the kernel needs
// before a real driver framework exists: a text console and a terminal to
// multiplex kernel output onto it.
package hal

import (
	"github.com/haoud/silicium/kernel/driver/tty"
	"github.com/haoud/silicium/kernel/driver/video/console"
	"github.com/haoud/silicium/multiboot"
)

var (
	egaConsole = &console.Ega{}

	// ActiveTerminal points to the currently active terminal.
	ActiveTerminal = &tty.Vt{}
)

// InitTerminal provides a basic terminal to allow the kernel to emit some
// output until a full device/driver subsystem is set up.
func InitTerminal() {
	fbInfo := multiboot.GetFramebufferInfo()

	egaConsole.Init(uint16(fbInfo.Width), uint16(fbInfo.Height), uintptr(fbInfo.PhysAddr))
	ActiveTerminal.AttachTo(egaConsole)
}
