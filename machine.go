// machine.go - Machine assembly for Aurora-32

/*
    ___                                      ________
   /   | __  ___________  _________ _      |__  /__ \
  / /| |/ / / / ___/ __ \/ ___/ __ `/________/_ <__/ /
 / ___ / /_/ / /  / /_/ / /  / /_/ /_____/___/ // __/
/_/  |_\__,_/_/   \____/_/   \__,_/      /____//____/

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/Aurora32
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

/*
machine.go - Machine Assembly

One Machine is one complete computer: RAM, bus, CPU, GPU, keyboard, storage
controller, speaker and filesystem, constructed together and owned
together. Nothing here is process-global; every test and every guest
session builds its own instance and throws it away.

The host driver contract lives on this type: construct with a memory size,
LoadProgram, SetEntry, then Step/Run and inspect registers, Halted,
ExitCode and ConsoleOutput.
*/

package main

import "fmt"

// Machine bundles the CPU with its bus and peripherals.
type Machine struct {
	bus  *MachineBus
	cpu  *CPU
	gpu  *GPU
	kbd  *Keyboard
	stor *StorageController
	spk  *Speaker
	fs   *FileSystem
}

// NewMachine builds a machine with ramSize bytes of RAM and a filesystem
// sandboxed to fsRoot. The standard peripheral windows are mapped in
// access-frequency order: GPU first, then storage, keyboard, speaker.
func NewMachine(ramSize uint32, fsRoot string) (*Machine, error) {
	m := &Machine{
		bus:  NewMachineBus(ramSize),
		gpu:  NewGPU(),
		kbd:  NewKeyboard(),
		stor: NewStorageController(),
		spk:  NewSpeaker(),
		fs:   NewFileSystem(fsRoot),
	}

	type window struct {
		base, size uint32
		name       string
		dev        MMIODevice
	}
	for _, w := range []window{
		{GPU_REGION_BASE, GPU_REGION_SIZE, "GPU", m.gpu},
		{STOR_REGION_BASE, STOR_REGION_SIZE, "Storage", m.stor},
		{KBD_REGION_BASE, KBD_REGION_SIZE, "Keyboard", m.kbd},
		{SPK_REGION_BASE, SPK_REGION_SIZE, "Speaker", m.spk},
	} {
		if err := m.bus.MapDevice(w.base, w.size, w.name, w.dev); err != nil {
			return nil, fmt.Errorf("machine bus: %w", err)
		}
	}

	m.cpu = NewCPU(m.bus)
	m.cpu.gpu = m.gpu
	m.cpu.kbd = m.kbd
	m.cpu.stor = m.stor
	m.cpu.fs = m.fs

	m.gpu.SetBellCallback(m.spk.Beep)

	return m, nil
}

// CPU returns the machine's processor.
func (m *Machine) CPU() *CPU { return m.cpu }

// Bus returns the machine bus.
func (m *Machine) Bus() *MachineBus { return m.bus }

// GPU returns the graphics device.
func (m *Machine) GPU() *GPU { return m.gpu }

// Keyboard returns the keyboard FIFO.
func (m *Machine) Keyboard() *Keyboard { return m.kbd }

// Storage returns the storage controller.
func (m *Machine) Storage() *StorageController { return m.stor }

// Speaker returns the beeper.
func (m *Machine) Speaker() *Speaker { return m.spk }

// FileSystem returns the sandboxed guest filesystem.
func (m *Machine) FileSystem() *FileSystem { return m.fs }

// LoadProgram copies a flat binary image into RAM at addr.
func (m *Machine) LoadProgram(data []byte, addr uint32) error {
	return m.bus.LoadBytes(addr, data)
}

// SetEntry points the CPU at the program entry address.
func (m *Machine) SetEntry(pc uint32) {
	m.cpu.SetPC(pc)
}

// Step executes one CPU transition.
func (m *Machine) Step() {
	m.cpu.Step()
}

// Run steps the CPU until halt or the step budget runs out; returns the
// steps consumed.
func (m *Machine) Run(maxSteps int) int {
	return m.cpu.Run(maxSteps)
}

// ConsoleOutput drains and returns the console byte log.
func (m *Machine) ConsoleOutput() string {
	return m.gpu.DrainConsole()
}

// Reset returns the whole machine to power-on state. Attached storage
// media survive, matching hardware where a reset does not eject disks.
func (m *Machine) Reset() {
	m.cpu.Reset()
	m.bus.Reset()
	m.gpu.Reset()
	m.kbd.Reset()
	m.stor.Reset()
	m.spk.Reset()
}

// Shutdown flushes file-backed disk images and closes guest file handles.
func (m *Machine) Shutdown() error {
	m.fs.CloseAll()
	return m.stor.FlushAll()
}
