// machine_bus.go - Machine bus for Aurora-32

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
machine_bus.go - Machine Bus

This module implements the memory bus that forms the backbone of the
Aurora-32 memory subsystem. It presents one logical 32-bit address space to
the CPU and physically splits every access between flat RAM and the
registered peripheral windows (GPU, storage controller, keyboard, speaker).

Address resolution is a first-match-wins scan over an ordered list of
(base, size, device) windows with RAM as the fallback. Windows never
overlap; MapDevice rejects an overlapping registration outright rather than
letting two devices shadow each other.

Peripherals see the bus at byte granularity only. Halfword and word
operations are decomposed into little-endian byte accesses before routing,
which is what makes an SH or SW that straddles the last byte of a window
deliver each constituent byte to the correct handler. Peripheral register
reads compose the same way in reverse.

Accesses that fall outside RAM and every window are not a trap: the bus
prints a warning, reads return zero and writes are dropped. Guest-visible
error reporting belongs to the peripherals' own STATUS registers.
*/

package main

import "fmt"

// Bus32 is the CPU-facing contract for 32-bit bus operations.
type Bus32 interface {
	Read8(addr uint32) byte
	Read16(addr uint32) uint16
	Read32(addr uint32) uint32
	Write8(addr uint32, value byte)
	Write16(addr uint32, value uint16)
	Write32(addr uint32, value uint32)
	Reset()
}

// MMIODevice is implemented by every peripheral mapped onto the bus.
// Addresses passed in are absolute; devices compare against their own
// register constants. Reads and writes are byte-granular: the bus never
// hands a device anything wider.
type MMIODevice interface {
	ReadByte(addr uint32) byte
	WriteByte(addr uint32, value byte)
}

type busWindow struct {
	base uint32
	size uint32
	name string
	dev  MMIODevice
}

func (w *busWindow) contains(addr uint32) bool {
	return addr >= w.base && addr-w.base < w.size
}

// MachineBus routes CPU accesses to RAM or to mapped peripheral windows.
type MachineBus struct {
	ram     []byte
	windows []busWindow
}

// NewMachineBus creates a bus backed by ramSize bytes of zeroed RAM.
func NewMachineBus(ramSize uint32) *MachineBus {
	return &MachineBus{
		ram: make([]byte, ramSize),
	}
}

// MapDevice registers a peripheral window. Windows are scanned in
// registration order, so map the most frequently accessed devices first.
func (bus *MachineBus) MapDevice(base, size uint32, name string, dev MMIODevice) error {
	if size == 0 {
		return fmt.Errorf("map %s: zero-length window", name)
	}
	end := base + size - 1
	if end < base {
		return fmt.Errorf("map %s: window wraps address space", name)
	}
	for i := range bus.windows {
		w := &bus.windows[i]
		if base <= w.base+w.size-1 && w.base <= end {
			return fmt.Errorf("map %s: window %08x-%08x overlaps %s", name, base, end, w.name)
		}
	}
	bus.windows = append(bus.windows, busWindow{base: base, size: size, name: name, dev: dev})
	return nil
}

func (bus *MachineBus) findWindow(addr uint32) *busWindow {
	for i := range bus.windows {
		if bus.windows[i].contains(addr) {
			return &bus.windows[i]
		}
	}
	return nil
}

// Read8 reads one byte from RAM or the owning peripheral.
func (bus *MachineBus) Read8(addr uint32) byte {
	if w := bus.findWindow(addr); w != nil {
		return w.dev.ReadByte(addr)
	}
	if addr >= uint32(len(bus.ram)) {
		fmt.Printf("Warning: read8 outside RAM at %08x (%s)\n", addr, GetIORegion(addr))
		return 0
	}
	return bus.ram[addr]
}

// Read16 reads a little-endian halfword, composed from byte accesses so a
// halfword spanning a window edge still routes each byte correctly.
func (bus *MachineBus) Read16(addr uint32) uint16 {
	lo := uint16(bus.Read8(addr))
	hi := uint16(bus.Read8(addr + 1))
	return lo | hi<<8
}

// Read32 reads a little-endian word, composed from byte accesses.
func (bus *MachineBus) Read32(addr uint32) uint32 {
	b0 := uint32(bus.Read8(addr))
	b1 := uint32(bus.Read8(addr + 1))
	b2 := uint32(bus.Read8(addr + 2))
	b3 := uint32(bus.Read8(addr + 3))
	return b0 | b1<<8 | b2<<16 | b3<<24
}

// Write8 writes one byte to RAM or the owning peripheral.
func (bus *MachineBus) Write8(addr uint32, value byte) {
	if w := bus.findWindow(addr); w != nil {
		w.dev.WriteByte(addr, value)
		return
	}
	if addr >= uint32(len(bus.ram)) {
		fmt.Printf("Warning: write8 outside RAM at %08x (%s)\n", addr, GetIORegion(addr))
		return
	}
	bus.ram[addr] = value
}

// Write16 writes a little-endian halfword byte by byte.
func (bus *MachineBus) Write16(addr uint32, value uint16) {
	bus.Write8(addr, byte(value))
	bus.Write8(addr+1, byte(value>>8))
}

// Write32 writes a little-endian word byte by byte.
func (bus *MachineBus) Write32(addr uint32, value uint32) {
	bus.Write8(addr, byte(value))
	bus.Write8(addr+1, byte(value>>8))
	bus.Write8(addr+2, byte(value>>16))
	bus.Write8(addr+3, byte(value>>24))
}

// LoadBytes copies a program image into RAM at addr. Images never load into
// peripheral windows.
func (bus *MachineBus) LoadBytes(addr uint32, data []byte) error {
	end := uint64(addr) + uint64(len(data))
	if end > uint64(len(bus.ram)) {
		return fmt.Errorf("load of %d bytes at %08x exceeds RAM size %08x", len(data), addr, len(bus.ram))
	}
	copy(bus.ram[addr:], data)
	return nil
}

// RAMSize returns the size of backing RAM in bytes.
func (bus *MachineBus) RAMSize() uint32 {
	return uint32(len(bus.ram))
}

// Reset zeroes RAM. Peripheral state is reset by the peripherals themselves.
func (bus *MachineBus) Reset() {
	for i := range bus.ram {
		bus.ram[i] = 0
	}
}
