// keyboard.go - Keyboard FIFO device for Aurora-32

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
keyboard.go - Keyboard FIFO Device

A 16-deep key FIFO with drop-oldest overflow: when a 17th key arrives the
first one queued is lost, so the guest always sees the most recent input.
Host adapters (the ebiten frontend, the raw-stdin terminal host, lua
scripts, tests) inject keys with Push; the guest consumes them either by
reading KBD_DATA or through the getchar/getline syscalls.

All three registers are read-only from the bus; writes into the window are
dropped. A KBD_DATA read consumes a key only on byte offset 0, so a word
read of the register pops exactly one key.
*/

package main

import "sync"

// Keyboard is the key FIFO peripheral. One instance per machine.
type Keyboard struct {
	mu   sync.Mutex
	fifo []byte
	mods byte
}

// NewKeyboard creates an empty keyboard FIFO.
func NewKeyboard() *Keyboard {
	return &Keyboard{fifo: make([]byte, 0, KBD_FIFO_DEPTH)}
}

// Push queues one key code. On overflow the oldest queued key is dropped.
func (kbd *Keyboard) Push(key byte) {
	kbd.mu.Lock()
	defer kbd.mu.Unlock()
	if len(kbd.fifo) >= KBD_FIFO_DEPTH {
		copy(kbd.fifo, kbd.fifo[1:])
		kbd.fifo = kbd.fifo[:KBD_FIFO_DEPTH-1]
	}
	kbd.fifo = append(kbd.fifo, key)
}

// PushString queues each byte of s in order. Convenience for paste paths
// and scripted input.
func (kbd *Keyboard) PushString(s string) {
	for i := 0; i < len(s); i++ {
		kbd.Push(s[i])
	}
}

// Pop consumes the oldest queued key, reporting false when the FIFO is
// empty.
func (kbd *Keyboard) Pop() (byte, bool) {
	kbd.mu.Lock()
	defer kbd.mu.Unlock()
	if len(kbd.fifo) == 0 {
		return 0, false
	}
	key := kbd.fifo[0]
	copy(kbd.fifo, kbd.fifo[1:])
	kbd.fifo = kbd.fifo[:len(kbd.fifo)-1]
	return key, true
}

// Pending returns the number of buffered keys.
func (kbd *Keyboard) Pending() int {
	kbd.mu.Lock()
	defer kbd.mu.Unlock()
	return len(kbd.fifo)
}

// SetModifiers updates the live shift/ctrl/alt bitmask exposed through
// KBD_MODIFIER.
func (kbd *Keyboard) SetModifiers(mods byte) {
	kbd.mu.Lock()
	kbd.mods = mods
	kbd.mu.Unlock()
}

// Reset empties the FIFO and clears the modifier state.
func (kbd *Keyboard) Reset() {
	kbd.mu.Lock()
	kbd.fifo = kbd.fifo[:0]
	kbd.mods = 0
	kbd.mu.Unlock()
}

// ReadByte serves bus reads of the keyboard registers.
func (kbd *Keyboard) ReadByte(addr uint32) byte {
	kbd.mu.Lock()
	defer kbd.mu.Unlock()

	reg := addr &^ 3
	off := addr & 3
	switch reg {
	case KBD_STATUS:
		if off == 0 && len(kbd.fifo) > 0 {
			return 1
		}
	case KBD_DATA:
		// Consuming read, byte 0 only.
		if off == 0 && len(kbd.fifo) > 0 {
			key := kbd.fifo[0]
			copy(kbd.fifo, kbd.fifo[1:])
			kbd.fifo = kbd.fifo[:len(kbd.fifo)-1]
			return key
		}
	case KBD_MODIFIER:
		if off == 0 {
			return kbd.mods
		}
	}
	return 0
}

// WriteByte drops all writes; every keyboard register is read-only.
func (kbd *Keyboard) WriteByte(addr uint32, value byte) {
}
