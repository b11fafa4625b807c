// syscall_rv32.go - ECALL syscall dispatcher for Aurora-32

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
syscall_rv32.go - ECALL Syscall Dispatcher

The syscall number travels in a7, arguments in a0-a6, and the single return
value lands in a0. The layer never raises into the guest: an unknown number
returns 0xFFFFFFFF and execution continues, failed device and file
operations return the same sentinel, and only exit (syscall 0) halts the
machine - deliberately, with a0 as the exit code.

Console output (putchar, puts, getline echo) goes through the GPU's text
console discipline, so the cursor the guest sees in GPU_CURSOR_X/Y is the
one these syscalls move. getline is the only logically blocking call; it
suspends the CPU into the WaitLine state rather than blocking the host
thread, and stepGetline in this file is the WaitLine half of Step().
*/

package main

import "fmt"

// Syscall numbers (a7).
const (
	SYS_EXIT         = 0
	SYS_PUTCHAR      = 1
	SYS_GETCHAR      = 2
	SYS_PUTS         = 3
	SYS_READ_SECTOR  = 4
	SYS_WRITE_SECTOR = 5
	SYS_GETLINE      = 6
	SYS_FOPEN        = 7
	SYS_FREAD        = 8
	SYS_FWRITE       = 9
	SYS_FCLOSE       = 10
)

// SYSCALL_ERR is the sentinel returned in a0 for unknown syscall numbers
// and failed device or file operations.
const SYSCALL_ERR = 0xFFFFFFFF

// Guards against guest strings with no terminator wandering into MMIO
// windows that never read as zero.
const MAX_GUEST_STRING = 65536

// FILE_IO_CHUNK is the staging-buffer size for fread and fwrite. Transfers
// stream through it so the guest's byte count never sizes a host
// allocation.
const FILE_IO_CHUNK = 4096

func (cpu *CPU) syscall() {
	num := cpu.Reg(REG_A7)
	a0 := cpu.Reg(REG_A0)
	a1 := cpu.Reg(REG_A1)
	a2 := cpu.Reg(REG_A2)

	switch num {
	case SYS_EXIT:
		cpu.halt(a0)

	case SYS_PUTCHAR:
		cpu.gpu.PutChar(byte(a0))
		cpu.SetReg(REG_A0, 0)

	case SYS_GETCHAR:
		if key, ok := cpu.kbd.Pop(); ok {
			cpu.SetReg(REG_A0, uint32(key))
		} else {
			cpu.SetReg(REG_A0, SYSCALL_ERR)
		}

	case SYS_PUTS:
		count := uint32(0)
		for count < MAX_GUEST_STRING {
			b := cpu.bus.Read8(a0 + count)
			if b == 0 {
				break
			}
			cpu.gpu.PutChar(b)
			count++
		}
		cpu.SetReg(REG_A0, count)

	case SYS_READ_SECTOR:
		hdd := cpu.stor.Device(STOR_DEV_HDD)
		if hdd == nil {
			cpu.SetReg(REG_A0, SYSCALL_ERR)
			break
		}
		sector, err := hdd.ReadSector(uint64(a0))
		if err != nil {
			cpu.SetReg(REG_A0, SYSCALL_ERR)
			break
		}
		for i, b := range sector {
			cpu.bus.Write8(a1+uint32(i), b)
		}
		cpu.SetReg(REG_A0, 0)

	case SYS_WRITE_SECTOR:
		hdd := cpu.stor.Device(STOR_DEV_HDD)
		if hdd == nil {
			cpu.SetReg(REG_A0, SYSCALL_ERR)
			break
		}
		buf := make([]byte, SECTOR_SIZE)
		for i := range buf {
			buf[i] = cpu.bus.Read8(a1 + uint32(i))
		}
		if err := hdd.WriteSector(uint64(a0), buf); err != nil {
			cpu.SetReg(REG_A0, SYSCALL_ERR)
			break
		}
		cpu.SetReg(REG_A0, 0)

	case SYS_GETLINE:
		cpu.lineAddr = a0
		cpu.lineMax = a1
		cpu.lineBuf = cpu.lineBuf[:0]
		cpu.state = CPU_WAITLINE

	case SYS_FOPEN:
		name := cpu.readGuestString(a0)
		cpu.SetReg(REG_A0, cpu.fs.Open(name, a1))

	case SYS_FREAD:
		cpu.SetReg(REG_A0, cpu.fileRead(a0, a1, a2))

	case SYS_FWRITE:
		cpu.SetReg(REG_A0, cpu.fileWrite(a0, a1, a2))

	case SYS_FCLOSE:
		cpu.SetReg(REG_A0, cpu.fs.Close(a0))

	default:
		fmt.Printf("Warning: unknown syscall %d at PC=%08x\n", num, cpu.pc)
		cpu.SetReg(REG_A0, SYSCALL_ERR)
	}
}

// readGuestString reads a NUL-terminated string from guest memory. Filenames
// are capped well below MAX_GUEST_STRING.
func (cpu *CPU) readGuestString(addr uint32) string {
	var out []byte
	for i := uint32(0); i < 255; i++ {
		b := cpu.bus.Read8(addr + i)
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return string(out)
}

// fileRead moves up to count bytes from an open file into guest memory at
// addr, one chunk at a time. Returns the byte total, or the sentinel on a
// bad handle or read failure.
func (cpu *CPU) fileRead(handle, addr, count uint32) uint32 {
	var chunk [FILE_IO_CHUNK]byte
	total := uint32(0)
	for total < count {
		want := count - total
		if want > FILE_IO_CHUNK {
			want = FILE_IO_CHUNK
		}
		n := cpu.fs.Read(handle, chunk[:want])
		if n == SYSCALL_ERR {
			return SYSCALL_ERR
		}
		for i := uint32(0); i < n; i++ {
			cpu.bus.Write8(addr+total+i, chunk[i])
		}
		total += n
		if n < want {
			// EOF or short read; nothing more to fetch.
			break
		}
	}
	return total
}

// fileWrite moves count bytes from guest memory at addr into an open file,
// one chunk at a time. Returns the byte total, or the sentinel on a bad
// handle or write failure.
func (cpu *CPU) fileWrite(handle, addr, count uint32) uint32 {
	var chunk [FILE_IO_CHUNK]byte
	total := uint32(0)
	for total < count {
		want := count - total
		if want > FILE_IO_CHUNK {
			want = FILE_IO_CHUNK
		}
		for i := uint32(0); i < want; i++ {
			chunk[i] = cpu.bus.Read8(addr + total + i)
		}
		n := cpu.fs.Write(handle, chunk[:want])
		if n == SYSCALL_ERR {
			return SYSCALL_ERR
		}
		total += n
		if n < want {
			break
		}
	}
	return total
}

// stepGetline is one WaitLine transition: drain whatever the keyboard FIFO
// holds, echoing through the console discipline, and resume Running once
// Enter arrives. The caller (Step) has already advanced pc past the ECALL.
func (cpu *CPU) stepGetline() {
	for {
		key, ok := cpu.kbd.Pop()
		if !ok {
			return
		}

		switch {
		case key == '\r' || key == '\n':
			cpu.finishGetline()
			return

		case key == 0x08 || key == 0x7F:
			if len(cpu.lineBuf) > 0 {
				cpu.lineBuf = cpu.lineBuf[:len(cpu.lineBuf)-1]
				cpu.gpu.PutChar(0x08)
			}

		default:
			// Room for the terminator must remain.
			if key >= 0x20 && key < 0x7F && cpu.lineMax > 0 && uint32(len(cpu.lineBuf)) < cpu.lineMax-1 {
				cpu.lineBuf = append(cpu.lineBuf, key)
				cpu.gpu.PutChar(key)
			}
		}
	}
}

func (cpu *CPU) finishGetline() {
	cpu.gpu.PutChar('\n')
	if cpu.lineMax > 0 {
		for i, b := range cpu.lineBuf {
			cpu.bus.Write8(cpu.lineAddr+uint32(i), b)
		}
		cpu.bus.Write8(cpu.lineAddr+uint32(len(cpu.lineBuf)), 0)
	}
	cpu.SetReg(REG_A0, uint32(len(cpu.lineBuf)))
	cpu.state = CPU_RUNNING
}
