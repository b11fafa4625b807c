package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestPutcharSyscall verifies syscall 1 routes through the console
// discipline.
func TestPutcharSyscall(t *testing.T) {
	m := runAsm(t, `
		li a0, 'H'
		li a7, 1
		ecall
		li a0, 'i'
		ecall
		li a7, 0
		li a0, 0
		ecall
	`)
	if got := m.ConsoleOutput(); got != "Hi" {
		t.Fatalf("console = %q, expected \"Hi\"", got)
	}
	ch, _ := m.GPU().CellAt(0, 0)
	if ch != 'H' {
		t.Fatalf("cell (0,0) = 0x%02X, expected 'H'", ch)
	}
}

// TestPutsSyscall verifies syscall 3 streams a NUL-terminated string and
// returns the byte count.
func TestPutsSyscall(t *testing.T) {
	m := runAsm(t, `
		la a0, msg
		li a7, 3
		ecall
		mv s0, a0
		li a7, 0
		li a0, 0
		ecall
	msg:
		.asciiz "hello, world"
	`)
	if got := m.ConsoleOutput(); got != "hello, world" {
		t.Fatalf("console = %q, expected \"hello, world\"", got)
	}
	if got := m.CPU().Reg(8); got != 12 {
		t.Fatalf("puts returned %d, expected 12", got)
	}
}

// TestGetcharSyscall verifies syscall 2 pops a key or returns the sentinel
// on an empty FIFO.
func TestGetcharSyscall(t *testing.T) {
	m := newTestMachine(t)
	m.Keyboard().Push('k')
	src := `
		li a7, 2
		ecall
		mv s0, a0
		ecall
		mv s1, a0
		li a7, 0
		li a0, 0
		ecall
	`
	loadAsm(t, m, src)
	m.Run(1000)
	if got := m.CPU().Reg(8); got != 'k' {
		t.Fatalf("first getchar = 0x%08X, expected 0x6B", got)
	}
	if got := m.CPU().Reg(9); got != SYSCALL_ERR {
		t.Fatalf("empty getchar = 0x%08X, expected 0xFFFFFFFF", got)
	}
}

// loadAsm assembles src into an already-built machine.
func loadAsm(t *testing.T, m *Machine, src string) {
	t.Helper()
	img, origin := mustAssemble(t, src)
	if err := m.LoadProgram(img, origin); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	m.SetEntry(origin)
}

// TestGetlineSuspendsAndResumes verifies syscall 6 parks the CPU in the
// wait state, echoes as keys arrive, and resumes on Enter with the line
// NUL-terminated in guest memory.
func TestGetlineSuspendsAndResumes(t *testing.T) {
	m := newTestMachine(t)
	loadAsm(t, m, `
		li a0, 0x3000
		li a1, 64
		li a7, 6
		ecall
		mv s0, a0
		li a7, 0
		li a0, 0
		ecall
	`)

	m.Run(100)
	if m.CPU().State() != CPU_WAITLINE {
		t.Fatalf("state = %d with no input, expected CPU_WAITLINE", m.CPU().State())
	}

	// Typo corrected with backspace, then Enter.
	m.Keyboard().PushString("hellp\x08o\n")
	m.Run(1000)

	if !m.CPU().Halted() {
		t.Fatalf("machine did not resume and halt")
	}
	if got := m.CPU().Reg(8); got != 5 {
		t.Fatalf("getline returned %d, expected 5", got)
	}

	line := make([]byte, 6)
	for i := range line {
		line[i] = m.Bus().Read8(0x3000 + uint32(i))
	}
	if string(line) != "hello\x00" {
		t.Fatalf("guest buffer = %q, expected hello with NUL", line)
	}
	// The echo stream shows the typo, the backspace and the newline.
	if got := m.ConsoleOutput(); got != "hellp\x08o\n" {
		t.Fatalf("echo = %q, expected \"hellp\\x08o\\n\"", got)
	}
}

// TestGetlineRespectsMaxLength verifies characters beyond maxlen-1 are
// dropped, leaving room for the terminator.
func TestGetlineRespectsMaxLength(t *testing.T) {
	m := newTestMachine(t)
	loadAsm(t, m, `
		li a0, 0x3000
		li a1, 4
		li a7, 6
		ecall
		mv s0, a0
		li a7, 0
		li a0, 0
		ecall
	`)
	m.Keyboard().PushString("abcdef\n")
	m.Run(1000)

	if got := m.CPU().Reg(8); got != 3 {
		t.Fatalf("getline returned %d with maxlen 4, expected 3", got)
	}
	line := make([]byte, 4)
	for i := range line {
		line[i] = m.Bus().Read8(0x3000 + uint32(i))
	}
	if string(line) != "abc\x00" {
		t.Fatalf("guest buffer = %q, expected abc with NUL", line)
	}
}

// TestSectorSyscalls verifies syscalls 4 and 5 move whole sectors between
// guest memory and the HDD.
func TestSectorSyscalls(t *testing.T) {
	m := newTestMachine(t)
	loadAsm(t, m, `
		; fill a buffer with 0x42 and write it to sector 7
		li t0, 0x4000
		li t1, 512
		li t2, 0x42
	fill:
		sb t2, 0(t0)
		addi t0, t0, 1
		addi t1, t1, -1
		bne t1, x0, fill

		li a0, 7
		li a1, 0x4000
		li a7, 5
		ecall
		mv s0, a0

		; read it back to a different buffer
		li a0, 7
		li a1, 0x5000
		li a7, 4
		ecall
		mv s1, a0

		li a7, 0
		li a0, 0
		ecall
	`)
	m.Run(100000)

	if got := m.CPU().Reg(8); got != 0 {
		t.Fatalf("write_sector returned 0x%08X, expected 0", got)
	}
	if got := m.CPU().Reg(9); got != 0 {
		t.Fatalf("read_sector returned 0x%08X, expected 0", got)
	}
	for _, off := range []uint32{0, 255, 511} {
		if got := m.Bus().Read8(0x5000 + off); got != 0x42 {
			t.Fatalf("readback byte %d = 0x%02X, expected 0x42", off, got)
		}
	}

	// Out-of-range sector reports the sentinel.
	loadAsm(t, m, `
		li a0, 9999
		li a1, 0x4000
		li a7, 4
		ecall
		mv s0, a0
		li a7, 0
		li a0, 0
		ecall
	`)
	m.CPU().Reset()
	m.SetEntry(DEFAULT_LOAD)
	m.Run(1000)
	if got := m.CPU().Reg(8); got != SYSCALL_ERR {
		t.Fatalf("bad sector read returned 0x%08X, expected sentinel", got)
	}
}

// TestFileSyscalls verifies the fopen/fwrite/fclose then fopen/fread/fclose
// round trip through the sandboxed filesystem.
func TestFileSyscalls(t *testing.T) {
	root := t.TempDir()
	m, err := NewMachine(DEFAULT_RAM_SIZE, root)
	if err != nil {
		t.Fatalf("NewMachine failed: %v", err)
	}
	loadAsm(t, m, `
		; create the file and write 5 bytes
		la a0, name
		li a1, 1
		li a7, 7
		ecall
		mv s0, a0      ; handle

		mv a0, s0
		la a1, payload
		li a2, 5
		li a7, 9
		ecall
		mv s1, a0      ; bytes written

		mv a0, s0
		li a7, 10
		ecall

		; reopen for read and pull the bytes back
		la a0, name
		li a1, 0
		li a7, 7
		ecall
		mv s2, a0

		mv a0, s2
		li a1, 0x6000
		li a2, 16
		li a7, 8
		ecall
		mv s3, a0      ; bytes read

		mv a0, s2
		li a7, 10
		ecall

		li a7, 0
		li a0, 0
		ecall
	name:
		.asciiz "out.txt"
	payload:
		.ascii "fives"
	`)
	m.Run(100000)

	if got := m.CPU().Reg(8); got == SYSCALL_ERR {
		t.Fatalf("fopen for write returned the sentinel")
	}
	if got := m.CPU().Reg(9); got != 5 {
		t.Fatalf("fwrite returned %d, expected 5", got)
	}
	if got := m.CPU().Reg(19); got != 5 {
		t.Fatalf("fread returned %d, expected 5", got)
	}
	buf := make([]byte, 5)
	for i := range buf {
		buf[i] = m.Bus().Read8(0x6000 + uint32(i))
	}
	if string(buf) != "fives" {
		t.Fatalf("readback = %q, expected \"fives\"", buf)
	}

	data, err := os.ReadFile(filepath.Join(root, "out.txt"))
	if err != nil {
		t.Fatalf("host file missing: %v", err)
	}
	if string(data) != "fives" {
		t.Fatalf("host file = %q, expected \"fives\"", data)
	}
}

// TestFileSyscallsBadHandleSentinel verifies fread and fwrite on a handle
// that was never opened return the sentinel in a0 and touch nothing.
func TestFileSyscallsBadHandleSentinel(t *testing.T) {
	m, err := NewMachine(DEFAULT_RAM_SIZE, t.TempDir())
	if err != nil {
		t.Fatalf("NewMachine failed: %v", err)
	}
	m.Bus().Write8(0x6000, 0x55)
	loadAsm(t, m, `
		li a0, 99
		li a1, 0x6000
		li a2, 16
		li a7, 8
		ecall
		mv s0, a0

		li a0, 99
		li a1, 0x6000
		li a2, 16
		li a7, 9
		ecall
		mv s1, a0

		li a7, 0
		li a0, 0
		ecall
	`)
	m.Run(1000)

	if !m.CPU().Halted() {
		t.Fatalf("machine did not run to completion")
	}
	if got := m.CPU().Reg(8); got != SYSCALL_ERR {
		t.Fatalf("fread on bad handle returned 0x%08X, expected sentinel", got)
	}
	if got := m.CPU().Reg(9); got != SYSCALL_ERR {
		t.Fatalf("fwrite on bad handle returned 0x%08X, expected sentinel", got)
	}
	if got := m.Bus().Read8(0x6000); got != 0x55 {
		t.Fatalf("guest buffer byte = 0x%02X after failed fread, expected untouched 0x55", got)
	}
}

// TestFreadOversizedCount verifies a huge a2 is steered by the transfer
// loop rather than a host allocation: the read stops at end of file.
func TestFreadOversizedCount(t *testing.T) {
	root := t.TempDir()
	m, err := NewMachine(DEFAULT_RAM_SIZE, root)
	if err != nil {
		t.Fatalf("NewMachine failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "small.txt"), []byte("tiny"), 0644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	loadAsm(t, m, `
		la a0, name
		li a1, 0
		li a7, 7
		ecall
		mv s0, a0

		mv a0, s0
		li a1, 0x6000
		li a2, -1
		li a7, 8
		ecall
		mv s1, a0

		li a7, 0
		li a0, 0
		ecall
	name:
		.asciiz "small.txt"
	`)
	m.Run(100000)

	if got := m.CPU().Reg(8); got == SYSCALL_ERR {
		t.Fatalf("fopen returned the sentinel")
	}
	if got := m.CPU().Reg(9); got != 4 {
		t.Fatalf("fread with count 0xFFFFFFFF returned %d, expected 4", got)
	}
	buf := make([]byte, 4)
	for i := range buf {
		buf[i] = m.Bus().Read8(0x6000 + uint32(i))
	}
	if string(buf) != "tiny" {
		t.Fatalf("readback = %q, expected \"tiny\"", buf)
	}
}

// TestPutsStopsAtBound verifies an unterminated string cannot stream
// forever.
func TestPutsStopsAtBound(t *testing.T) {
	m := newTestMachine(t)
	// Fill a stretch of RAM with non-NUL bytes and point puts at it; the
	// cap bounds the stream even though RAM beyond reads as zero anyway.
	for i := uint32(0); i < 64; i++ {
		m.Bus().Write8(0x7000+i, 'x')
	}
	loadAsm(t, m, `
		li a0, 0x7000
		li a7, 3
		ecall
		mv s0, a0
		li a7, 0
		li a0, 0
		ecall
	`)
	m.Run(100000)
	if got := m.CPU().Reg(8); got != 64 {
		t.Fatalf("puts returned %d, expected 64 (stops at first NUL)", got)
	}
	if got := m.ConsoleOutput(); got != strings.Repeat("x", 64) {
		t.Fatalf("console length %d, expected 64 x's", len(got))
	}
}
