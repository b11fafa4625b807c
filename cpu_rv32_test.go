package main

import (
	"testing"

	"github.com/intuitionamiga/Aurora32/assembler"
)

// newTestMachine builds a machine with the filesystem sandboxed to a test
// temp directory and a small scratch HDD attached.
func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := NewMachine(DEFAULT_RAM_SIZE, t.TempDir())
	if err != nil {
		t.Fatalf("NewMachine failed: %v", err)
	}
	m.Storage().Attach(STOR_DEV_HDD, NewBlockDevice("hdd", 64, false))
	return m
}

// mustAssemble assembles a source program, failing the test on any
// assembly error.
func mustAssemble(t *testing.T, src string) ([]byte, uint32) {
	t.Helper()
	asm := assembler.New()
	image, err := asm.Assemble(src)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	return image, asm.Origin()
}

// runAsm assembles a source program, loads it at its origin and runs it to
// halt (or the step budget).
func runAsm(t *testing.T, src string) *Machine {
	t.Helper()
	m := newTestMachine(t)
	image, origin := mustAssemble(t, src)
	if err := m.LoadProgram(image, origin); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	m.SetEntry(origin)
	m.Run(100000)
	return m
}

// TestRegisterZeroHardwired verifies writes to x0 are discarded.
func TestRegisterZeroHardwired(t *testing.T) {
	m := runAsm(t, `
		addi x0, x0, 123
		addi a0, x0, 0
		li a7, 0
		ecall
	`)
	if !m.CPU().Halted() {
		t.Fatalf("machine did not halt")
	}
	if code := m.CPU().ExitCode(); code != 0 {
		t.Fatalf("exit code 0x%08X, expected 0 (x0 leaked a write)", code)
	}
}

// TestArithmeticSigned verifies signed compare, subtract and arithmetic
// shift reinterpret the register bits as two's-complement.
func TestArithmeticSigned(t *testing.T) {
	m := runAsm(t, `
		li t0, -1
		li t1, 1
		slt t2, t0, t1      ; -1 < 1 signed
		sltu t3, t0, t1     ; 0xFFFFFFFF < 1 unsigned is false
		sub t4, t0, t1      ; -2
		li a7, 0
		li a0, 0
		ecall
	`)
	cpu := m.CPU()
	if got := cpu.Reg(7); got != 1 {
		t.Fatalf("slt = %d, expected 1", got)
	}
	if got := cpu.Reg(28); got != 0 {
		t.Fatalf("sltu = %d, expected 0", got)
	}
	if got := cpu.Reg(29); got != 0xFFFFFFFE {
		t.Fatalf("sub = 0x%08X, expected 0xFFFFFFFE", got)
	}
}

// TestShiftRightModes verifies SRLI zero-fills and SRAI sign-fills.
func TestShiftRightModes(t *testing.T) {
	m := runAsm(t, `
		li t0, 0x80000000
		srli t1, t0, 4
		srai t2, t0, 4
		li a7, 0
		li a0, 0
		ecall
	`)
	cpu := m.CPU()
	if got := cpu.Reg(6); got != 0x08000000 {
		t.Fatalf("srli = 0x%08X, expected 0x08000000", got)
	}
	if got := cpu.Reg(7); got != 0xF8000000 {
		t.Fatalf("srai = 0x%08X, expected 0xF8000000", got)
	}
}

// TestLoadSignExtension verifies LB sign-extends and LBU zero-extends.
func TestLoadSignExtension(t *testing.T) {
	m := runAsm(t, `
		li t0, 0x2000
		li t1, 0x80
		sb t1, 0(t0)
		lb t2, 0(t0)
		lbu t3, 0(t0)
		li a7, 0
		li a0, 0
		ecall
	`)
	cpu := m.CPU()
	if got := cpu.Reg(7); got != 0xFFFFFF80 {
		t.Fatalf("lb = 0x%08X, expected 0xFFFFFF80", got)
	}
	if got := cpu.Reg(28); got != 0x80 {
		t.Fatalf("lbu = 0x%08X, expected 0x80", got)
	}
}

// TestStoreLoadRoundTrip verifies SW/LW and SH/LH through RAM.
func TestStoreLoadRoundTrip(t *testing.T) {
	m := runAsm(t, `
		li t0, 0x2000
		li t1, 0xDEADBEEF
		sw t1, 0(t0)
		lw t2, 0(t0)
		lhu t3, 0(t0)
		lh t4, 2(t0)
		li a7, 0
		li a0, 0
		ecall
	`)
	cpu := m.CPU()
	if got := cpu.Reg(7); got != 0xDEADBEEF {
		t.Fatalf("lw = 0x%08X, expected 0xDEADBEEF", got)
	}
	if got := cpu.Reg(28); got != 0xBEEF {
		t.Fatalf("lhu = 0x%08X, expected 0xBEEF", got)
	}
	if got := cpu.Reg(29); got != 0xFFFFDEAD {
		t.Fatalf("lh = 0x%08X, expected 0xFFFFDEAD", got)
	}
}

// TestBranchesTakenAndNot verifies both directions of a signed branch.
func TestBranchesTakenAndNot(t *testing.T) {
	m := runAsm(t, `
		li t0, -5
		li t1, 5
		li t2, 0
		bge t0, t1, skip    ; not taken: -5 < 5 signed
		addi t2, t2, 1
	skip:
		blt t0, t1, done    ; taken
		addi t2, t2, 100
	done:
		li a7, 0
		mv a0, t2
		ecall
	`)
	if code := m.CPU().ExitCode(); code != 1 {
		t.Fatalf("exit code %d, expected 1", code)
	}
}

// TestJALLinkage verifies jal stores the return address and jalr returns
// through it.
func TestJALLinkage(t *testing.T) {
	m := runAsm(t, `
		li t2, 0
		jal ra, sub1
		addi t2, t2, 2
		li a7, 0
		mv a0, t2
		ecall
	sub1:
		addi t2, t2, 1
		ret
	`)
	if code := m.CPU().ExitCode(); code != 3 {
		t.Fatalf("exit code %d, expected 3 (call then fallthrough)", code)
	}
}

// TestExitSyscall verifies syscall 0 halts with a0 as the exit code.
func TestExitSyscall(t *testing.T) {
	m := runAsm(t, `
		li a0, 42
		li a7, 0
		ecall
	`)
	if !m.CPU().Halted() {
		t.Fatalf("machine did not halt")
	}
	if code := m.CPU().ExitCode(); code != 42 {
		t.Fatalf("exit code %d, expected 42", code)
	}
}

// TestUnknownSyscallContinues verifies an unknown syscall number returns
// the sentinel in a0 without halting.
func TestUnknownSyscallContinues(t *testing.T) {
	m := runAsm(t, `
		li a7, 99
		ecall
		mv t0, a0
		li a7, 0
		li a0, 0
		ecall
	`)
	if got := m.CPU().Reg(5); got != SYSCALL_ERR {
		t.Fatalf("a0 after unknown syscall = 0x%08X, expected 0xFFFFFFFF", got)
	}
	if code := m.CPU().ExitCode(); code != 0 {
		t.Fatalf("exit code 0x%08X, expected 0", code)
	}
}

// TestIllegalInstructionHalts verifies a bad opcode halts with 0xDEAD.
func TestIllegalInstructionHalts(t *testing.T) {
	m := runAsm(t, `
		.word 0x00000000
	`)
	if !m.CPU().Halted() {
		t.Fatalf("machine did not halt on illegal instruction")
	}
	if code := m.CPU().ExitCode(); code != EXIT_BAD_INSTR {
		t.Fatalf("exit code 0x%08X, expected 0xDEAD", code)
	}
}

// TestEBreakHalts verifies a breakpoint halts with 0xDEB0.
func TestEBreakHalts(t *testing.T) {
	m := runAsm(t, `
		ebreak
	`)
	if code := m.CPU().ExitCode(); code != EXIT_BREAKPOINT {
		t.Fatalf("exit code 0x%08X, expected 0xDEB0", code)
	}
}

// TestRunBudget verifies Run stops at the step budget and reports the
// steps consumed.
func TestRunBudget(t *testing.T) {
	m := newTestMachine(t)
	asm := assembler.New()
	image, err := asm.Assemble(`
	loop:
		j loop
	`)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if err := m.LoadProgram(image, asm.Origin()); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	m.SetEntry(asm.Origin())

	steps := m.Run(500)
	if steps != 500 {
		t.Fatalf("Run consumed %d steps, expected 500", steps)
	}
	if m.CPU().Halted() {
		t.Fatalf("infinite loop halted unexpectedly")
	}
}

// TestHaltedStepIsInert verifies Step does nothing once halted.
func TestHaltedStepIsInert(t *testing.T) {
	m := runAsm(t, `
		li a0, 7
		li a7, 0
		ecall
	`)
	pc := m.CPU().PC()
	m.Step()
	m.Step()
	if m.CPU().PC() != pc {
		t.Fatalf("pc moved after halt: 0x%08X -> 0x%08X", pc, m.CPU().PC())
	}
	if code := m.CPU().ExitCode(); code != 7 {
		t.Fatalf("exit code %d, expected 7", code)
	}
}
