// cpu_rv32.go - RV32I execution engine for Aurora-32

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
cpu_rv32.go - RV32I Execution Engine

The CPU is a three-state machine: Running, WaitLine and Halted. Step() is
the single transition function. In Running it performs one complete
fetch/decode/execute cycle, including any ECALL side effects, before
returning. WaitLine is the suspended form of the blocking getline syscall:
instead of blocking the host thread on keyboard input, Step() polls the
keyboard FIFO and accumulates line characters until Enter, then resumes
Running with the result already written back. Halted is terminal; once
entered the CPU never fetches again.

Registers are unsigned 32-bit containers. Operations that are logically
signed (SLT, BLT/BGE, SRA, immediate and load sign extension) reinterpret
the bit pattern as two's-complement at the point of use and store the raw
result bits back. x0 is hardwired to zero through setReg.

An illegal instruction halts the machine with exit code 0xDEAD, and EBREAK
halts with 0xDEB0. Both codes are part of the machine ABI so a supervising
harness can tell a rogue opcode from a planted breakpoint.
*/

package main

import "fmt"

// CPU run states.
const (
	CPU_RUNNING = iota
	CPU_WAITLINE // suspended inside a getline syscall
	CPU_HALTED
)

// Machine ABI exit codes for abnormal halts.
const (
	EXIT_BAD_INSTR  = 0xDEAD
	EXIT_BREAKPOINT = 0xDEB0
)

// ABI register indices used by the syscall layer (a0-a7 = x10-x17).
const (
	REG_A0 = 10
	REG_A1 = 11
	REG_A2 = 12
	REG_A7 = 17
)

// CPU is one RV32I hart wired to a machine bus. Peripheral references are
// used only by the syscall layer; all memory traffic goes through the bus.
type CPU struct {
	regs  [32]uint32
	pc    uint32
	state int

	exitCode uint32
	bus      Bus32
	trace    bool

	// Syscall collaborators, wired up by the Machine.
	gpu  *GPU
	kbd  *Keyboard
	stor *StorageController
	fs   *FileSystem

	// Pending getline state, valid only in CPU_WAITLINE.
	lineAddr uint32
	lineMax  uint32
	lineBuf  []byte
}

// NewCPU creates a CPU attached to the given bus, in the Running state with
// pc and all registers zeroed.
func NewCPU(bus Bus32) *CPU {
	return &CPU{bus: bus, state: CPU_RUNNING}
}

// Reg returns register i; register 0 always reads as zero.
func (cpu *CPU) Reg(i uint32) uint32 {
	if i == 0 {
		return 0
	}
	return cpu.regs[i&31]
}

// SetReg writes register i; writes to register 0 are discarded.
func (cpu *CPU) SetReg(i uint32, v uint32) {
	if i != 0 {
		cpu.regs[i&31] = v
	}
}

// PC returns the current program counter.
func (cpu *CPU) PC() uint32 { return cpu.pc }

// SetPC sets the program counter. The next fetch happens at this address.
func (cpu *CPU) SetPC(pc uint32) { cpu.pc = pc }

// State returns the current run state (CPU_RUNNING, CPU_WAITLINE, CPU_HALTED).
func (cpu *CPU) State() int { return cpu.state }

// Halted reports whether the CPU has reached its terminal state.
func (cpu *CPU) Halted() bool { return cpu.state == CPU_HALTED }

// ExitCode returns the code stored by the exit syscall or an abnormal halt.
// Meaningful only once Halted() is true.
func (cpu *CPU) ExitCode() uint32 { return cpu.exitCode }

// SetTrace enables per-instruction disassembly on stdout.
func (cpu *CPU) SetTrace(on bool) { cpu.trace = on }

func (cpu *CPU) halt(code uint32) {
	cpu.exitCode = code
	cpu.state = CPU_HALTED
}

// Reset returns the CPU to power-on state. Bus and peripherals are reset
// separately by the Machine.
func (cpu *CPU) Reset() {
	cpu.regs = [32]uint32{}
	cpu.pc = 0
	cpu.state = CPU_RUNNING
	cpu.exitCode = 0
	cpu.lineBuf = nil
	cpu.lineAddr = 0
	cpu.lineMax = 0
}

// Run steps the CPU until it halts or maxSteps transitions have been taken,
// whichever comes first, and returns the number of steps consumed. A step
// spent waiting for getline input counts against the budget; the budget is
// a harness bound on runaway guests, not part of the ISA.
func (cpu *CPU) Run(maxSteps int) int {
	steps := 0
	for steps < maxSteps && cpu.state != CPU_HALTED {
		cpu.Step()
		steps++
	}
	return steps
}

// Step performs exactly one state transition: a full instruction in
// Running, one keyboard poll in WaitLine, nothing in Halted.
func (cpu *CPU) Step() {
	switch cpu.state {
	case CPU_HALTED:
		return
	case CPU_WAITLINE:
		cpu.stepGetline()
		return
	}

	inst := cpu.bus.Read32(cpu.pc)
	ins := Decode(inst)

	if cpu.trace {
		fmt.Printf("pc=%08x  %s\n", cpu.pc, DisasmRV32(cpu.pc, inst))
	}

	if ins.Kind == RV_ILLEGAL {
		fmt.Printf("Invalid instruction: %08x at PC=%08x\n", inst, cpu.pc)
		cpu.halt(EXIT_BAD_INSTR)
		return
	}

	cpu.execute(ins)
}

func (cpu *CPU) execute(ins Instruction) {
	nextPC := cpu.pc + 4
	imm := uint32(ins.Imm)

	switch ins.Kind {
	case RV_LUI:
		cpu.SetReg(ins.Rd, imm)
	case RV_AUIPC:
		cpu.SetReg(ins.Rd, cpu.pc+imm)

	case RV_JAL:
		cpu.SetReg(ins.Rd, cpu.pc+4)
		nextPC = cpu.pc + imm
	case RV_JALR:
		target := (cpu.Reg(ins.Rs1) + imm) &^ 1
		cpu.SetReg(ins.Rd, cpu.pc+4)
		nextPC = target

	case RV_BEQ:
		if cpu.Reg(ins.Rs1) == cpu.Reg(ins.Rs2) {
			nextPC = cpu.pc + imm
		}
	case RV_BNE:
		if cpu.Reg(ins.Rs1) != cpu.Reg(ins.Rs2) {
			nextPC = cpu.pc + imm
		}
	case RV_BLT:
		if int32(cpu.Reg(ins.Rs1)) < int32(cpu.Reg(ins.Rs2)) {
			nextPC = cpu.pc + imm
		}
	case RV_BGE:
		if int32(cpu.Reg(ins.Rs1)) >= int32(cpu.Reg(ins.Rs2)) {
			nextPC = cpu.pc + imm
		}
	case RV_BLTU:
		if cpu.Reg(ins.Rs1) < cpu.Reg(ins.Rs2) {
			nextPC = cpu.pc + imm
		}
	case RV_BGEU:
		if cpu.Reg(ins.Rs1) >= cpu.Reg(ins.Rs2) {
			nextPC = cpu.pc + imm
		}

	case RV_LB:
		b := cpu.bus.Read8(cpu.Reg(ins.Rs1) + imm)
		cpu.SetReg(ins.Rd, uint32(int32(int8(b))))
	case RV_LH:
		h := cpu.bus.Read16(cpu.Reg(ins.Rs1) + imm)
		cpu.SetReg(ins.Rd, uint32(int32(int16(h))))
	case RV_LW:
		cpu.SetReg(ins.Rd, cpu.bus.Read32(cpu.Reg(ins.Rs1)+imm))
	case RV_LBU:
		cpu.SetReg(ins.Rd, uint32(cpu.bus.Read8(cpu.Reg(ins.Rs1)+imm)))
	case RV_LHU:
		cpu.SetReg(ins.Rd, uint32(cpu.bus.Read16(cpu.Reg(ins.Rs1)+imm)))

	case RV_SB:
		cpu.bus.Write8(cpu.Reg(ins.Rs1)+imm, byte(cpu.Reg(ins.Rs2)))
	case RV_SH:
		cpu.bus.Write16(cpu.Reg(ins.Rs1)+imm, uint16(cpu.Reg(ins.Rs2)))
	case RV_SW:
		cpu.bus.Write32(cpu.Reg(ins.Rs1)+imm, cpu.Reg(ins.Rs2))

	case RV_ADDI:
		cpu.SetReg(ins.Rd, cpu.Reg(ins.Rs1)+imm)
	case RV_SLTI:
		if int32(cpu.Reg(ins.Rs1)) < ins.Imm {
			cpu.SetReg(ins.Rd, 1)
		} else {
			cpu.SetReg(ins.Rd, 0)
		}
	case RV_SLTIU:
		if cpu.Reg(ins.Rs1) < imm {
			cpu.SetReg(ins.Rd, 1)
		} else {
			cpu.SetReg(ins.Rd, 0)
		}
	case RV_XORI:
		cpu.SetReg(ins.Rd, cpu.Reg(ins.Rs1)^imm)
	case RV_ORI:
		cpu.SetReg(ins.Rd, cpu.Reg(ins.Rs1)|imm)
	case RV_ANDI:
		cpu.SetReg(ins.Rd, cpu.Reg(ins.Rs1)&imm)
	case RV_SLLI:
		cpu.SetReg(ins.Rd, cpu.Reg(ins.Rs1)<<(imm&31))
	case RV_SRLI:
		cpu.SetReg(ins.Rd, cpu.Reg(ins.Rs1)>>(imm&31))
	case RV_SRAI:
		cpu.SetReg(ins.Rd, uint32(int32(cpu.Reg(ins.Rs1))>>(imm&31)))

	case RV_ADD:
		cpu.SetReg(ins.Rd, cpu.Reg(ins.Rs1)+cpu.Reg(ins.Rs2))
	case RV_SUB:
		cpu.SetReg(ins.Rd, cpu.Reg(ins.Rs1)-cpu.Reg(ins.Rs2))
	case RV_SLL:
		cpu.SetReg(ins.Rd, cpu.Reg(ins.Rs1)<<(cpu.Reg(ins.Rs2)&31))
	case RV_SLT:
		if int32(cpu.Reg(ins.Rs1)) < int32(cpu.Reg(ins.Rs2)) {
			cpu.SetReg(ins.Rd, 1)
		} else {
			cpu.SetReg(ins.Rd, 0)
		}
	case RV_SLTU:
		if cpu.Reg(ins.Rs1) < cpu.Reg(ins.Rs2) {
			cpu.SetReg(ins.Rd, 1)
		} else {
			cpu.SetReg(ins.Rd, 0)
		}
	case RV_XOR:
		cpu.SetReg(ins.Rd, cpu.Reg(ins.Rs1)^cpu.Reg(ins.Rs2))
	case RV_SRL:
		cpu.SetReg(ins.Rd, cpu.Reg(ins.Rs1)>>(cpu.Reg(ins.Rs2)&31))
	case RV_SRA:
		cpu.SetReg(ins.Rd, uint32(int32(cpu.Reg(ins.Rs1))>>(cpu.Reg(ins.Rs2)&31)))
	case RV_OR:
		cpu.SetReg(ins.Rd, cpu.Reg(ins.Rs1)|cpu.Reg(ins.Rs2))
	case RV_AND:
		cpu.SetReg(ins.Rd, cpu.Reg(ins.Rs1)&cpu.Reg(ins.Rs2))

	case RV_FENCE:
		// Nothing to order on a single-threaded machine.

	case RV_ECALL:
		cpu.syscall()
		if cpu.state != CPU_RUNNING {
			// exit halted the machine, or getline suspended it; either way
			// pc must already point past the ECALL when execution resumes.
			cpu.pc = nextPC
			return
		}
	case RV_EBREAK:
		cpu.halt(EXIT_BREAKPOINT)
		return
	}

	cpu.pc = nextPC
}
