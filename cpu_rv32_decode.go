// cpu_rv32_decode.go - RV32I instruction decoder for Aurora-32

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
cpu_rv32_decode.go - RV32I Decoder

Pure decode stage: a 32-bit instruction word in, a tagged Instruction value
out. No machine state is touched here, which keeps decode testable on its
own and keeps the execute switch in cpu_rv32.go working from one flat enum
instead of re-deriving funct3/funct7 combinations.

Immediate reassembly follows the RV32I bit layouts exactly: I and S are
plain sign-extended 12-bit fields (S split across two ranges), B and J are
the scrambled branch/jump layouts with bit 0 forced to zero, U keeps its
20-bit immediate pre-shifted into bits 31:12. Anything that does not decode
to a known opcode/funct3/funct7 combination comes back as RV_ILLEGAL; the
execute stage decides what an illegal instruction does to the machine.
*/

package main

// InstrKind enumerates every decoded RV32I operation.
type InstrKind int

const (
	RV_ILLEGAL InstrKind = iota

	RV_LUI
	RV_AUIPC
	RV_JAL
	RV_JALR

	RV_BEQ
	RV_BNE
	RV_BLT
	RV_BGE
	RV_BLTU
	RV_BGEU

	RV_LB
	RV_LH
	RV_LW
	RV_LBU
	RV_LHU

	RV_SB
	RV_SH
	RV_SW

	RV_ADDI
	RV_SLTI
	RV_SLTIU
	RV_XORI
	RV_ORI
	RV_ANDI
	RV_SLLI
	RV_SRLI
	RV_SRAI

	RV_ADD
	RV_SUB
	RV_SLL
	RV_SLT
	RV_SLTU
	RV_XOR
	RV_SRL
	RV_SRA
	RV_OR
	RV_AND

	RV_FENCE
	RV_ECALL
	RV_EBREAK
)

// RV32I major opcodes (instruction bits 6:0).
const (
	OPCODE_LUI    = 0x37
	OPCODE_AUIPC  = 0x17
	OPCODE_JAL    = 0x6F
	OPCODE_JALR   = 0x67
	OPCODE_BRANCH = 0x63
	OPCODE_LOAD   = 0x03
	OPCODE_STORE  = 0x23
	OPCODE_OP_IMM = 0x13
	OPCODE_OP     = 0x33
	OPCODE_FENCE  = 0x0F
	OPCODE_SYSTEM = 0x73
)

// Instruction is the decoded form of one instruction word. It is produced
// fresh per fetch and never persisted.
type Instruction struct {
	Kind InstrKind
	Rd   uint32
	Rs1  uint32
	Rs2  uint32
	Imm  int32 // sign-extended where the format calls for it
	Raw  uint32
}

// I-type: imm[11:0] = inst[31:20].
func immI(inst uint32) int32 {
	return int32(inst) >> 20
}

// S-type: imm[11:5] = inst[31:25], imm[4:0] = inst[11:7].
func immS(inst uint32) int32 {
	imm := (inst>>25)<<5 | (inst>>7)&0x1F
	return int32(imm<<20) >> 20
}

// B-type: imm[12] = inst[31], imm[11] = inst[7], imm[10:5] = inst[30:25],
// imm[4:1] = inst[11:8], imm[0] = 0.
func immB(inst uint32) int32 {
	imm := (inst>>31)<<12 |
		(inst>>7&0x1)<<11 |
		(inst>>25&0x3F)<<5 |
		(inst >> 8 & 0xF << 1)
	return int32(imm<<19) >> 19
}

// U-type: imm[31:12] = inst[31:12], already in place.
func immU(inst uint32) int32 {
	return int32(inst & 0xFFFFF000)
}

// J-type: imm[20] = inst[31], imm[19:12] = inst[19:12],
// imm[11] = inst[20], imm[10:1] = inst[30:21], imm[0] = 0.
func immJ(inst uint32) int32 {
	imm := (inst>>31)<<20 |
		(inst & 0x000FF000) |
		(inst>>20&0x1)<<11 |
		(inst >> 21 & 0x3FF << 1)
	return int32(imm<<11) >> 11
}

// Decode turns one instruction word into a tagged Instruction. Unknown bit
// patterns decode to RV_ILLEGAL rather than being guessed at.
func Decode(inst uint32) Instruction {
	opcode := inst & 0x7F
	rd := (inst >> 7) & 0x1F
	funct3 := (inst >> 12) & 0x7
	rs1 := (inst >> 15) & 0x1F
	rs2 := (inst >> 20) & 0x1F
	funct7 := (inst >> 25) & 0x7F

	ins := Instruction{Kind: RV_ILLEGAL, Rd: rd, Rs1: rs1, Rs2: rs2, Raw: inst}

	switch opcode {
	case OPCODE_LUI:
		ins.Kind = RV_LUI
		ins.Imm = immU(inst)

	case OPCODE_AUIPC:
		ins.Kind = RV_AUIPC
		ins.Imm = immU(inst)

	case OPCODE_JAL:
		ins.Kind = RV_JAL
		ins.Imm = immJ(inst)

	case OPCODE_JALR:
		if funct3 == 0 {
			ins.Kind = RV_JALR
			ins.Imm = immI(inst)
		}

	case OPCODE_BRANCH:
		ins.Imm = immB(inst)
		switch funct3 {
		case 0x0:
			ins.Kind = RV_BEQ
		case 0x1:
			ins.Kind = RV_BNE
		case 0x4:
			ins.Kind = RV_BLT
		case 0x5:
			ins.Kind = RV_BGE
		case 0x6:
			ins.Kind = RV_BLTU
		case 0x7:
			ins.Kind = RV_BGEU
		}

	case OPCODE_LOAD:
		ins.Imm = immI(inst)
		switch funct3 {
		case 0x0:
			ins.Kind = RV_LB
		case 0x1:
			ins.Kind = RV_LH
		case 0x2:
			ins.Kind = RV_LW
		case 0x4:
			ins.Kind = RV_LBU
		case 0x5:
			ins.Kind = RV_LHU
		}

	case OPCODE_STORE:
		ins.Imm = immS(inst)
		switch funct3 {
		case 0x0:
			ins.Kind = RV_SB
		case 0x1:
			ins.Kind = RV_SH
		case 0x2:
			ins.Kind = RV_SW
		}

	case OPCODE_OP_IMM:
		ins.Imm = immI(inst)
		switch funct3 {
		case 0x0:
			ins.Kind = RV_ADDI
		case 0x2:
			ins.Kind = RV_SLTI
		case 0x3:
			ins.Kind = RV_SLTIU
		case 0x4:
			ins.Kind = RV_XORI
		case 0x6:
			ins.Kind = RV_ORI
		case 0x7:
			ins.Kind = RV_ANDI
		case 0x1:
			// Shift amount lives in rs2's field; funct7 must be zero.
			if funct7 == 0x00 {
				ins.Kind = RV_SLLI
				ins.Imm = int32(rs2)
			}
		case 0x5:
			switch funct7 {
			case 0x00:
				ins.Kind = RV_SRLI
				ins.Imm = int32(rs2)
			case 0x20:
				ins.Kind = RV_SRAI
				ins.Imm = int32(rs2)
			}
		}

	case OPCODE_OP:
		// funct7 bit 30 selects SUB from ADD and SRA from SRL; every other
		// funct7 pattern is illegal in RV32I.
		switch funct3 {
		case 0x0:
			switch funct7 {
			case 0x00:
				ins.Kind = RV_ADD
			case 0x20:
				ins.Kind = RV_SUB
			}
		case 0x1:
			if funct7 == 0x00 {
				ins.Kind = RV_SLL
			}
		case 0x2:
			if funct7 == 0x00 {
				ins.Kind = RV_SLT
			}
		case 0x3:
			if funct7 == 0x00 {
				ins.Kind = RV_SLTU
			}
		case 0x4:
			if funct7 == 0x00 {
				ins.Kind = RV_XOR
			}
		case 0x5:
			switch funct7 {
			case 0x00:
				ins.Kind = RV_SRL
			case 0x20:
				ins.Kind = RV_SRA
			}
		case 0x6:
			if funct7 == 0x00 {
				ins.Kind = RV_OR
			}
		case 0x7:
			if funct7 == 0x00 {
				ins.Kind = RV_AND
			}
		}

	case OPCODE_FENCE:
		// Single-threaded machine: FENCE decodes but executes as a NOP.
		if funct3 == 0 {
			ins.Kind = RV_FENCE
		}

	case OPCODE_SYSTEM:
		if funct3 == 0 && rd == 0 && rs1 == 0 {
			switch inst >> 20 {
			case 0:
				ins.Kind = RV_ECALL
			case 1:
				ins.Kind = RV_EBREAK
			}
		}
	}

	return ins
}
