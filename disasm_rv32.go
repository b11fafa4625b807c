// disasm_rv32.go - RV32I disassembler for Aurora-32

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

package main

import "fmt"

// ABI register names, indexed by register number.
var regNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

var kindNames = map[InstrKind]string{
	RV_LUI: "lui", RV_AUIPC: "auipc", RV_JAL: "jal", RV_JALR: "jalr",
	RV_BEQ: "beq", RV_BNE: "bne", RV_BLT: "blt", RV_BGE: "bge",
	RV_BLTU: "bltu", RV_BGEU: "bgeu",
	RV_LB: "lb", RV_LH: "lh", RV_LW: "lw", RV_LBU: "lbu", RV_LHU: "lhu",
	RV_SB: "sb", RV_SH: "sh", RV_SW: "sw",
	RV_ADDI: "addi", RV_SLTI: "slti", RV_SLTIU: "sltiu", RV_XORI: "xori",
	RV_ORI: "ori", RV_ANDI: "andi", RV_SLLI: "slli", RV_SRLI: "srli",
	RV_SRAI: "srai",
	RV_ADD:  "add", RV_SUB: "sub", RV_SLL: "sll", RV_SLT: "slt",
	RV_SLTU: "sltu", RV_XOR: "xor", RV_SRL: "srl", RV_SRA: "sra",
	RV_OR: "or", RV_AND: "and",
	RV_FENCE: "fence", RV_ECALL: "ecall", RV_EBREAK: "ebreak",
}

// DisasmRV32 renders one instruction word as assembly text. Branch and
// jump targets are shown as absolute addresses computed from pc.
func DisasmRV32(pc uint32, inst uint32) string {
	ins := Decode(inst)
	name := kindNames[ins.Kind]

	switch ins.Kind {
	case RV_ILLEGAL:
		return fmt.Sprintf(".word 0x%08x", inst)

	case RV_LUI, RV_AUIPC:
		return fmt.Sprintf("%-6s %s, 0x%x", name, regNames[ins.Rd], uint32(ins.Imm)>>12)

	case RV_JAL:
		return fmt.Sprintf("%-6s %s, 0x%x", name, regNames[ins.Rd], pc+uint32(ins.Imm))

	case RV_JALR:
		return fmt.Sprintf("%-6s %s, %d(%s)", name, regNames[ins.Rd], ins.Imm, regNames[ins.Rs1])

	case RV_BEQ, RV_BNE, RV_BLT, RV_BGE, RV_BLTU, RV_BGEU:
		return fmt.Sprintf("%-6s %s, %s, 0x%x", name,
			regNames[ins.Rs1], regNames[ins.Rs2], pc+uint32(ins.Imm))

	case RV_LB, RV_LH, RV_LW, RV_LBU, RV_LHU:
		return fmt.Sprintf("%-6s %s, %d(%s)", name, regNames[ins.Rd], ins.Imm, regNames[ins.Rs1])

	case RV_SB, RV_SH, RV_SW:
		return fmt.Sprintf("%-6s %s, %d(%s)", name, regNames[ins.Rs2], ins.Imm, regNames[ins.Rs1])

	case RV_ADDI, RV_SLTI, RV_SLTIU, RV_XORI, RV_ORI, RV_ANDI,
		RV_SLLI, RV_SRLI, RV_SRAI:
		return fmt.Sprintf("%-6s %s, %s, %d", name,
			regNames[ins.Rd], regNames[ins.Rs1], ins.Imm)

	case RV_ADD, RV_SUB, RV_SLL, RV_SLT, RV_SLTU, RV_XOR, RV_SRL,
		RV_SRA, RV_OR, RV_AND:
		return fmt.Sprintf("%-6s %s, %s, %s", name,
			regNames[ins.Rd], regNames[ins.Rs1], regNames[ins.Rs2])

	default:
		// fence/ecall/ebreak take no operands.
		return name
	}
}
