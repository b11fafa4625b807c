// rv32asm_ops.go - RV32I instruction encoding for the Aurora-32 assembler

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

package assembler

import "strings"

// Format encoders. Immediates arrive as full 32-bit values; each encoder
// masks out the bits its format stores.

func encR(opcode, funct3, funct7, rd, rs1, rs2 uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encI(opcode, funct3, rd, rs1, imm uint32) uint32 {
	return imm<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encS(opcode, funct3, rs1, rs2, imm uint32) uint32 {
	return (imm>>5&0x7F)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | (imm&0x1F)<<7 | opcode
}

func encB(opcode, funct3, rs1, rs2, imm uint32) uint32 {
	return (imm>>12&0x1)<<31 | (imm>>5&0x3F)<<25 | rs2<<20 | rs1<<15 |
		funct3<<12 | (imm>>1&0xF)<<8 | (imm>>11&0x1)<<7 | opcode
}

func encU(opcode, rd, imm uint32) uint32 {
	return imm&0xFFFFF000 | rd<<7 | opcode
}

func encJ(opcode, rd, imm uint32) uint32 {
	return (imm>>20&0x1)<<31 | (imm>>1&0x3FF)<<21 | (imm>>11&0x1)<<20 |
		(imm >> 12 & 0xFF << 12) | rd<<7 | opcode
}

const (
	opLUI    = 0x37
	opAUIPC  = 0x17
	opJAL    = 0x6F
	opJALR   = 0x67
	opBRANCH = 0x63
	opLOAD   = 0x03
	opSTORE  = 0x23
	opIMM    = 0x13
	opREG    = 0x33
	opFENCE  = 0x0F
	opSYSTEM = 0x73
)

var branchFunct3 = map[string]uint32{
	"beq": 0x0, "bne": 0x1, "blt": 0x4, "bge": 0x5, "bltu": 0x6, "bgeu": 0x7,
}

var loadFunct3 = map[string]uint32{
	"lb": 0x0, "lh": 0x1, "lw": 0x2, "lbu": 0x4, "lhu": 0x5,
}

var storeFunct3 = map[string]uint32{
	"sb": 0x0, "sh": 0x1, "sw": 0x2,
}

var aluImmFunct3 = map[string]uint32{
	"addi": 0x0, "slti": 0x2, "sltiu": 0x3, "xori": 0x4, "ori": 0x6, "andi": 0x7,
}

type aluRegOp struct{ funct3, funct7 uint32 }

var aluRegOps = map[string]aluRegOp{
	"add": {0x0, 0x00}, "sub": {0x0, 0x20},
	"sll": {0x1, 0x00}, "slt": {0x2, 0x00}, "sltu": {0x3, 0x00},
	"xor": {0x4, 0x00},
	"srl": {0x5, 0x00}, "sra": {0x5, 0x20},
	"or": {0x6, 0x00}, "and": {0x7, 0x00},
}

func (a *Assembler) handleInstruction(line string) {
	fields := strings.SplitN(line, " ", 2)
	mnemonic := strings.ToLower(fields[0])
	rest := ""
	if len(fields) > 1 {
		rest = strings.TrimSpace(fields[1])
	}
	ops := splitOperands(rest)

	want := func(n int) bool {
		if len(ops) != n {
			a.errorf("%s wants %d operands, got %d", mnemonic, n, len(ops))
			return false
		}
		return true
	}

	switch mnemonic {
	case "lui", "auipc":
		if !want(2) {
			return
		}
		rd, ok := a.reg(ops[0])
		if !ok {
			return
		}
		imm, ok := a.eval(ops[1])
		if !ok {
			return
		}
		opcode := uint32(opLUI)
		if mnemonic == "auipc" {
			opcode = opAUIPC
		}
		// Operand is the 20-bit page number, matching the hardware field.
		a.emit32(encU(opcode, rd, imm<<12))

	case "jal":
		// jal rd, target  |  jal target (rd defaults to ra)
		var rd uint32 = 1
		target := ""
		switch len(ops) {
		case 1:
			target = ops[0]
		case 2:
			r, ok := a.reg(ops[0])
			if !ok {
				return
			}
			rd = r
			target = ops[1]
		default:
			a.errorf("jal wants 1 or 2 operands")
			return
		}
		dest, ok := a.eval(target)
		if !ok {
			return
		}
		off := dest - a.pc
		if a.pass == 2 && !a.checkRange("jal", off, -(1<<20), 1<<20-2) {
			return
		}
		a.emit32(encJ(opJAL, rd, off))

	case "jalr":
		// jalr rd, off(rs1)
		if !want(2) {
			return
		}
		rd, ok := a.reg(ops[0])
		if !ok {
			return
		}
		off, rs1, ok := a.memOperand(ops[1])
		if !ok {
			return
		}
		if a.pass == 2 && !a.checkRange("jalr", off, -2048, 2047) {
			return
		}
		a.emit32(encI(opJALR, 0x0, rd, rs1, off&0xFFF))

	case "beq", "bne", "blt", "bge", "bltu", "bgeu":
		if !want(3) {
			return
		}
		rs1, ok := a.reg(ops[0])
		if !ok {
			return
		}
		rs2, ok := a.reg(ops[1])
		if !ok {
			return
		}
		off, ok := a.branchOffset(ops[2])
		if !ok {
			return
		}
		a.emit32(encB(opBRANCH, branchFunct3[mnemonic], rs1, rs2, off))

	case "lb", "lh", "lw", "lbu", "lhu":
		if !want(2) {
			return
		}
		rd, ok := a.reg(ops[0])
		if !ok {
			return
		}
		off, rs1, ok := a.memOperand(ops[1])
		if !ok {
			return
		}
		if a.pass == 2 && !a.checkRange(mnemonic, off, -2048, 2047) {
			return
		}
		a.emit32(encI(opLOAD, loadFunct3[mnemonic], rd, rs1, off&0xFFF))

	case "sb", "sh", "sw":
		if !want(2) {
			return
		}
		rs2, ok := a.reg(ops[0])
		if !ok {
			return
		}
		off, rs1, ok := a.memOperand(ops[1])
		if !ok {
			return
		}
		if a.pass == 2 && !a.checkRange(mnemonic, off, -2048, 2047) {
			return
		}
		a.emit32(encS(opSTORE, storeFunct3[mnemonic], rs1, rs2, off&0xFFF))

	case "addi", "slti", "sltiu", "xori", "ori", "andi":
		if !want(3) {
			return
		}
		rd, ok := a.reg(ops[0])
		if !ok {
			return
		}
		rs1, ok := a.reg(ops[1])
		if !ok {
			return
		}
		imm, ok := a.eval(ops[2])
		if !ok {
			return
		}
		if a.pass == 2 && !a.checkRange(mnemonic, imm, -2048, 2047) {
			return
		}
		a.emit32(encI(opIMM, aluImmFunct3[mnemonic], rd, rs1, imm&0xFFF))

	case "slli", "srli", "srai":
		if !want(3) {
			return
		}
		rd, ok := a.reg(ops[0])
		if !ok {
			return
		}
		rs1, ok := a.reg(ops[1])
		if !ok {
			return
		}
		shamt, ok := a.eval(ops[2])
		if !ok {
			return
		}
		if shamt > 31 {
			a.errorf("%s shift amount %d out of range", mnemonic, shamt)
			return
		}
		var funct7 uint32
		funct3 := uint32(0x1)
		if mnemonic != "slli" {
			funct3 = 0x5
			if mnemonic == "srai" {
				funct7 = 0x20
			}
		}
		a.emit32(encR(opIMM, funct3, funct7, rd, rs1, shamt))

	case "add", "sub", "sll", "slt", "sltu", "xor", "srl", "sra", "or", "and":
		if !want(3) {
			return
		}
		rd, ok := a.reg(ops[0])
		if !ok {
			return
		}
		rs1, ok := a.reg(ops[1])
		if !ok {
			return
		}
		rs2, ok := a.reg(ops[2])
		if !ok {
			return
		}
		op := aluRegOps[mnemonic]
		a.emit32(encR(opREG, op.funct3, op.funct7, rd, rs1, rs2))

	case "fence":
		a.emit32(encI(opFENCE, 0x0, 0, 0, 0))
	case "ecall":
		a.emit32(encI(opSYSTEM, 0x0, 0, 0, 0))
	case "ebreak":
		a.emit32(encI(opSYSTEM, 0x0, 0, 0, 1))

	// Pseudo-instructions.
	case "nop":
		a.emit32(encI(opIMM, 0x0, 0, 0, 0))

	case "mv":
		if !want(2) {
			return
		}
		rd, ok := a.reg(ops[0])
		if !ok {
			return
		}
		rs1, ok := a.reg(ops[1])
		if !ok {
			return
		}
		a.emit32(encI(opIMM, 0x0, rd, rs1, 0))

	case "li":
		if !want(2) {
			return
		}
		rd, ok := a.reg(ops[0])
		if !ok {
			return
		}
		imm, ok := a.eval(ops[1])
		if !ok {
			return
		}
		if literalFits12(ops[1]) {
			a.emit32(encI(opIMM, 0x0, rd, 0, imm&0xFFF))
			return
		}
		a.emitLoadImm32(rd, imm)

	case "la":
		if !want(2) {
			return
		}
		rd, ok := a.reg(ops[0])
		if !ok {
			return
		}
		addr, ok := a.eval(ops[1])
		if !ok {
			return
		}
		a.emitLoadImm32(rd, addr)

	case "j":
		if !want(1) {
			return
		}
		dest, ok := a.eval(ops[0])
		if !ok {
			return
		}
		off := dest - a.pc
		if a.pass == 2 && !a.checkRange("j", off, -(1<<20), 1<<20-2) {
			return
		}
		a.emit32(encJ(opJAL, 0, off))

	case "jr":
		if !want(1) {
			return
		}
		rs1, ok := a.reg(ops[0])
		if !ok {
			return
		}
		a.emit32(encI(opJALR, 0x0, 0, rs1, 0))

	case "ret":
		a.emit32(encI(opJALR, 0x0, 0, 1, 0))

	default:
		a.errorf("unknown mnemonic %q", mnemonic)
	}
}

// emitLoadImm32 is the two-instruction lui+addi form, with the upper part
// rounded so the sign-extended addi lands exactly on the value.
func (a *Assembler) emitLoadImm32(rd, imm uint32) {
	upper := (imm + 0x800) >> 12
	lower := imm - upper<<12
	a.emit32(encU(opLUI, rd, upper<<12))
	a.emit32(encI(opIMM, 0x0, rd, rd, lower&0xFFF))
}
