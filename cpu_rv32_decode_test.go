package main

import "testing"

// TestDecodeRegisterFields verifies rd/rs1/rs2 extraction on an R-type word.
func TestDecodeRegisterFields(t *testing.T) {
	// sub x3, x1, x2
	ins := Decode(0x402081B3)
	if ins.Kind != RV_SUB {
		t.Fatalf("kind = %d, expected RV_SUB", ins.Kind)
	}
	if ins.Rd != 3 || ins.Rs1 != 1 || ins.Rs2 != 2 {
		t.Fatalf("fields rd=%d rs1=%d rs2=%d, expected 3/1/2", ins.Rd, ins.Rs1, ins.Rs2)
	}
}

// TestDecodeImmediateI verifies sign extension of the I-type immediate.
func TestDecodeImmediateI(t *testing.T) {
	// addi x1, x0, -1
	ins := Decode(0xFFF00093)
	if ins.Kind != RV_ADDI {
		t.Fatalf("kind = %d, expected RV_ADDI", ins.Kind)
	}
	if ins.Imm != -1 {
		t.Fatalf("imm = %d, expected -1", ins.Imm)
	}
}

// TestDecodeImmediateU verifies the U-type immediate stays pre-shifted.
func TestDecodeImmediateU(t *testing.T) {
	// lui x5, 0x12345
	ins := Decode(0x123452B7)
	if ins.Kind != RV_LUI {
		t.Fatalf("kind = %d, expected RV_LUI", ins.Kind)
	}
	if uint32(ins.Imm) != 0x12345000 {
		t.Fatalf("imm = 0x%08X, expected 0x12345000", uint32(ins.Imm))
	}
}

// TestDecodeImmediateB verifies the scrambled B-type layout reassembles.
func TestDecodeImmediateB(t *testing.T) {
	// beq x1, x2, +8
	ins := Decode(0x00208463)
	if ins.Kind != RV_BEQ {
		t.Fatalf("kind = %d, expected RV_BEQ", ins.Kind)
	}
	if ins.Imm != 8 {
		t.Fatalf("imm = %d, expected 8", ins.Imm)
	}
	// bne x10, x11, -4: imm[12]=1 imm[10:5]=0x3F imm[4:1]=0xE imm[11]=1
	ins = Decode(0xFEB51EE3)
	if ins.Kind != RV_BNE {
		t.Fatalf("kind = %d, expected RV_BNE", ins.Kind)
	}
	if ins.Imm != -4 {
		t.Fatalf("imm = %d, expected -4", ins.Imm)
	}
}

// TestDecodeImmediateJ verifies the scrambled J-type layout reassembles.
func TestDecodeImmediateJ(t *testing.T) {
	// jal x1, +8
	ins := Decode(0x008000EF)
	if ins.Kind != RV_JAL {
		t.Fatalf("kind = %d, expected RV_JAL", ins.Kind)
	}
	if ins.Imm != 8 || ins.Rd != 1 {
		t.Fatalf("imm=%d rd=%d, expected 8/1", ins.Imm, ins.Rd)
	}
}

// TestDecodeShifts verifies the shift amount comes from the rs2 field and
// SRAI is distinguished by funct7.
func TestDecodeShifts(t *testing.T) {
	// srai x1, x2, 4
	ins := Decode(0x40415093)
	if ins.Kind != RV_SRAI {
		t.Fatalf("kind = %d, expected RV_SRAI", ins.Kind)
	}
	if ins.Imm != 4 {
		t.Fatalf("shamt = %d, expected 4", ins.Imm)
	}
	// srli x1, x2, 4
	ins = Decode(0x00415093)
	if ins.Kind != RV_SRLI {
		t.Fatalf("kind = %d, expected RV_SRLI", ins.Kind)
	}
}

// TestDecodeSystem verifies ECALL and EBREAK split on the immediate field.
func TestDecodeSystem(t *testing.T) {
	if k := Decode(0x00000073).Kind; k != RV_ECALL {
		t.Fatalf("0x00000073 decoded to %d, expected RV_ECALL", k)
	}
	if k := Decode(0x00100073).Kind; k != RV_EBREAK {
		t.Fatalf("0x00100073 decoded to %d, expected RV_EBREAK", k)
	}
}

// TestDecodeIllegal verifies unknown patterns come back as RV_ILLEGAL
// instead of being guessed at.
func TestDecodeIllegal(t *testing.T) {
	cases := []uint32{
		0x00000000, // all zeros
		0xFFFFFFFF, // all ones
		0x00001067, // jalr with funct3=1
		0x02208033, // add with reserved funct7=0x01
		0x0030B023, // store with funct3=3
	}
	for _, inst := range cases {
		if k := Decode(inst).Kind; k != RV_ILLEGAL {
			t.Fatalf("0x%08X decoded to %d, expected RV_ILLEGAL", inst, k)
		}
	}
}
