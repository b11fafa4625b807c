package assembler

import (
	"encoding/binary"
	"testing"
)

// words decodes an assembled image into little-endian instruction words.
func words(t *testing.T, image []byte) []uint32 {
	t.Helper()
	if len(image)%4 != 0 {
		t.Fatalf("image length %d not word aligned", len(image))
	}
	out := make([]uint32, len(image)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(image[i*4:])
	}
	return out
}

// TestEncodeBaseInstructions verifies a handful of encodings against
// hand-assembled reference words.
func TestEncodeBaseInstructions(t *testing.T) {
	image, err := Assemble(`
		addi x1, x0, -1
		lui t0, 0x12345
		sub gp, ra, sp
		lw gp, 4(ra)
		sw sp, 4(ra)
		srai ra, sp, 4
		ecall
		ebreak
	`)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	want := []uint32{
		0xFFF00093,
		0x123452B7,
		0x402081B3,
		0x0040A183,
		0x0020A223,
		0x40415093,
		0x00000073,
		0x00100073,
	}
	got := words(t, image)
	if len(got) != len(want) {
		t.Fatalf("image has %d words, expected %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("word %d = 0x%08X, expected 0x%08X", i, got[i], want[i])
		}
	}
}

// TestLabelsAndBranches verifies forward and backward label fixups in
// branch and jump offsets.
func TestLabelsAndBranches(t *testing.T) {
	image, err := Assemble(`
	start:
		beq x1, x2, fwd
		nop
	fwd:
		jal x1, start
	`)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	got := words(t, image)
	// beq +8 over the nop
	if got[0] != 0x00208463 {
		t.Fatalf("beq word = 0x%08X, expected 0x00208463", got[0])
	}
	// jal back -8: imm[20]=1, imm[10:1]=0x3FC, imm[11]=1, imm[19:12]=0xFF
	if got[2] != 0xFF9FF0EF {
		t.Fatalf("jal word = 0x%08X, expected 0xFF9FF0EF", got[2])
	}
}

// TestLiPseudoSizing verifies li takes one instruction for small literals
// and the lui+addi pair otherwise, including negative-low-half rounding.
func TestLiPseudoSizing(t *testing.T) {
	image, err := Assemble(`
		li a0, 100
		li a1, 0xDEADBEEF
		li a2, -1
	`)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	got := words(t, image)
	if len(got) != 4 {
		t.Fatalf("image has %d words, expected 4 (1 + 2 + 1)", len(got))
	}
	if got[0] != 0x06400513 { // addi a0, x0, 100
		t.Fatalf("li small = 0x%08X, expected 0x06400513", got[0])
	}
	// upper rounds to 0xDEADC so the sign-extended addi lands exactly.
	if got[1] != 0xDEADC5B7 { // lui a1, 0xDEADC
		t.Fatalf("li lui = 0x%08X, expected 0xDEADC5B7", got[1])
	}
	if got[2] != 0xEEF58593 { // addi a1, a1, -273
		t.Fatalf("li addi = 0x%08X, expected 0xEEF58593", got[2])
	}
	if got[3] != 0xFFF00613 { // addi a2, x0, -1
		t.Fatalf("li -1 = 0x%08X, expected 0xFFF00613", got[3])
	}
}

// TestLaAgainstLabel verifies la always takes the two-instruction form so
// both passes agree on sizes.
func TestLaAgainstLabel(t *testing.T) {
	image, err := Assemble(`
		la a0, data
		nop
	data:
		.word 0xCAFEBABE
	`)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	got := words(t, image)
	if len(got) != 4 {
		t.Fatalf("image has %d words, expected 4", len(got))
	}
	// data sits at 0x1000 + 12 = 0x100C: lui a0, 0x1 / addi a0, a0, 0xC
	if got[0] != 0x00001537 {
		t.Fatalf("la lui = 0x%08X, expected 0x00001537", got[0])
	}
	if got[1] != 0x00C50513 {
		t.Fatalf("la addi = 0x%08X, expected 0x00C50513", got[1])
	}
	if got[3] != 0xCAFEBABE {
		t.Fatalf("data word = 0x%08X, expected 0xCAFEBABE", got[3])
	}
}

// TestDirectives verifies .org, .equ, data directives and gap padding.
func TestDirectives(t *testing.T) {
	asm := New()
	image, err := asm.Assemble(`
		.org 0x2000
		.equ MAGIC 0x55
		.byte MAGIC, 0x01
		.half 0x2233
		.word 0x44556677
		.org 0x2010
		.asciiz "ok"
	`)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if asm.Origin() != 0x2000 {
		t.Fatalf("Origin = 0x%X, expected 0x2000", asm.Origin())
	}
	want := []byte{
		0x55, 0x01, 0x33, 0x22, 0x77, 0x66, 0x55, 0x44,
		0, 0, 0, 0, 0, 0, 0, 0, // pad to 0x2010
		'o', 'k', 0,
	}
	if len(image) != len(want) {
		t.Fatalf("image length %d, expected %d", len(image), len(want))
	}
	for i := range want {
		if image[i] != want[i] {
			t.Fatalf("byte %d = 0x%02X, expected 0x%02X", i, image[i], want[i])
		}
	}
}

// TestErrorReporting verifies undefined symbols, bad registers and
// out-of-range immediates surface with line numbers.
func TestErrorReporting(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"undefined symbol", "j nowhere"},
		{"bad register", "addi q0, x0, 1"},
		{"immediate range", "addi x1, x0, 5000"},
		{"duplicate label", "dup:\n	nop\ndup:"},
		{"backwards org", ".org 0x2000\n	nop\n.org 0x1000"},
		{"unknown mnemonic", "frobnicate x1, x2"},
	}
	for _, c := range cases {
		if _, err := Assemble(c.src); err == nil {
			t.Fatalf("%s: assembly succeeded, expected error", c.name)
		}
	}
}

// TestCommentsAndCharLiterals verifies comment stripping stays out of
// strings and char operands assemble.
func TestCommentsAndCharLiterals(t *testing.T) {
	image, err := Assemble(`
		li a0, 'A'      ; trailing comment
		# whole-line comment
		.ascii "semi;colon"
	`)
	if err != nil {
		t.Fatalf("assemble failed: %v", err)
	}
	if binary.LittleEndian.Uint32(image) != 0x04100513 { // addi a0, x0, 65
		t.Fatalf("char li = 0x%08X, expected 0x04100513", binary.LittleEndian.Uint32(image))
	}
	if string(image[4:]) != "semi;colon" {
		t.Fatalf("string bytes = %q, expected \"semi;colon\"", image[4:])
	}
}
