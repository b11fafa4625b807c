// rv32asm.go - Two-pass RV32I assembler for Aurora-32

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
rv32asm.go - RV32I Assembler

Classic two-pass design: pass one walks the source collecting label
addresses and equates while tracking the location counter, pass two encodes
instruction words and data with every symbol resolved. Output is a flat
little-endian image starting at the first .org (default 0x1000); gaps
introduced by later .org directives are zero-filled.

Syntax:
  label:                 (also allowed on the same line as an instruction)
  .org ADDR              set location counter
  .equ NAME VALUE        define a constant
  .word V, V, ...        32-bit little-endian values
  .half V, V, ...        16-bit little-endian values
  .byte V, V, ...        bytes
  .ascii "text"          string bytes, no terminator
  .asciiz "text"         string bytes plus NUL
  .space N               N zero bytes
  .incbin "file"         raw file contents

Registers go by x0-x31 or ABI names (zero, ra, sp, a0-a7, s0-s11, t0-t6).
Immediates take decimal, 0x hex, or 'c' character form, and any symbol.
Comments start with ';' or '#'.

Pseudo-instructions: nop, li (addi when the literal fits 12 bits, else
lui+addi), mv, j, jr, ret, la (lui+addi against an absolute address).
li against a symbol always takes the two-instruction form so that both
passes agree on instruction sizes.
*/

package assembler

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DEFAULT_ORG is the location counter before any .org directive.
const DEFAULT_ORG = 0x1000

var registers = map[string]uint32{
	"zero": 0, "ra": 1, "sp": 2, "gp": 3, "tp": 4,
	"t0": 5, "t1": 6, "t2": 7,
	"s0": 8, "fp": 8, "s1": 9,
	"a0": 10, "a1": 11, "a2": 12, "a3": 13,
	"a4": 14, "a5": 15, "a6": 16, "a7": 17,
	"s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23,
	"s8": 24, "s9": 25, "s10": 26, "s11": 27,
	"t3": 28, "t4": 29, "t5": 30, "t6": 31,
}

// Assembler holds the state shared between the two passes.
type Assembler struct {
	org     uint32
	orgSet  bool
	pc      uint32
	labels  map[string]uint32
	equates map[string]uint32
	out     []byte
	errs    []string
	pass    int
	line    int
	emitted bool
}

// New creates an empty assembler.
func New() *Assembler {
	return &Assembler{
		labels:  make(map[string]uint32),
		equates: make(map[string]uint32),
	}
}

// Assemble is the convenience one-shot form.
func Assemble(src string) ([]byte, error) {
	return New().Assemble(src)
}

// Assemble runs both passes over the source and returns the flat image.
func (a *Assembler) Assemble(src string) ([]byte, error) {
	lines := strings.Split(src, "\n")

	a.pass = 1
	a.pc = DEFAULT_ORG
	a.emitted = false
	for i, raw := range lines {
		a.line = i + 1
		a.processLine(raw)
	}
	if len(a.errs) > 0 {
		return nil, fmt.Errorf("assembly failed:\n  %s", strings.Join(a.errs, "\n  "))
	}

	a.pass = 2
	a.pc = a.origin()
	a.out = nil
	a.emitted = false
	for i, raw := range lines {
		a.line = i + 1
		a.processLine(raw)
	}
	if len(a.errs) > 0 {
		return nil, fmt.Errorf("assembly failed:\n  %s", strings.Join(a.errs, "\n  "))
	}
	return a.out, nil
}

// Origin returns the load address of the assembled image.
func (a *Assembler) Origin() uint32 {
	return a.origin()
}

func (a *Assembler) origin() uint32 {
	if a.orgSet {
		return a.org
	}
	return DEFAULT_ORG
}

func (a *Assembler) errorf(format string, args ...interface{}) {
	a.errs = append(a.errs, fmt.Sprintf("line %d: %s", a.line, fmt.Sprintf(format, args...)))
}

func stripComment(line string) string {
	inString := false
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '"':
			inString = !inString
		case ';', '#':
			if !inString {
				return line[:i]
			}
		}
	}
	return line
}

func (a *Assembler) processLine(raw string) {
	line := strings.TrimSpace(stripComment(raw))
	if line == "" {
		return
	}

	// Leading label, possibly followed by more on the same line.
	if i := strings.Index(line, ":"); i >= 0 && isIdent(line[:i]) {
		if a.pass == 1 {
			name := line[:i]
			if _, dup := a.labels[name]; dup {
				a.errorf("duplicate label %q", name)
			}
			a.labels[name] = a.pc
		}
		line = strings.TrimSpace(line[i+1:])
		if line == "" {
			return
		}
	}

	if strings.HasPrefix(line, ".") {
		a.handleDirective(line)
		return
	}
	a.handleInstruction(line)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c == '.':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// =============================================================================
// Directives
// =============================================================================

func (a *Assembler) handleDirective(line string) {
	fields := strings.SplitN(line, " ", 2)
	directive := strings.ToLower(fields[0])
	rest := ""
	if len(fields) > 1 {
		rest = strings.TrimSpace(fields[1])
	}

	switch directive {
	case ".org":
		val, ok := a.eval(rest)
		if !ok {
			return
		}
		if a.pass == 1 && !a.orgSet && !a.emitted {
			a.org = val
			a.orgSet = true
		}
		if a.pass == 2 && val < a.pc {
			a.errorf(".org %08x moves backwards from %08x", val, a.pc)
			return
		}
		if a.pass == 2 {
			a.padTo(val)
		}
		a.pc = val

	case ".equ":
		parts := strings.Fields(rest)
		if len(parts) != 2 {
			a.errorf(".equ wants NAME VALUE")
			return
		}
		if a.pass == 1 {
			val, ok := a.eval(parts[1])
			if !ok {
				return
			}
			a.equates[parts[0]] = val
		}

	case ".word":
		for _, op := range splitOperands(rest) {
			val, ok := a.eval(op)
			if !ok {
				return
			}
			a.emit32(val)
		}

	case ".half":
		for _, op := range splitOperands(rest) {
			val, ok := a.eval(op)
			if !ok {
				return
			}
			a.emitBytes(byte(val), byte(val>>8))
		}

	case ".byte":
		for _, op := range splitOperands(rest) {
			val, ok := a.eval(op)
			if !ok {
				return
			}
			a.emitBytes(byte(val))
		}

	case ".ascii", ".asciiz":
		s, ok := parseString(rest)
		if !ok {
			a.errorf("%s wants a quoted string", directive)
			return
		}
		a.emitBytes([]byte(s)...)
		if directive == ".asciiz" {
			a.emitBytes(0)
		}

	case ".space":
		val, ok := a.eval(rest)
		if !ok {
			return
		}
		for i := uint32(0); i < val; i++ {
			a.emitBytes(0)
		}

	case ".incbin":
		path, ok := parseString(rest)
		if !ok {
			a.errorf(".incbin wants a quoted path")
			return
		}
		data, err := os.ReadFile(path)
		if err != nil {
			a.errorf(".incbin: %v", err)
			return
		}
		a.emitBytes(data...)

	default:
		a.errorf("unknown directive %s", directive)
	}
}

func parseString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", false
	}
	body := s[1 : len(s)-1]
	var out strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				out.WriteByte('\n')
			case 'r':
				out.WriteByte('\r')
			case 't':
				out.WriteByte('\t')
			case '0':
				out.WriteByte(0)
			case '\\':
				out.WriteByte('\\')
			case '"':
				out.WriteByte('"')
			default:
				out.WriteByte(body[i])
			}
			continue
		}
		out.WriteByte(c)
	}
	return out.String(), true
}

// =============================================================================
// Emission
// =============================================================================

func (a *Assembler) padTo(addr uint32) {
	for a.pc < addr {
		a.out = append(a.out, 0)
		a.pc++
	}
}

func (a *Assembler) emitBytes(bs ...byte) {
	if a.pass == 2 {
		a.out = append(a.out, bs...)
	}
	a.pc += uint32(len(bs))
	a.emitted = true
}

func (a *Assembler) emit32(val uint32) {
	a.emitBytes(byte(val), byte(val>>8), byte(val>>16), byte(val>>24))
}

// =============================================================================
// Operand parsing
// =============================================================================

func splitOperands(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (a *Assembler) reg(name string) (uint32, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if r, ok := registers[name]; ok {
		return r, true
	}
	if strings.HasPrefix(name, "x") {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 0 && n < 32 {
			return uint32(n), true
		}
	}
	a.errorf("bad register %q", name)
	return 0, false
}

// eval resolves a literal, equate or label to a value. On pass one,
// symbols that are not yet defined resolve to zero so sizing can proceed;
// pass two reports them.
func (a *Assembler) eval(s string) (uint32, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		a.errorf("missing operand")
		return 0, false
	}

	if v, ok, bad := parseLiteral(s); bad {
		a.errorf("bad literal %q", s)
		return 0, false
	} else if ok {
		return v, true
	}

	if v, ok := a.equates[s]; ok {
		return v, true
	}
	if v, ok := a.labels[s]; ok {
		return v, true
	}
	if a.pass == 1 {
		return 0, true
	}
	a.errorf("undefined symbol %q", s)
	return 0, false
}

// parseLiteral returns (value, isLiteral, malformed).
func parseLiteral(s string) (uint32, bool, bool) {
	if len(s) >= 3 && s[0] == '\'' && s[len(s)-1] == '\'' {
		body := s[1 : len(s)-1]
		if len(body) == 2 && body[0] == '\\' {
			switch body[1] {
			case 'n':
				return '\n', true, false
			case 'r':
				return '\r', true, false
			case 't':
				return '\t', true, false
			case '0':
				return 0, true, false
			case '\\':
				return '\\', true, false
			}
			return 0, false, true
		}
		if len(body) == 1 {
			return uint32(body[0]), true, false
		}
		return 0, false, true
	}

	neg := false
	body := s
	if strings.HasPrefix(body, "-") {
		neg = true
		body = body[1:]
	}
	if body == "" {
		return 0, false, true
	}
	first := body[0]
	if first < '0' || first > '9' {
		return 0, false, false // a symbol, not a literal
	}
	v, err := strconv.ParseUint(body, 0, 64)
	if err != nil {
		return 0, false, true
	}
	if neg {
		return uint32(-int64(v)), true, false
	}
	return uint32(v), true, false
}

// literalFits12 reports whether the operand is a literal that fits a
// signed 12-bit immediate. Used to size li identically in both passes.
func literalFits12(s string) bool {
	v, ok, bad := parseLiteral(strings.TrimSpace(s))
	if !ok || bad {
		return false
	}
	sv := int32(v)
	return sv >= -2048 && sv < 2048
}

// memOperand splits "off(reg)" into its parts; a bare "(reg)" means
// offset zero.
func (a *Assembler) memOperand(s string) (off uint32, reg uint32, ok bool) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		a.errorf("bad memory operand %q (want off(reg))", s)
		return 0, 0, false
	}
	offStr := strings.TrimSpace(s[:open])
	if offStr == "" {
		offStr = "0"
	}
	off, ok = a.eval(offStr)
	if !ok {
		return 0, 0, false
	}
	reg, ok = a.reg(s[open+1 : len(s)-1])
	return off, reg, ok
}

func (a *Assembler) checkRange(name string, val uint32, lo, hi int32) bool {
	sv := int32(val)
	if sv < lo || sv > hi {
		a.errorf("%s immediate %d out of range [%d, %d]", name, sv, lo, hi)
		return false
	}
	return true
}

func (a *Assembler) branchOffset(target string) (uint32, bool) {
	dest, ok := a.eval(target)
	if !ok {
		return 0, false
	}
	off := dest - a.pc
	if a.pass == 2 {
		if int32(off)%2 != 0 {
			a.errorf("branch target misaligned")
			return 0, false
		}
		if !a.checkRange("branch", off, -4096, 4094) {
			return 0, false
		}
	}
	return off, true
}
