package main

import "testing"

// putString feeds each byte through the console discipline.
func putString(gpu *GPU, s string) {
	for i := 0; i < len(s); i++ {
		gpu.PutChar(s[i])
	}
}

// TestPutCharStoresCell verifies a printable lands in VRAM with the
// default attribute and advances the cursor.
func TestPutCharStoresCell(t *testing.T) {
	gpu := NewGPU()
	gpu.PutChar('A')
	ch, attr := gpu.CellAt(0, 0)
	if ch != 'A' || attr != DEFAULT_ATTR {
		t.Fatalf("cell (0,0) = 0x%02X/0x%02X, expected 0x41/0x07", ch, attr)
	}
	if x, y := gpu.Cursor(); x != 1 || y != 0 {
		t.Fatalf("cursor at (%d,%d), expected (1,0)", x, y)
	}
}

// TestPutCharWrapsAtColumn79 verifies writing the 80th character wraps the
// cursor to the next row.
func TestPutCharWrapsAtColumn79(t *testing.T) {
	gpu := NewGPU()
	for i := 0; i < TEXT_COLS; i++ {
		gpu.PutChar('x')
	}
	if x, y := gpu.Cursor(); x != 0 || y != 1 {
		t.Fatalf("cursor at (%d,%d) after 80 chars, expected (0,1)", x, y)
	}
	if ch, _ := gpu.CellAt(79, 0); ch != 'x' {
		t.Fatalf("cell (79,0) = 0x%02X, expected 'x'", ch)
	}
}

// TestCRLFAdvancesTwoRows verifies CR and LF each advance a row with no
// CRLF coalescing.
func TestCRLFAdvancesTwoRows(t *testing.T) {
	gpu := NewGPU()
	putString(gpu, "a\r\nb")
	if ch, _ := gpu.CellAt(0, 0); ch != 'a' {
		t.Fatalf("cell (0,0) = 0x%02X, expected 'a'", ch)
	}
	if ch, _ := gpu.CellAt(0, 2); ch != 'b' {
		t.Fatalf("cell (0,2) = 0x%02X, expected 'b' two rows down", ch)
	}
	if x, y := gpu.Cursor(); x != 1 || y != 2 {
		t.Fatalf("cursor at (%d,%d), expected (1,2)", x, y)
	}
}

// TestBackspaceBlanksCell verifies BS retreats and blanks, and never
// crosses column 0.
func TestBackspaceBlanksCell(t *testing.T) {
	gpu := NewGPU()
	putString(gpu, "ab\x08")
	if x, _ := gpu.Cursor(); x != 1 {
		t.Fatalf("cursor column %d after BS, expected 1", x)
	}
	if ch, _ := gpu.CellAt(1, 0); ch != ' ' {
		t.Fatalf("vacated cell = 0x%02X, expected blank", ch)
	}

	gpu.PutChar(0x08)
	gpu.PutChar(0x08) // already at column 0; must stay put
	if x, y := gpu.Cursor(); x != 0 || y != 0 {
		t.Fatalf("cursor at (%d,%d), expected pinned at (0,0)", x, y)
	}
}

// TestTabStops verifies Tab advances to the next multiple-of-8 column and
// wraps from the last stop.
func TestTabStops(t *testing.T) {
	gpu := NewGPU()
	gpu.PutChar('\t')
	if x, _ := gpu.Cursor(); x != 8 {
		t.Fatalf("cursor column %d after tab, expected 8", x)
	}
	gpu.PutChar('a')
	gpu.PutChar('\t')
	if x, _ := gpu.Cursor(); x != 16 {
		t.Fatalf("cursor column %d, expected 16", x)
	}

	// From column 76 the next stop (80) is off-grid: wrap to the next row.
	gpu.Reset()
	for i := 0; i < 76; i++ {
		gpu.PutChar('x')
	}
	gpu.PutChar('\t')
	if x, y := gpu.Cursor(); x != 0 || y != 1 {
		t.Fatalf("cursor at (%d,%d) after edge tab, expected (0,1)", x, y)
	}
}

// TestScrollAtBottomRow verifies advancing past row 24 scrolls the grid up
// one row and clears the last row.
func TestScrollAtBottomRow(t *testing.T) {
	gpu := NewGPU()
	for row := 0; row < TEXT_ROWS; row++ {
		putString(gpu, string(rune('A'+row)))
		if row < TEXT_ROWS-1 {
			gpu.PutChar('\n')
		}
	}
	// Cursor is on row 24; one more newline scrolls.
	gpu.PutChar('\n')

	if ch, _ := gpu.CellAt(0, 0); ch != 'B' {
		t.Fatalf("top row starts with 0x%02X after scroll, expected 'B'", ch)
	}
	if ch, _ := gpu.CellAt(0, TEXT_ROWS-2); ch != 'Y' {
		t.Fatalf("row 23 starts with 0x%02X, expected 'Y'", ch)
	}
	if row := gpu.TextRow(TEXT_ROWS - 1); row != "" {
		t.Fatalf("bottom row = %q after scroll, expected cleared", row)
	}
	if _, y := gpu.Cursor(); y != TEXT_ROWS-1 {
		t.Fatalf("cursor row %d, expected pinned to 24", y)
	}
}

// TestVRAMThroughBus verifies direct VRAM pokes and register reads through
// the byte-composed bus path.
func TestVRAMThroughBus(t *testing.T) {
	m, err := NewMachine(0x10000, t.TempDir())
	if err != nil {
		t.Fatalf("NewMachine failed: %v", err)
	}
	bus := m.Bus()

	// Character 'Z' with attribute 0x1F at cell (2,1).
	cell := uint32(GPU_TEXT_BASE + (1*TEXT_COLS+2)*2)
	bus.Write16(cell, 0x1F5A)
	ch, attr := m.GPU().CellAt(2, 1)
	if ch != 'Z' || attr != 0x1F {
		t.Fatalf("cell (2,1) = 0x%02X/0x%02X, expected 0x5A/0x1F", ch, attr)
	}

	// Cursor registers follow syscall output.
	m.GPU().PutChar('Q')
	if got := bus.Read32(GPU_CURSOR_X); got != 1 {
		t.Fatalf("GPU_CURSOR_X = %d, expected 1", got)
	}
	if got := bus.Read32(GPU_CURSOR_Y); got != 0 {
		t.Fatalf("GPU_CURSOR_Y = %d, expected 0", got)
	}

	// Out-of-range cursor writes are dropped.
	bus.Write32(GPU_CURSOR_X, 200)
	if got := bus.Read32(GPU_CURSOR_X); got != 1 {
		t.Fatalf("GPU_CURSOR_X = %d after bad write, expected 1", got)
	}

	// WIDTH/HEIGHT report the text grid in mode 0.
	if got := bus.Read32(GPU_WIDTH); got != TEXT_COLS {
		t.Fatalf("GPU_WIDTH = %d, expected 80", got)
	}
	bus.Write32(GPU_MODE, GPU_MODE_320x200)
	if got := bus.Read32(GPU_WIDTH); got != 320 {
		t.Fatalf("GPU_WIDTH = %d in mode 1, expected 320", got)
	}
}

// TestCursorVisibleAtPowerOn verifies a fresh GPU and a reset GPU agree
// that the cursor starts visible.
func TestCursorVisibleAtPowerOn(t *testing.T) {
	m, err := NewMachine(0x10000, t.TempDir())
	if err != nil {
		t.Fatalf("NewMachine failed: %v", err)
	}
	if got := m.Bus().Read32(GPU_CURSOR_CTRL); got != 1 {
		t.Fatalf("GPU_CURSOR_CTRL = %d at power-on, expected 1", got)
	}
	m.Bus().Write32(GPU_CURSOR_CTRL, 0)
	m.Reset()
	if got := m.Bus().Read32(GPU_CURSOR_CTRL); got != 1 {
		t.Fatalf("GPU_CURSOR_CTRL = %d after reset, expected 1", got)
	}
}

// TestPaletteDefaultsAndWrite verifies the VGA defaults and a palette
// rewrite through the bus.
func TestPaletteDefaultsAndWrite(t *testing.T) {
	m, err := NewMachine(0x10000, t.TempDir())
	if err != nil {
		t.Fatalf("NewMachine failed: %v", err)
	}
	if got := m.GPU().PaletteEntry(7); got != 0xAAAAAA {
		t.Fatalf("palette[7] = 0x%06X, expected 0xAAAAAA", got)
	}
	m.Bus().Write32(GPU_PAL_BASE+7*4, 0x00123456)
	if got := m.GPU().PaletteEntry(7); got != 0x123456 {
		t.Fatalf("palette[7] = 0x%06X after write, expected 0x123456", got)
	}
}

// TestConsoleLogDrains verifies every PutChar byte reaches the console log
// exactly once.
func TestConsoleLogDrains(t *testing.T) {
	gpu := NewGPU()
	putString(gpu, "hi\n")
	if got := gpu.DrainConsole(); got != "hi\n" {
		t.Fatalf("console = %q, expected \"hi\\n\"", got)
	}
	if got := gpu.DrainConsole(); got != "" {
		t.Fatalf("console = %q after drain, expected empty", got)
	}
}
