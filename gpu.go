// gpu.go - GPU device for Aurora-32

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
gpu.go - GPU Device

The GPU owns three address ranges inside its bus window: the control
registers at the base, the 80x25 text VRAM (two bytes per cell: character,
attribute), and the paletted linear framebuffer with its 256-entry palette.
All of it is byte-addressable from the bus; multi-byte register values are
composed a byte at a time on each side.

PutChar implements the text console discipline used by the putchar, puts
and getline syscalls: printables advance the cursor with wrap at column 79,
CR and LF each move to column 0 of the next row (two CRLF bytes advance two
rows), backspace retreats and blanks the vacated cell but never crosses
column 0, tab advances to the next multiple-of-8 column, and advancing past
row 24 scrolls the grid up one row and clears the last row. The cursor
moved here is the same one exposed through GPU_CURSOR_X/Y, so guests mixing
direct VRAM access with syscall output see one consistent screen.

Every PutChar byte is also appended to a host-side console log (and handed
to the output callback when one is registered) so tests and the terminal
host can observe console traffic without scraping VRAM.
*/

package main

import "sync"

const TAB_WIDTH = 8

// DEFAULT_ATTR is the attribute byte PutChar stores with each character:
// light grey on black in the VGA convention the palette defaults follow.
const DEFAULT_ATTR = 0x07

// GPU is the graphics device. One instance per machine; the mutex guards
// against the video backend goroutine snapshotting mid-write.
type GPU struct {
	mu sync.Mutex

	mode          uint32
	cursorX       uint32
	cursorY       uint32
	cursorCtrl    uint32
	vblank        bool
	frameCount    uint64

	attr byte

	text    [GPU_TEXT_SIZE]byte
	palRaw  [GPU_PAL_SIZE]byte
	fb      [GPU_FB_SIZE]byte

	// Console log of every PutChar byte, drained by tests and hosts.
	console      []byte
	onCharOutput func(byte)
	onBell       func()
}

// NewGPU creates a GPU in text mode with a cleared screen, the cursor at
// (0,0) and the default palette loaded.
func NewGPU() *GPU {
	gpu := &GPU{attr: DEFAULT_ATTR, cursorCtrl: 1}
	gpu.loadDefaultPalette()
	gpu.clearLocked()
	return gpu
}

// SetCharOutputCallback registers a callback receiving every console byte.
// The callback runs outside the GPU lock.
func (gpu *GPU) SetCharOutputCallback(fn func(byte)) {
	gpu.mu.Lock()
	gpu.onCharOutput = fn
	gpu.mu.Unlock()
}

// SetBellCallback registers a callback for BEL (0x07) console bytes.
// Typically wired to the speaker.
func (gpu *GPU) SetBellCallback(fn func()) {
	gpu.mu.Lock()
	gpu.onBell = fn
	gpu.mu.Unlock()
}

// Reset restores power-on state: text mode, cleared grid, cursor home.
func (gpu *GPU) Reset() {
	gpu.mu.Lock()
	defer gpu.mu.Unlock()
	gpu.mode = GPU_MODE_TEXT
	gpu.cursorCtrl = 1
	gpu.attr = DEFAULT_ATTR
	gpu.console = nil
	for i := range gpu.fb {
		gpu.fb[i] = 0
	}
	gpu.loadDefaultPalette()
	gpu.clearLocked()
}

func (gpu *GPU) clearLocked() {
	for i := 0; i < GPU_TEXT_SIZE; i += 2 {
		gpu.text[i] = ' '
		gpu.text[i+1] = gpu.attr
	}
	gpu.cursorX = 0
	gpu.cursorY = 0
}

// The first 16 entries follow the VGA text palette; the rest ramp through
// a 6x6x6 colour cube and a grey ramp, XTerm style.
func (gpu *GPU) loadDefaultPalette() {
	vga := [16]uint32{
		0x000000, 0x0000AA, 0x00AA00, 0x00AAAA,
		0xAA0000, 0xAA00AA, 0xAA5500, 0xAAAAAA,
		0x555555, 0x5555FF, 0x55FF55, 0x55FFFF,
		0xFF5555, 0xFF55FF, 0xFFFF55, 0xFFFFFF,
	}
	setEntry := func(i int, rgb uint32) {
		gpu.palRaw[i*4] = byte(rgb)
		gpu.palRaw[i*4+1] = byte(rgb >> 8)
		gpu.palRaw[i*4+2] = byte(rgb >> 16)
		gpu.palRaw[i*4+3] = 0
	}
	for i, rgb := range vga {
		setEntry(i, rgb)
	}
	ramp := [6]uint32{0x00, 0x5F, 0x87, 0xAF, 0xD7, 0xFF}
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				setEntry(16+r*36+g*6+b, ramp[r]<<16|ramp[g]<<8|ramp[b])
			}
		}
	}
	for i := 0; i < 24; i++ {
		grey := uint32(8 + i*10)
		setEntry(232+i, grey<<16|grey<<8|grey)
	}
}

// =============================================================================
// MMIO
// =============================================================================

func regByteOf(value uint32, offset uint32) byte {
	return byte(value >> (8 * offset))
}

func setRegByte(value uint32, offset uint32, b byte) uint32 {
	shift := 8 * offset
	return value&^(0xFF<<shift) | uint32(b)<<shift
}

// ReadByte serves bus reads anywhere in the GPU window.
func (gpu *GPU) ReadByte(addr uint32) byte {
	gpu.mu.Lock()
	defer gpu.mu.Unlock()

	switch {
	case addr >= GPU_TEXT_BASE && addr < GPU_TEXT_BASE+GPU_TEXT_SIZE:
		return gpu.text[addr-GPU_TEXT_BASE]
	case addr >= GPU_PAL_BASE && addr < GPU_PAL_BASE+GPU_PAL_SIZE:
		return gpu.palRaw[addr-GPU_PAL_BASE]
	case addr >= GPU_FB_BASE && addr < GPU_FB_BASE+GPU_FB_SIZE:
		return gpu.fb[addr-GPU_FB_BASE]
	}

	reg := addr &^ 3
	off := addr & 3
	switch reg {
	case GPU_MODE:
		return regByteOf(gpu.mode, off)
	case GPU_CURSOR_X:
		return regByteOf(gpu.cursorX, off)
	case GPU_CURSOR_Y:
		return regByteOf(gpu.cursorY, off)
	case GPU_CURSOR_CTRL:
		return regByteOf(gpu.cursorCtrl, off)
	case GPU_WIDTH:
		return regByteOf(gpu.widthLocked(), off)
	case GPU_HEIGHT:
		return regByteOf(gpu.heightLocked(), off)
	case GPU_STATUS:
		var status uint32
		if gpu.vblank {
			status |= 1
		}
		return regByteOf(status, off)
	}
	return 0
}

// WriteByte serves bus writes anywhere in the GPU window. WIDTH, HEIGHT and
// STATUS are read-only; writes to them are dropped.
func (gpu *GPU) WriteByte(addr uint32, value byte) {
	gpu.mu.Lock()
	defer gpu.mu.Unlock()

	switch {
	case addr >= GPU_TEXT_BASE && addr < GPU_TEXT_BASE+GPU_TEXT_SIZE:
		gpu.text[addr-GPU_TEXT_BASE] = value
		return
	case addr >= GPU_PAL_BASE && addr < GPU_PAL_BASE+GPU_PAL_SIZE:
		gpu.palRaw[addr-GPU_PAL_BASE] = value
		return
	case addr >= GPU_FB_BASE && addr < GPU_FB_BASE+GPU_FB_SIZE:
		gpu.fb[addr-GPU_FB_BASE] = value
		return
	}

	reg := addr &^ 3
	off := addr & 3
	switch reg {
	case GPU_MODE:
		mode := setRegByte(gpu.mode, off, value)
		if mode <= GPU_MODE_640x480 {
			gpu.mode = mode
		}
	case GPU_CURSOR_X:
		x := setRegByte(gpu.cursorX, off, value)
		if x < TEXT_COLS {
			gpu.cursorX = x
		}
	case GPU_CURSOR_Y:
		y := setRegByte(gpu.cursorY, off, value)
		if y < TEXT_ROWS {
			gpu.cursorY = y
		}
	case GPU_CURSOR_CTRL:
		gpu.cursorCtrl = setRegByte(gpu.cursorCtrl, off, value)
	}
}

func (gpu *GPU) widthLocked() uint32 {
	switch gpu.mode {
	case GPU_MODE_320x200:
		return 320
	case GPU_MODE_640x480:
		return 640
	}
	return TEXT_COLS
}

func (gpu *GPU) heightLocked() uint32 {
	switch gpu.mode {
	case GPU_MODE_320x200:
		return 200
	case GPU_MODE_640x480:
		return 480
	}
	return TEXT_ROWS
}

// =============================================================================
// Console discipline
// =============================================================================

// PutChar writes one byte through the text console discipline and logs it
// for host-side observation.
func (gpu *GPU) PutChar(ch byte) {
	gpu.mu.Lock()
	gpu.console = append(gpu.console, ch)
	fn := gpu.onCharOutput
	var bell func()
	if ch == 0x07 {
		bell = gpu.onBell
	}

	switch ch {
	case 0x0D, 0x0A:
		// CR and LF each advance one row; a CRLF pair advances two.
		gpu.cursorX = 0
		gpu.advanceRowLocked()

	case 0x08:
		if gpu.cursorX > 0 {
			gpu.cursorX--
			gpu.setCellLocked(gpu.cursorX, gpu.cursorY, ' ', gpu.attr)
		}

	case 0x09:
		gpu.cursorX = (gpu.cursorX/TAB_WIDTH + 1) * TAB_WIDTH
		if gpu.cursorX >= TEXT_COLS {
			gpu.cursorX = 0
			gpu.advanceRowLocked()
		}

	default:
		if ch >= 0x20 && ch < 0x7F {
			gpu.setCellLocked(gpu.cursorX, gpu.cursorY, ch, gpu.attr)
			gpu.cursorX++
			if gpu.cursorX >= TEXT_COLS {
				gpu.cursorX = 0
				gpu.advanceRowLocked()
			}
		}
	}
	gpu.mu.Unlock()

	if fn != nil {
		fn(ch)
	}
	if bell != nil {
		bell()
	}
}

func (gpu *GPU) setCellLocked(x, y uint32, ch, attr byte) {
	i := (y*TEXT_COLS + x) * 2
	gpu.text[i] = ch
	gpu.text[i+1] = attr
}

func (gpu *GPU) advanceRowLocked() {
	if gpu.cursorY < TEXT_ROWS-1 {
		gpu.cursorY++
		return
	}
	gpu.scrollLocked()
}

func (gpu *GPU) scrollLocked() {
	copy(gpu.text[:], gpu.text[TEXT_COLS*2:])
	last := (TEXT_ROWS - 1) * TEXT_COLS * 2
	for i := last; i < GPU_TEXT_SIZE; i += 2 {
		gpu.text[i] = ' '
		gpu.text[i+1] = gpu.attr
	}
}

// =============================================================================
// Host-side accessors (tests, video backends, lua scripts)
// =============================================================================

// Cursor returns the text cursor position.
func (gpu *GPU) Cursor() (x, y uint32) {
	gpu.mu.Lock()
	defer gpu.mu.Unlock()
	return gpu.cursorX, gpu.cursorY
}

// CursorVisible reports bit 0 of GPU_CURSOR_CTRL.
func (gpu *GPU) CursorVisible() bool {
	gpu.mu.Lock()
	defer gpu.mu.Unlock()
	return gpu.cursorCtrl&1 != 0
}

// Mode returns the current display mode.
func (gpu *GPU) Mode() uint32 {
	gpu.mu.Lock()
	defer gpu.mu.Unlock()
	return gpu.mode
}

// CellAt returns the character and attribute at a text cell.
func (gpu *GPU) CellAt(x, y uint32) (ch, attr byte) {
	gpu.mu.Lock()
	defer gpu.mu.Unlock()
	i := (y*TEXT_COLS + x) * 2
	return gpu.text[i], gpu.text[i+1]
}

// TextRow returns row y of the grid as a trimmed string, for tests and the
// lua screenrow() binding.
func (gpu *GPU) TextRow(y uint32) string {
	gpu.mu.Lock()
	defer gpu.mu.Unlock()
	row := make([]byte, TEXT_COLS)
	for x := uint32(0); x < TEXT_COLS; x++ {
		row[x] = gpu.text[(y*TEXT_COLS+x)*2]
	}
	end := len(row)
	for end > 0 && row[end-1] == ' ' {
		end--
	}
	return string(row[:end])
}

// DrainConsole returns and clears the accumulated console log.
func (gpu *GPU) DrainConsole() string {
	gpu.mu.Lock()
	defer gpu.mu.Unlock()
	s := string(gpu.console)
	gpu.console = gpu.console[:0]
	return s
}

// PaletteEntry returns palette entry i as a 0x00RRGGBB word.
func (gpu *GPU) PaletteEntry(i int) uint32 {
	gpu.mu.Lock()
	defer gpu.mu.Unlock()
	return uint32(gpu.palRaw[i*4]) |
		uint32(gpu.palRaw[i*4+1])<<8 |
		uint32(gpu.palRaw[i*4+2])<<16
}

// Snapshot copies the render-relevant state for a video backend: mode, text
// grid, framebuffer and palette. The copies decouple rendering from guest
// writes.
func (gpu *GPU) Snapshot() (mode uint32, text []byte, fb []byte, pal [256]uint32) {
	gpu.mu.Lock()
	defer gpu.mu.Unlock()
	mode = gpu.mode
	text = append([]byte(nil), gpu.text[:]...)
	fb = append([]byte(nil), gpu.fb[:]...)
	for i := 0; i < 256; i++ {
		pal[i] = uint32(gpu.palRaw[i*4]) |
			uint32(gpu.palRaw[i*4+1])<<8 |
			uint32(gpu.palRaw[i*4+2])<<16
	}
	return mode, text, fb, pal
}

// TickVBlank is called by the video backend once per presented frame.
func (gpu *GPU) TickVBlank() {
	gpu.mu.Lock()
	gpu.vblank = true
	gpu.frameCount++
	gpu.mu.Unlock()
}

// ClearVBlank drops the vblank flag, typically after the guest has seen it.
func (gpu *GPU) ClearVBlank() {
	gpu.mu.Lock()
	gpu.vblank = false
	gpu.mu.Unlock()
}

// FrameCount returns the number of frames presented since reset.
func (gpu *GPU) FrameCount() uint64 {
	gpu.mu.Lock()
	defer gpu.mu.Unlock()
	return gpu.frameCount
}
