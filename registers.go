// registers.go - Memory-mapped I/O register address map for Aurora-32

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
registers.go - Master I/O Register Address Map

This file provides a centralized reference for all memory-mapped I/O regions
in Aurora-32. Individual device implementations define their behaviour in
separate files; the address constants live here so the whole map can be read
in one place.

MEMORY MAP OVERVIEW
===================

Address Range           Size    Device              Implementation
---------------------------------------------------------------------------
0x00000000-0x00FFFFFF   16MB    Main RAM (default)  machine_bus.go

0x10000000-0x10000018   28B     GPU registers       gpu.go
0x10001000-0x10001F9F   4000B   Text VRAM (80x25x2) gpu.go
0x10002000-0x100023FF   1KB     Palette (256xRGB)   gpu.go
0x10010000-0x1005AFFF   300KB   Framebuffer         gpu.go

0x20000000-0x20000018   28B     Storage registers   storage.go
0x20010000-0x2001FFFF   64KB    Storage DMA buffer  storage.go

0x30000000-0x30000008   12B     Keyboard            keyboard.go

0x40000000-0x4000000C   16B     Speaker (beeper)    speaker.go

The CPU reaches every one of these through the machine bus; devices are
registered as (base, length) windows and receive byte-granular accesses.
Word and halfword operations are assembled little-endian from byte calls,
so a store that straddles a window edge still lands byte-by-byte in the
right place.
*/

package main

// =============================================================================
// Main RAM
// =============================================================================

const (
	DEFAULT_RAM_SIZE = 0x01000000 // 16MB
	DEFAULT_LOAD     = 0x00001000 // default program load address
)

// =============================================================================
// GPU Region (0x10000000)
// =============================================================================

const (
	GPU_REGION_BASE = 0x10000000
	GPU_REGION_SIZE = 0x00060000

	GPU_MODE        = GPU_REGION_BASE + 0x00 // 0=text, 1=320x200, 2=640x480
	GPU_CURSOR_X    = GPU_REGION_BASE + 0x04 // text cursor column (0-79)
	GPU_CURSOR_Y    = GPU_REGION_BASE + 0x08 // text cursor row (0-24)
	GPU_CURSOR_CTRL = GPU_REGION_BASE + 0x0C // bit 0: cursor visible
	GPU_WIDTH       = GPU_REGION_BASE + 0x10 // read-only, pixels or columns
	GPU_HEIGHT      = GPU_REGION_BASE + 0x14 // read-only, pixels or rows
	GPU_STATUS      = GPU_REGION_BASE + 0x18 // bit 0: vblank

	GPU_TEXT_BASE = GPU_REGION_BASE + 0x1000 // 2 bytes/cell: char, attribute
	GPU_TEXT_SIZE = TEXT_COLS * TEXT_ROWS * 2

	GPU_PAL_BASE = GPU_REGION_BASE + 0x2000 // 256 entries, 0x00RRGGBB words
	GPU_PAL_SIZE = 256 * 4

	GPU_FB_BASE = GPU_REGION_BASE + 0x10000 // paletted, one byte per pixel
	GPU_FB_SIZE = 640 * 480
)

// Text mode geometry; the console discipline in syscall_rv32.go and the
// cursor registers above share this grid.
const (
	TEXT_COLS = 80
	TEXT_ROWS = 25
)

// GPU display modes (GPU_MODE values).
const (
	GPU_MODE_TEXT    = 0
	GPU_MODE_320x200 = 1
	GPU_MODE_640x480 = 2
)

// =============================================================================
// Storage Controller Region (0x20000000)
// =============================================================================

const (
	STOR_REGION_BASE = 0x20000000
	STOR_REGION_SIZE = 0x00020000

	STOR_DEVICE_SELECT = STOR_REGION_BASE + 0x00 // 0=HDD, 1=CDROM, 2=USB
	STOR_SECTOR_LO     = STOR_REGION_BASE + 0x04
	STOR_SECTOR_HI     = STOR_REGION_BASE + 0x08
	STOR_COUNT         = STOR_REGION_BASE + 0x0C // sectors per command
	STOR_DMA_ADDR      = STOR_REGION_BASE + 0x10 // byte offset into DMA buffer
	STOR_COMMAND       = STOR_REGION_BASE + 0x14 // write triggers the command
	STOR_STATUS        = STOR_REGION_BASE + 0x18

	STOR_DMA_BASE = STOR_REGION_BASE + 0x10000
	STOR_DMA_SIZE = 0x10000

	SECTOR_SIZE = 512
)

// Storage commands (written to STOR_COMMAND).
const (
	STOR_CMD_READ     = 1
	STOR_CMD_WRITE    = 2
	STOR_CMD_FLUSH    = 3
	STOR_CMD_GET_INFO = 4
)

// Storage status bits (read from STOR_STATUS).
const (
	STOR_STATUS_READY = 1 << 0
	STOR_STATUS_DRQ   = 1 << 1
	STOR_STATUS_ERROR = 1 << 2
)

// Storage device slots (STOR_DEVICE_SELECT values).
const (
	STOR_DEV_HDD   = 0
	STOR_DEV_CDROM = 1
	STOR_DEV_USB   = 2
	STOR_DEV_COUNT = 3
)

// =============================================================================
// Keyboard Region (0x30000000)
// =============================================================================

const (
	KBD_REGION_BASE = 0x30000000
	KBD_REGION_SIZE = 0x00000100

	KBD_STATUS   = KBD_REGION_BASE + 0x00 // bit 0: key available
	KBD_DATA     = KBD_REGION_BASE + 0x04 // read consumes one key
	KBD_MODIFIER = KBD_REGION_BASE + 0x08 // shift/ctrl/alt bitmask

	KBD_FIFO_DEPTH = 16
)

// Keyboard modifier bits (KBD_MODIFIER).
const (
	KBD_MOD_SHIFT = 1 << 0
	KBD_MOD_CTRL  = 1 << 1
	KBD_MOD_ALT   = 1 << 2
)

// =============================================================================
// Speaker Region (0x40000000)
// =============================================================================

const (
	SPK_REGION_BASE = 0x40000000
	SPK_REGION_SIZE = 0x00000100

	SPK_FREQ   = SPK_REGION_BASE + 0x00 // square wave frequency in Hz
	SPK_VOLUME = SPK_REGION_BASE + 0x04 // 0-255
	SPK_CTRL   = SPK_REGION_BASE + 0x08 // bit 0: gate
	SPK_STATUS = SPK_REGION_BASE + 0x0C // bit 0: playing
)

// =============================================================================
// Helper Functions
// =============================================================================

// GetIORegion returns a human-readable name for the I/O region containing
// the address, or "RAM" if it falls outside every device window.
func GetIORegion(addr uint32) string {
	switch {
	case addr >= GPU_REGION_BASE && addr < GPU_REGION_BASE+GPU_REGION_SIZE:
		return "GPU"
	case addr >= STOR_REGION_BASE && addr < STOR_REGION_BASE+STOR_REGION_SIZE:
		return "Storage"
	case addr >= KBD_REGION_BASE && addr < KBD_REGION_BASE+KBD_REGION_SIZE:
		return "Keyboard"
	case addr >= SPK_REGION_BASE && addr < SPK_REGION_BASE+SPK_REGION_SIZE:
		return "Speaker"
	default:
		return "RAM"
	}
}
