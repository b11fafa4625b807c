// storage.go - Storage controller and block devices for Aurora-32

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
storage.go - Storage Controller

Three device slots (HDD, CD-ROM, USB), 512-byte sectors, and a 64KiB DMA
buffer inside the controller window. The guest programs a transfer by
latching DEVICE_SELECT, SECTOR_LO/HI, COUNT and DMA_ADDR, then writes a
command to STOR_COMMAND; the command executes synchronously during that bus
write, so by the time the store instruction retires STATUS and the DMA
buffer are final.

Error policy follows the hardware convention: a WRITE to the read-only
CD-ROM, any command against an absent slot, a sector range beyond the
image, or a transfer overrunning the DMA buffer sets the ERROR status bit
and moves no data. Nothing here raises into the guest; STATUS is the whole
story.

Block devices are in-memory images, optionally loaded from a host file;
FLUSH writes a file-backed image back out. The exit path flushes explicitly
via FlushAll.
*/

package main

import (
	"fmt"
	"os"
	"sync"
)

// BlockDevice is one storage slot's media: a sector-addressable image.
type BlockDevice struct {
	name     string
	data     []byte
	readOnly bool
	path     string // backing file; empty for purely in-memory images
	dirty    bool
}

// NewBlockDevice creates an in-memory device of size sectors.
func NewBlockDevice(name string, sectors int, readOnly bool) *BlockDevice {
	return &BlockDevice{
		name:     name,
		data:     make([]byte, sectors*SECTOR_SIZE),
		readOnly: readOnly,
	}
}

// LoadBlockDevice creates a device backed by an image file. The image is
// padded up to a whole sector.
func LoadBlockDevice(name, path string, readOnly bool) (*BlockDevice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load %s image: %w", name, err)
	}
	if rem := len(data) % SECTOR_SIZE; rem != 0 {
		data = append(data, make([]byte, SECTOR_SIZE-rem)...)
	}
	return &BlockDevice{name: name, data: data, readOnly: readOnly, path: path}, nil
}

// SectorCount returns the device capacity in sectors.
func (dev *BlockDevice) SectorCount() uint64 {
	return uint64(len(dev.data) / SECTOR_SIZE)
}

// ReadOnly reports whether the media rejects writes.
func (dev *BlockDevice) ReadOnly() bool { return dev.readOnly }

// ReadSector returns a copy of one sector.
func (dev *BlockDevice) ReadSector(sector uint64) ([]byte, error) {
	if sector >= dev.SectorCount() {
		return nil, fmt.Errorf("%s: sector %d beyond capacity %d", dev.name, sector, dev.SectorCount())
	}
	out := make([]byte, SECTOR_SIZE)
	copy(out, dev.data[sector*SECTOR_SIZE:])
	return out, nil
}

// WriteSector stores one sector. buf must be exactly SECTOR_SIZE bytes.
func (dev *BlockDevice) WriteSector(sector uint64, buf []byte) error {
	if dev.readOnly {
		return fmt.Errorf("%s: write to read-only media", dev.name)
	}
	if sector >= dev.SectorCount() {
		return fmt.Errorf("%s: sector %d beyond capacity %d", dev.name, sector, dev.SectorCount())
	}
	if len(buf) != SECTOR_SIZE {
		return fmt.Errorf("%s: short sector write (%d bytes)", dev.name, len(buf))
	}
	copy(dev.data[sector*SECTOR_SIZE:], buf)
	dev.dirty = true
	return nil
}

// Flush writes a file-backed image back to its host file. In-memory images
// flush trivially.
func (dev *BlockDevice) Flush() error {
	if dev.path == "" || !dev.dirty {
		return nil
	}
	if err := os.WriteFile(dev.path, dev.data, 0644); err != nil {
		return fmt.Errorf("flush %s: %w", dev.name, err)
	}
	dev.dirty = false
	return nil
}

// StorageController is the MMIO front end over the three device slots.
type StorageController struct {
	mu sync.Mutex

	devices [STOR_DEV_COUNT]*BlockDevice

	deviceSelect uint32
	sectorLo     uint32
	sectorHi     uint32
	count        uint32
	dmaAddr      uint32
	status       uint32

	dma [STOR_DMA_SIZE]byte
}

// NewStorageController creates a controller with every slot empty.
func NewStorageController() *StorageController {
	return &StorageController{status: STOR_STATUS_READY}
}

// Attach inserts media into a slot. A nil device empties the slot.
func (sc *StorageController) Attach(slot int, dev *BlockDevice) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if slot >= 0 && slot < STOR_DEV_COUNT {
		sc.devices[slot] = dev
	}
}

// Device returns the media in a slot, or nil when the slot is empty or out
// of range. The syscall layer addresses the HDD slot through this.
func (sc *StorageController) Device(slot int) *BlockDevice {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if slot < 0 || slot >= STOR_DEV_COUNT {
		return nil
	}
	return sc.devices[slot]
}

// FlushAll flushes every file-backed image. Called on machine shutdown.
func (sc *StorageController) FlushAll() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	for _, dev := range sc.devices {
		if dev == nil {
			continue
		}
		if err := dev.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears the latched registers and the DMA buffer. Attached media
// survive a reset.
func (sc *StorageController) Reset() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.deviceSelect = 0
	sc.sectorLo = 0
	sc.sectorHi = 0
	sc.count = 0
	sc.dmaAddr = 0
	sc.status = STOR_STATUS_READY
	for i := range sc.dma {
		sc.dma[i] = 0
	}
}

// ReadByte serves bus reads of the controller registers and DMA buffer.
func (sc *StorageController) ReadByte(addr uint32) byte {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if addr >= STOR_DMA_BASE && addr < STOR_DMA_BASE+STOR_DMA_SIZE {
		return sc.dma[addr-STOR_DMA_BASE]
	}

	reg := addr &^ 3
	off := addr & 3
	switch reg {
	case STOR_DEVICE_SELECT:
		return regByteOf(sc.deviceSelect, off)
	case STOR_SECTOR_LO:
		return regByteOf(sc.sectorLo, off)
	case STOR_SECTOR_HI:
		return regByteOf(sc.sectorHi, off)
	case STOR_COUNT:
		return regByteOf(sc.count, off)
	case STOR_DMA_ADDR:
		return regByteOf(sc.dmaAddr, off)
	case STOR_COMMAND:
		return 0 // write-only
	case STOR_STATUS:
		return regByteOf(sc.status, off)
	}
	return 0
}

// WriteByte serves bus writes. A write to STOR_COMMAND byte 0 executes the
// command synchronously; the command code fits in one byte, so the latched
// setup registers are already final when it fires.
func (sc *StorageController) WriteByte(addr uint32, value byte) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if addr >= STOR_DMA_BASE && addr < STOR_DMA_BASE+STOR_DMA_SIZE {
		sc.dma[addr-STOR_DMA_BASE] = value
		return
	}

	reg := addr &^ 3
	off := addr & 3
	switch reg {
	case STOR_DEVICE_SELECT:
		sc.deviceSelect = setRegByte(sc.deviceSelect, off, value)
	case STOR_SECTOR_LO:
		sc.sectorLo = setRegByte(sc.sectorLo, off, value)
	case STOR_SECTOR_HI:
		sc.sectorHi = setRegByte(sc.sectorHi, off, value)
	case STOR_COUNT:
		sc.count = setRegByte(sc.count, off, value)
	case STOR_DMA_ADDR:
		sc.dmaAddr = setRegByte(sc.dmaAddr, off, value)
	case STOR_COMMAND:
		if off == 0 {
			sc.execCommandLocked(uint32(value))
		}
	}
}

func (sc *StorageController) execCommandLocked(cmd uint32) {
	fail := func(reason string) {
		sc.status = STOR_STATUS_READY | STOR_STATUS_ERROR
		fmt.Printf("Warning: storage command %d failed: %s\n", cmd, reason)
	}

	if sc.deviceSelect >= STOR_DEV_COUNT {
		fail(fmt.Sprintf("invalid device %d", sc.deviceSelect))
		return
	}
	dev := sc.devices[sc.deviceSelect]
	if dev == nil {
		fail(fmt.Sprintf("no media in slot %d", sc.deviceSelect))
		return
	}

	sector := uint64(sc.sectorHi)<<32 | uint64(sc.sectorLo)

	switch cmd {
	case STOR_CMD_READ:
		bytes := uint64(sc.count) * SECTOR_SIZE
		if uint64(sc.dmaAddr)+bytes > STOR_DMA_SIZE {
			fail("transfer overruns DMA buffer")
			return
		}
		if sector+uint64(sc.count) > dev.SectorCount() {
			fail("sector range beyond media")
			return
		}
		for i := uint64(0); i < uint64(sc.count); i++ {
			buf, err := dev.ReadSector(sector + i)
			if err != nil {
				fail(err.Error())
				return
			}
			copy(sc.dma[uint64(sc.dmaAddr)+i*SECTOR_SIZE:], buf)
		}
		sc.status = STOR_STATUS_READY | STOR_STATUS_DRQ

	case STOR_CMD_WRITE:
		bytes := uint64(sc.count) * SECTOR_SIZE
		if uint64(sc.dmaAddr)+bytes > STOR_DMA_SIZE {
			fail("transfer overruns DMA buffer")
			return
		}
		for i := uint64(0); i < uint64(sc.count); i++ {
			off := uint64(sc.dmaAddr) + i*SECTOR_SIZE
			if err := dev.WriteSector(sector+i, sc.dma[off:off+SECTOR_SIZE]); err != nil {
				fail(err.Error())
				return
			}
		}
		sc.status = STOR_STATUS_READY

	case STOR_CMD_FLUSH:
		if err := dev.Flush(); err != nil {
			fail(err.Error())
			return
		}
		sc.status = STOR_STATUS_READY

	case STOR_CMD_GET_INFO:
		// 16-byte info block at DMA_ADDR: sector count, sector size, flags.
		if uint64(sc.dmaAddr)+16 > STOR_DMA_SIZE {
			fail("info block overruns DMA buffer")
			return
		}
		var flags uint32 = 1 // present
		if dev.ReadOnly() {
			flags |= 2
		}
		putWord := func(off uint32, v uint32) {
			sc.dma[sc.dmaAddr+off] = byte(v)
			sc.dma[sc.dmaAddr+off+1] = byte(v >> 8)
			sc.dma[sc.dmaAddr+off+2] = byte(v >> 16)
			sc.dma[sc.dmaAddr+off+3] = byte(v >> 24)
		}
		putWord(0, uint32(dev.SectorCount()))
		putWord(4, SECTOR_SIZE)
		putWord(8, flags)
		putWord(12, 0)
		sc.status = STOR_STATUS_READY | STOR_STATUS_DRQ

	default:
		fail("unknown command")
	}
}
