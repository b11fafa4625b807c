//go:build !headless

// video_backend_ebiten.go - Ebiten video output for Aurora-32

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
video_backend_ebiten.go - Ebiten Video Output

The default display: one 640x480 window showing either the 80x25 text grid
(rendered with the 7x13 basic font, VGA attribute colours, blinking cursor)
or the paletted framebuffer modes scaled to fit. Keyboard input is captured
here and pushed into the machine's key FIFO: typed characters as-is,
special keys as VT-style escape sequences, and Ctrl+Shift+V pastes the host
clipboard. F10 performs a hard reset via the machine callback.
*/

package main

import (
	"fmt"
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.design/x/clipboard"
	"golang.org/x/image/font/basicfont"
)

const (
	EBITEN_WIN_W = 640
	EBITEN_WIN_H = 480

	GLYPH_W = 7
	GLYPH_H = 13
)

// EbitenOutput renders the GPU in an ebiten window and feeds host input
// into the keyboard FIFO.
type EbitenOutput struct {
	gpu     *GPU
	kbd     *Keyboard
	onReset func()

	started atomic.Bool
	frames  atomic.Uint64
	done    chan struct{}
	doneOne sync.Once

	fbImage *ebiten.Image
	fbPix   []byte
	cell    *ebiten.Image // 1x1 white, scaled/tinted per cell background

	clipboardOnce sync.Once
	clipboardOK   bool
}

// NewEbitenOutput creates the windowed backend.
func NewEbitenOutput(gpu *GPU, kbd *Keyboard, onReset func()) (VideoOutput, error) {
	eo := &EbitenOutput{
		gpu:     gpu,
		kbd:     kbd,
		onReset: onReset,
		done:    make(chan struct{}),
	}
	eo.cell = ebiten.NewImage(1, 1)
	eo.cell.Fill(color.White)
	return eo, nil
}

// Start opens the window and runs the game loop on its own goroutine.
func (eo *EbitenOutput) Start() error {
	if !eo.started.CompareAndSwap(false, true) {
		return nil
	}
	ebiten.SetWindowSize(EBITEN_WIN_W, EBITEN_WIN_H)
	ebiten.SetWindowTitle("Aurora-32")
	go func() {
		defer eo.doneOne.Do(func() { close(eo.done) })
		if err := ebiten.RunGame(eo); err != nil {
			fmt.Printf("Warning: video loop ended: %v\n", err)
		}
	}()
	return nil
}

func (eo *EbitenOutput) Stop() error {
	eo.started.Store(false)
	return nil
}

func (eo *EbitenOutput) Close() error {
	return eo.Stop()
}

func (eo *EbitenOutput) IsStarted() bool {
	return eo.started.Load()
}

// Done is closed when the window is dismissed.
func (eo *EbitenOutput) Done() <-chan struct{} {
	return eo.done
}

func (eo *EbitenOutput) GetFrameCount() uint64 {
	return eo.frames.Load()
}

// Update handles one tick of host input.
func (eo *EbitenOutput) Update() error {
	if !eo.started.Load() {
		return ebiten.Termination
	}

	var mods byte
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		mods |= KBD_MOD_SHIFT
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		mods |= KBD_MOD_CTRL
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		mods |= KBD_MOD_ALT
	}
	eo.kbd.SetModifiers(mods)

	ctrl := mods&KBD_MOD_CTRL != 0
	shift := mods&KBD_MOD_SHIFT != 0

	if ctrl && shift && inpututil.IsKeyJustPressed(ebiten.KeyV) {
		eo.handleClipboardPaste()
		return nil
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyF10) && eo.onReset != nil {
		eo.onReset()
		return nil
	}

	for _, r := range ebiten.AppendInputChars(nil) {
		if r > 0 && r <= 0xFF {
			eo.kbd.Push(byte(r))
		}
	}
	for _, key := range inpututil.AppendJustPressedKeys(nil) {
		if seq, ok := translateSpecialKey(key); ok {
			for _, b := range seq {
				eo.kbd.Push(b)
			}
		}
	}
	return nil
}

func translateSpecialKey(key ebiten.Key) ([]byte, bool) {
	switch key {
	case ebiten.KeyEnter, ebiten.KeyNumpadEnter:
		return []byte{'\n'}, true
	case ebiten.KeyBackspace:
		return []byte{'\b'}, true
	case ebiten.KeyTab:
		return []byte{'\t'}, true
	case ebiten.KeyEscape:
		return []byte{0x1B}, true
	case ebiten.KeyArrowUp:
		return []byte{0x1B, '[', 'A'}, true
	case ebiten.KeyArrowDown:
		return []byte{0x1B, '[', 'B'}, true
	case ebiten.KeyArrowRight:
		return []byte{0x1B, '[', 'C'}, true
	case ebiten.KeyArrowLeft:
		return []byte{0x1B, '[', 'D'}, true
	case ebiten.KeyHome:
		return []byte{0x1B, '[', 'H'}, true
	case ebiten.KeyEnd:
		return []byte{0x1B, '[', 'F'}, true
	case ebiten.KeyDelete:
		return []byte{0x1B, '[', '3', '~'}, true
	default:
		return nil, false
	}
}

func normalizePasteText(raw []byte) []byte {
	norm := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\r' {
			if i+1 < len(raw) && raw[i+1] == '\n' {
				i++
			}
			norm = append(norm, '\n')
			continue
		}
		norm = append(norm, raw[i])
	}
	return norm
}

func capPasteText(raw []byte, max int) []byte {
	if len(raw) <= max {
		return raw
	}
	return raw[:max]
}

func (eo *EbitenOutput) handleClipboardPaste() {
	eo.clipboardOnce.Do(func() {
		eo.clipboardOK = clipboard.Init() == nil
	})
	if !eo.clipboardOK {
		return
	}
	data := clipboard.Read(clipboard.FmtText)
	if len(data) == 0 {
		return
	}
	data = normalizePasteText(data)
	data = capPasteText(data, 4096)
	for _, b := range data {
		eo.kbd.Push(b)
	}
}

// Draw renders one frame from a GPU snapshot.
func (eo *EbitenOutput) Draw(screen *ebiten.Image) {
	mode, textGrid, fb, pal := eo.gpu.Snapshot()
	screen.Fill(color.Black)

	switch mode {
	case GPU_MODE_TEXT:
		eo.drawTextMode(screen, textGrid, pal)
	case GPU_MODE_320x200:
		eo.drawFramebuffer(screen, fb, pal, 320, 200)
	case GPU_MODE_640x480:
		eo.drawFramebuffer(screen, fb, pal, 640, 480)
	}

	eo.gpu.TickVBlank()
	eo.frames.Add(1)
}

func rgbOf(entry uint32) color.RGBA {
	return color.RGBA{
		R: byte(entry >> 16),
		G: byte(entry >> 8),
		B: byte(entry),
		A: 0xFF,
	}
}

func (eo *EbitenOutput) drawTextMode(screen *ebiten.Image, grid []byte, pal [256]uint32) {
	// Center the 560x325 glyph grid in the window.
	ox := (EBITEN_WIN_W - TEXT_COLS*GLYPH_W) / 2
	oy := (EBITEN_WIN_H - TEXT_ROWS*GLYPH_H) / 2
	face := basicfont.Face7x13

	for y := 0; y < TEXT_ROWS; y++ {
		for x := 0; x < TEXT_COLS; x++ {
			i := (y*TEXT_COLS + x) * 2
			ch, attr := grid[i], grid[i+1]
			fg := rgbOf(pal[attr&0x0F])
			bg := rgbOf(pal[attr>>4])

			if attr>>4 != 0 {
				op := &ebiten.DrawImageOptions{}
				op.GeoM.Scale(GLYPH_W, GLYPH_H)
				op.GeoM.Translate(float64(ox+x*GLYPH_W), float64(oy+y*GLYPH_H))
				op.ColorScale.ScaleWithColor(bg)
				screen.DrawImage(eo.cell, op)
			}
			if ch > 0x20 && ch < 0x7F {
				text.Draw(screen, string(rune(ch)), face,
					ox+x*GLYPH_W, oy+y*GLYPH_H+face.Ascent, fg)
			}
		}
	}

	// Block cursor, blinking at ~1Hz.
	cx, cy := eo.gpu.Cursor()
	if eo.gpu.CursorVisible() && (eo.frames.Load()/30)%2 == 0 {
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(GLYPH_W, 2)
		op.GeoM.Translate(float64(ox+int(cx)*GLYPH_W), float64(oy+int(cy+1)*GLYPH_H-2))
		op.ColorScale.ScaleWithColor(rgbOf(pal[7]))
		screen.DrawImage(eo.cell, op)
	}
}

func (eo *EbitenOutput) drawFramebuffer(screen *ebiten.Image, fb []byte, pal [256]uint32, w, h int) {
	if eo.fbImage == nil || eo.fbImage.Bounds().Dx() != w {
		eo.fbImage = ebiten.NewImage(w, h)
		eo.fbPix = make([]byte, w*h*4)
	}
	for i := 0; i < w*h; i++ {
		entry := pal[fb[i]]
		eo.fbPix[i*4] = byte(entry >> 16)
		eo.fbPix[i*4+1] = byte(entry >> 8)
		eo.fbPix[i*4+2] = byte(entry)
		eo.fbPix[i*4+3] = 0xFF
	}
	eo.fbImage.WritePixels(eo.fbPix)

	op := &ebiten.DrawImageOptions{}
	sx := float64(EBITEN_WIN_W) / float64(w)
	sy := float64(EBITEN_WIN_H) / float64(h)
	op.GeoM.Scale(sx, sy)
	screen.DrawImage(eo.fbImage, op)
}

// Layout fixes the logical resolution at the window size.
func (eo *EbitenOutput) Layout(_, _ int) (int, int) {
	return EBITEN_WIN_W, EBITEN_WIN_H
}
