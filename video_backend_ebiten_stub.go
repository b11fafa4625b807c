//go:build headless

package main

// Headless builds route the default backend to the frame counter so the
// rest of the machine wiring stays identical.
func NewEbitenOutput(gpu *GPU, kbd *Keyboard, onReset func()) (VideoOutput, error) {
	return NewHeadlessOutput(gpu), nil
}
