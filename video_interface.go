// video_interface.go - Video backend abstraction for Aurora-32

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
video_interface.go - Video Backend Abstraction

The GPU device is pure state; backends turn that state into pixels on the
host. Two implementations exist behind the VideoOutput interface: the
ebiten window (default build) and a frame counter for headless builds and
CI. Backends pull their data through GPU.Snapshot, so they never hold the
GPU lock while rendering.
*/

package main

import "fmt"

// VideoError provides error context for video operations.
type VideoError struct {
	Operation string
	Details   string
	Err       error
}

func (e *VideoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("video %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("video %s failed: %s", e.Operation, e.Details)
}

// VideoOutput is the minimal contract a backend must implement.
type VideoOutput interface {
	Start() error
	Stop() error
	Close() error
	IsStarted() bool

	// Done is closed when the backend's window goes away; headless
	// backends never close it.
	Done() <-chan struct{}

	GetFrameCount() uint64
}

// Video backend selectors.
const (
	VIDEO_BACKEND_EBITEN = iota
	VIDEO_BACKEND_HEADLESS
)

// NewVideoOutput creates a backend rendering the given GPU and feeding
// keystrokes into the given keyboard. onReset, when non-nil, is invoked
// from the backend's reset key (F10).
func NewVideoOutput(backend int, gpu *GPU, kbd *Keyboard, onReset func()) (VideoOutput, error) {
	switch backend {
	case VIDEO_BACKEND_EBITEN:
		return NewEbitenOutput(gpu, kbd, onReset)
	case VIDEO_BACKEND_HEADLESS:
		return NewHeadlessOutput(gpu), nil
	}
	return nil, &VideoError{
		Operation: "backend creation",
		Details:   fmt.Sprintf("unknown backend type: %d", backend),
	}
}
