//go:build !windows

package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// TerminalHost reads raw stdin and feeds bytes into the keyboard FIFO, and
// mirrors console output bytes to stdout. Only instantiated in main.go for
// interactive use — never in tests.
type TerminalHost struct {
	kbd          *Keyboard
	gpu          *GPU
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
	oldTermState *term.State
}

// NewTerminalHost creates a host adapter bridging stdin/stdout to the
// keyboard FIFO and the console log.
func NewTerminalHost(kbd *Keyboard, gpu *GPU) *TerminalHost {
	return &TerminalHost{
		kbd:    kbd,
		gpu:    gpu,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start sets stdin to raw non-blocking mode and begins reading in a
// goroutine; console bytes stream straight to stdout. Call Stop() to
// restore stdin.
func (h *TerminalHost) Start() {
	h.fd = int(os.Stdin.Fd())

	// Raw mode disables OS-level echo and line buffering; echo is the
	// getline discipline's job.
	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terminal_host: failed to set raw mode: %v\n", err)
		close(h.done)
		return
	}
	h.oldTermState = oldState

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "terminal_host: failed to set nonblocking stdin: %v\n", err)
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
		close(h.done)
		return
	}
	h.nonblockSet = true

	h.gpu.SetCharOutputCallback(func(b byte) {
		if b == '\n' {
			// Raw mode needs the CR put back for column 0.
			os.Stdout.Write([]byte{'\r', '\n'})
			return
		}
		os.Stdout.Write([]byte{b})
	})

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := syscall.Read(h.fd, buf)
			if n > 0 {
				b := buf[0]
				// Raw mode sends CR for Enter; the getline discipline
				// expects LF.
				if b == '\r' {
					b = '\n'
				}
				// Modern terminals send 0x7F (DEL) for Backspace.
				if b == 0x7F {
					b = 0x08
				}
				h.kbd.Push(b)
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
}

// Stop terminates the stdin reader and restores the terminal state.
func (h *TerminalHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	h.gpu.SetCharOutputCallback(nil)
	if h.nonblockSet {
		_ = syscall.SetNonblock(h.fd, false)
		h.nonblockSet = false
	}
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
}
