package main

import (
	"sync/atomic"
	"time"
)

// HeadlessOutput satisfies VideoOutput without a display: it ticks the
// GPU's vblank at roughly 60Hz so guests that poll GPU_STATUS still make
// progress in tests and CI.
type HeadlessOutput struct {
	gpu     *GPU
	started atomic.Bool
	frames  atomic.Uint64
	stop    chan struct{}
	done    chan struct{}
}

// NewHeadlessOutput creates a headless backend over the given GPU.
func NewHeadlessOutput(gpu *GPU) *HeadlessOutput {
	return &HeadlessOutput{
		gpu:  gpu,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (ho *HeadlessOutput) Start() error {
	if !ho.started.CompareAndSwap(false, true) {
		return nil
	}
	go func() {
		ticker := time.NewTicker(time.Second / 60)
		defer ticker.Stop()
		for {
			select {
			case <-ho.stop:
				return
			case <-ticker.C:
				ho.gpu.TickVBlank()
				ho.frames.Add(1)
			}
		}
	}()
	return nil
}

func (ho *HeadlessOutput) Stop() error {
	if ho.started.CompareAndSwap(true, false) {
		close(ho.stop)
	}
	return nil
}

func (ho *HeadlessOutput) Close() error {
	return ho.Stop()
}

func (ho *HeadlessOutput) IsStarted() bool {
	return ho.started.Load()
}

// Done never closes; a headless display cannot be dismissed by the user.
func (ho *HeadlessOutput) Done() <-chan struct{} {
	return ho.done
}

func (ho *HeadlessOutput) GetFrameCount() uint64 {
	return ho.frames.Load()
}
