//go:build !headless

// audio_backend_oto.go - OTO v3 audio output for the Aurora-32 beeper

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

package main

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// OtoPlayer drives the host audio device from the speaker's sample
// generator. oto pulls samples through Read on its own goroutine, so the
// speaker pointer is atomic and the hot path takes no lock.
type OtoPlayer struct {
	ctx       *oto.Context
	player    *oto.Player
	speaker   atomic.Pointer[Speaker]
	sampleBuf []float32
	started   bool
	mutex     sync.Mutex // setup/control only
}

// NewOtoPlayer opens the host audio context at the given sample rate.
func NewOtoPlayer(sampleRate int) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	return &OtoPlayer{ctx: ctx}, nil
}

// SetupPlayer binds the beeper as the sample source.
func (op *OtoPlayer) SetupPlayer(spk *Speaker) {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	op.speaker.Store(spk)
	op.player = op.ctx.NewPlayer(op)
	op.sampleBuf = make([]float32, 4096)
}

// Read is oto's pull path: fill p with little-endian float32 samples.
func (op *OtoPlayer) Read(p []byte) (n int, err error) {
	spk := op.speaker.Load()
	if spk == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	numSamples := len(p) / 4
	if len(op.sampleBuf) < numSamples {
		op.sampleBuf = make([]float32, numSamples)
	}
	samples := op.sampleBuf[:numSamples]

	spk.GenerateSamples(samples)

	copy(p, (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[:len(p)])
	return len(p), nil
}

// Start begins playback.
func (op *OtoPlayer) Start() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if !op.started && op.player != nil {
		op.player.Play()
		op.started = true
	}
}

// Stop halts playback and releases the player.
func (op *OtoPlayer) Stop() {
	op.mutex.Lock()
	defer op.mutex.Unlock()

	if op.started && op.player != nil {
		op.player.Close()
		op.started = false
	}
}

// Close stops playback; the oto context itself cannot be closed.
func (op *OtoPlayer) Close() {
	op.Stop()
}

// IsStarted reports whether playback is running.
func (op *OtoPlayer) IsStarted() bool {
	op.mutex.Lock()
	defer op.mutex.Unlock()
	return op.started
}
