// speaker.go - Beeper device for Aurora-32

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
speaker.go - Beeper Device

A one-voice square-wave beeper: frequency, volume and a gate bit. The guest
programs SPK_FREQ and SPK_VOLUME, then opens the gate through SPK_CTRL;
console BEL bytes pulse the same voice through Beep(). Sample generation is
pulled by the audio backend's reader goroutine, so the device just owns a
phase accumulator and the latched registers.
*/

package main

import "sync"

const (
	SPEAKER_SAMPLE_RATE = 48000
	BELL_FREQ           = 880
	BELL_SAMPLES        = SPEAKER_SAMPLE_RATE / 10 // 100ms bell pulse
)

// Speaker is the beeper peripheral. The mutex guards against the audio
// pull goroutine reading registers mid-write.
type Speaker struct {
	mu sync.Mutex

	freq   uint32
	volume uint32
	gate   bool

	phase float64

	// Remaining samples of a host-triggered bell pulse; overrides the gate
	// while nonzero.
	bellLeft int
}

// NewSpeaker creates a silent speaker.
func NewSpeaker() *Speaker {
	return &Speaker{volume: 128}
}

// Beep pulses the bell tone, used for console BEL bytes.
func (spk *Speaker) Beep() {
	spk.mu.Lock()
	spk.bellLeft = BELL_SAMPLES
	spk.mu.Unlock()
}

// Reset silences the voice and restores default volume.
func (spk *Speaker) Reset() {
	spk.mu.Lock()
	spk.freq = 0
	spk.volume = 128
	spk.gate = false
	spk.phase = 0
	spk.bellLeft = 0
	spk.mu.Unlock()
}

// ReadByte serves bus reads of the speaker registers.
func (spk *Speaker) ReadByte(addr uint32) byte {
	spk.mu.Lock()
	defer spk.mu.Unlock()

	reg := addr &^ 3
	off := addr & 3
	switch reg {
	case SPK_FREQ:
		return regByteOf(spk.freq, off)
	case SPK_VOLUME:
		return regByteOf(spk.volume, off)
	case SPK_CTRL:
		var v uint32
		if spk.gate {
			v = 1
		}
		return regByteOf(v, off)
	case SPK_STATUS:
		var v uint32
		if spk.gate || spk.bellLeft > 0 {
			v = 1
		}
		return regByteOf(v, off)
	}
	return 0
}

// WriteByte serves bus writes of the speaker registers.
func (spk *Speaker) WriteByte(addr uint32, value byte) {
	spk.mu.Lock()
	defer spk.mu.Unlock()

	reg := addr &^ 3
	off := addr & 3
	switch reg {
	case SPK_FREQ:
		spk.freq = setRegByte(spk.freq, off, value)
	case SPK_VOLUME:
		spk.volume = setRegByte(spk.volume, off, value) & 0xFF
	case SPK_CTRL:
		if off == 0 {
			spk.gate = value&1 != 0
		}
	}
}

// GenerateSamples fills buf with mono float32 samples. Called by the audio
// backend's pull path.
func (spk *Speaker) GenerateSamples(buf []float32) {
	spk.mu.Lock()
	defer spk.mu.Unlock()

	for i := range buf {
		freq := spk.freq
		if spk.bellLeft > 0 {
			freq = BELL_FREQ
			spk.bellLeft--
		} else if !spk.gate {
			buf[i] = 0
			continue
		}
		if freq == 0 || freq > SPEAKER_SAMPLE_RATE/2 {
			buf[i] = 0
			continue
		}

		amp := float32(spk.volume) / 255.0 * 0.25
		if spk.phase < 0.5 {
			buf[i] = amp
		} else {
			buf[i] = -amp
		}
		spk.phase += float64(freq) / SPEAKER_SAMPLE_RATE
		if spk.phase >= 1.0 {
			spk.phase -= 1.0
		}
	}
}
