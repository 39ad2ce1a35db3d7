// Package beep plays short cues for hotkey actions.
package beep

import (
	"math"
	"sync/atomic"
)

var disabled atomic.Bool

func Disable() { disabled.Store(true) }

func Disabled() bool { return disabled.Load() }

const (
	sampleRate = 44100

	// Success: high pitch, short
	successFreq   = 1200
	successVolume = 0.5
	successDecay  = 60

	// Ready: medium pitch, slightly longer
	readyFreq   = 900
	readyVolume = 0.5
	readyDecay  = 40

	// Error: low pitch double-beep
	errorFreq   = 350
	errorVolume = 0.6
	errorDecay  = 30
)

// tick returns a decaying sine of the given length as mono samples.
func tick(freq, duration, volume, decay float64) []int16 {
	n := int(float64(sampleRate) * duration)
	out := make([]int16, n)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		envelope := math.Exp(-t * decay)
		out[i] = int16(math.Sin(2*math.Pi*freq*t) * 32767 * volume * envelope)
	}
	return out
}

func doubleBeep(freq, beepDur, gapDur, volume, decay float64) []int16 {
	b := tick(freq, beepDur, volume, decay)
	gap := make([]int16, int(float64(sampleRate)*gapDur))
	out := make([]int16, 0, len(b)*2+len(gap))
	out = append(out, b...)
	out = append(out, gap...)
	return append(out, b...)
}
