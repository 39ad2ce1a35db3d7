//go:build linux

package beep

import (
	"sync"

	"github.com/jfreymuth/pulse"
	"github.com/jfreymuth/pulse/proto"
)

var (
	successSamples []int16
	readySamples   []int16
	errorSamples   []int16
	soundOnce      sync.Once
)

func initSound() {
	// 200ms tails give PulseAudio time to fill its buffer
	successSamples = stereo(tick(successFreq, 0.2, successVolume, successDecay))
	readySamples = stereo(tick(readyFreq, 0.2, readyVolume, readyDecay))
	errorSamples = stereo(doubleBeep(errorFreq, 0.08, 0.05, errorVolume, errorDecay))
}

// stereo interleaves mono samples into L/R pairs to match the sink format.
func stereo(mono []int16) []int16 {
	out := make([]int16, len(mono)*2)
	for i, s := range mono {
		out[i*2] = s
		out[i*2+1] = s
	}
	return out
}

func playSamples(samples []int16) {
	if len(samples) == 0 {
		return
	}
	c, err := pulse.NewClient()
	if err != nil {
		return
	}
	defer c.Close()

	pos := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if pos >= len(samples) {
			return 0, pulse.EndOfData
		}
		n := copy(buf, samples[pos:])
		pos += n
		return n, nil
	})
	stream, err := c.NewPlayback(reader,
		pulse.PlaybackStereo,
		pulse.PlaybackSampleRate(sampleRate),
		pulse.PlaybackLatency(0.1),
		pulse.PlaybackRawOption(func(p *proto.CreatePlaybackStream) {
			p.ChannelVolumes = proto.ChannelVolumes{uint32(proto.VolumeNorm), uint32(proto.VolumeNorm)}
		}),
	)
	if err != nil {
		return
	}
	stream.Start()
	stream.Drain()
	stream.Stop()
	stream.Close()
}

func play(samples *[]int16) {
	if Disabled() {
		return
	}
	soundOnce.Do(initSound)
	go playSamples(*samples)
}

func Init() {
	soundOnce.Do(initSound)
}

func PlaySuccess() { play(&successSamples) }

func PlayReady() { play(&readySamples) }

func PlayError() { play(&errorSamples) }
