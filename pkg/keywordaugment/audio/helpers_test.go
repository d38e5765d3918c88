package audio

import (
	"math"
)

// scriptedRandom replays a fixed list of Float64 values and never reorders.
type scriptedRandom struct {
	vals []float64
	i    int
}

func (s *scriptedRandom) Float64() float64 {
	v := s.vals[s.i%len(s.vals)]
	s.i++
	return v
}

func (s *scriptedRandom) Shuffle(n int, swap func(i, j int)) {}

func sineBuffer(sampleRate, channels, frames int, freq, amp float64) *SampleBuffer {
	b := NewSampleBuffer(sampleRate, channels, frames)
	for c := range b.Channels {
		for i := range b.Channels[c] {
			b.Channels[c][i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		}
	}
	return b
}

func constBuffer(sampleRate, channels, frames int, v float32) *SampleBuffer {
	b := NewSampleBuffer(sampleRate, channels, frames)
	for c := range b.Channels {
		for i := range b.Channels[c] {
			b.Channels[c][i] = v
		}
	}
	return b
}
