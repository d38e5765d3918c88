package audio

import (
	"fmt"
	"time"
)

// SampleBuffer holds decoded audio as planar float samples. Values nominally
// lie in [-1, 1] but are not clamped until encoding.
type SampleBuffer struct {
	SampleRate int
	Channels   [][]float32
}

// NewSampleBuffer allocates a zeroed buffer of the given shape.
func NewSampleBuffer(sampleRate, channels, frames int) *SampleBuffer {
	b := &SampleBuffer{SampleRate: sampleRate, Channels: make([][]float32, channels)}
	for c := range b.Channels {
		b.Channels[c] = make([]float32, frames)
	}
	return b
}

func (b *SampleBuffer) NumChannels() int {
	return len(b.Channels)
}

// Len returns the number of frames (samples per channel).
func (b *SampleBuffer) Len() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

func (b *SampleBuffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(b.Len()) / float64(b.SampleRate) * float64(time.Second))
}

// Validate checks the buffer has a positive rate, at least one channel and
// channels of equal length.
func (b *SampleBuffer) Validate() error {
	if b == nil {
		return fmt.Errorf("nil sample buffer")
	}
	if b.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", b.SampleRate)
	}
	if len(b.Channels) == 0 {
		return fmt.Errorf("sample buffer has no channels")
	}
	n := len(b.Channels[0])
	for c, ch := range b.Channels {
		if len(ch) != n {
			return fmt.Errorf("channel %d has %d samples, expected %d", c, len(ch), n)
		}
	}
	return nil
}

func (b *SampleBuffer) Clone() *SampleBuffer {
	out := &SampleBuffer{SampleRate: b.SampleRate, Channels: make([][]float32, len(b.Channels))}
	for c, ch := range b.Channels {
		out.Channels[c] = append([]float32(nil), ch...)
	}
	return out
}

// Mono averages all channels into a single float64 slice, the shape the
// analysis package works on.
func (b *SampleBuffer) Mono() []float64 {
	n := b.Len()
	out := make([]float64, n)
	if len(b.Channels) == 0 {
		return out
	}
	for _, ch := range b.Channels {
		for i, v := range ch {
			out[i] += float64(v)
		}
	}
	scale := 1 / float64(len(b.Channels))
	for i := range out {
		out[i] *= scale
	}
	return out
}
