package audio

import (
	"fmt"
)

// Playback-rate windows for pitch/speed distortion.
const (
	FastRateMin = 1.1
	FastRateMax = 1.3
	SlowRateMin = 0.7
	SlowRateMax = 0.9
)

// Distort plays rec back at rate: pitch and tempo scale together and the
// result holds ceil(n/rate) frames at the original sample rate.
func Distort(rec *SampleBuffer, rate float64, res Resampler) (*SampleBuffer, error) {
	if err := rec.Validate(); err != nil {
		return nil, renderErr("distort", err)
	}
	if rate <= 0 {
		return nil, renderErr("distort", fmt.Errorf("invalid playback rate %g", rate))
	}
	if res == nil {
		res = LinearResampler{}
	}

	sr := float64(rec.SampleRate)
	out := &SampleBuffer{SampleRate: rec.SampleRate, Channels: make([][]float32, len(rec.Channels))}
	for c, ch := range rec.Channels {
		converted, err := res.Resample(ch, sr*rate, sr)
		if err != nil {
			return nil, renderErr("distort", fmt.Errorf("channel %d: %w", c, err))
		}
		out.Channels[c] = converted
	}
	return out, nil
}

// Distorter picks a random playback rate per call: with equal probability
// from [FastRateMin, FastRateMax) or [SlowRateMin, SlowRateMax).
type Distorter struct {
	Rand      Random
	Resampler Resampler
}

func NewDistorter(r Random, res Resampler) *Distorter {
	if res == nil {
		res = LinearResampler{}
	}
	return &Distorter{Rand: r, Resampler: res}
}

func (d *Distorter) PickRate() float64 {
	if d.Rand.Float64() < 0.5 {
		return Uniform(d.Rand, FastRateMin, FastRateMax)
	}
	return Uniform(d.Rand, SlowRateMin, SlowRateMax)
}

// Apply distorts rec and returns the result with the rate used.
func (d *Distorter) Apply(rec *SampleBuffer) (*SampleBuffer, float64, error) {
	rate := d.PickRate()
	out, err := Distort(rec, rate, d.Resampler)
	if err != nil {
		return nil, rate, err
	}
	return out, rate, nil
}
