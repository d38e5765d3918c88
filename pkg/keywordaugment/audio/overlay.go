package audio

import (
	"fmt"
	"sync"
)

const (
	DefaultMinGain = 0.3
	DefaultMaxGain = 0.7
)

// Overlay mixes effect into rec at the given gain. The result keeps the
// recording's length, rate and channel count: the effect is truncated (or
// zero-filled when shorter), extra effect channels are dropped and missing
// ones contribute silence. No clipping is applied.
func Overlay(rec, effect *SampleBuffer, gain float64) (*SampleBuffer, error) {
	if err := rec.Validate(); err != nil {
		return nil, renderErr("overlay", fmt.Errorf("recording: %w", err))
	}
	if err := effect.Validate(); err != nil {
		return nil, renderErr("overlay", fmt.Errorf("effect: %w", err))
	}
	if rec.SampleRate != effect.SampleRate {
		return nil, renderErr("overlay", fmt.Errorf("sample rate mismatch: recording %d Hz, effect %d Hz", rec.SampleRate, effect.SampleRate))
	}

	out := rec.Clone()
	g := float32(gain)
	for c := range out.Channels {
		if c >= effect.NumChannels() {
			break
		}
		dst := out.Channels[c]
		src := effect.Channels[c]
		n := min(len(dst), len(src))
		for i := 0; i < n; i++ {
			dst[i] += g * src[i]
		}
	}
	return out, nil
}

// Overlayer draws a random effect gain per call and converts effects to the
// recording's sample rate when they differ. It holds no per-effect state.
type Overlayer struct {
	Rand      Random
	Resampler Resampler
	MinGain   float64
	MaxGain   float64
}

func NewOverlayer(r Random, res Resampler) *Overlayer {
	if res == nil {
		res = LinearResampler{}
	}
	return &Overlayer{
		Rand:      r,
		Resampler: res,
		MinGain:   DefaultMinGain,
		MaxGain:   DefaultMaxGain,
	}
}

// Apply overlays effect on rec and returns the mix with the gain used.
// Converted effects are kept in cache when it is non-nil.
func (o *Overlayer) Apply(rec, effect *SampleBuffer, cache *EffectCache) (*SampleBuffer, float64, error) {
	gain := Uniform(o.Rand, o.MinGain, o.MaxGain)
	if rec == nil || effect == nil {
		return nil, gain, renderErr("overlay", fmt.Errorf("nil buffer"))
	}

	var eff *SampleBuffer
	var err error
	if cache != nil {
		eff, err = cache.Conform(effect, rec.SampleRate, o.Resampler)
	} else {
		eff, err = ConformRate(effect, rec.SampleRate, o.Resampler)
	}
	if err != nil {
		return nil, gain, renderErr("overlay", err)
	}
	out, err := Overlay(rec, eff, gain)
	if err != nil {
		return nil, gain, err
	}
	return out, gain, nil
}

// ConformRate returns effect converted to rate. Effects already at rate are
// returned as-is.
func ConformRate(effect *SampleBuffer, rate int, res Resampler) (*SampleBuffer, error) {
	if effect.SampleRate == rate || rate <= 0 || effect.SampleRate <= 0 {
		return effect, nil
	}
	if res == nil {
		res = LinearResampler{}
	}

	out := &SampleBuffer{SampleRate: rate, Channels: make([][]float32, len(effect.Channels))}
	for c, ch := range effect.Channels {
		converted, err := res.Resample(ch, float64(effect.SampleRate), float64(rate))
		if err != nil {
			return nil, fmt.Errorf("convert effect %d Hz -> %d Hz: %w", effect.SampleRate, rate, err)
		}
		out.Channels[c] = converted
	}
	return out, nil
}

// EffectCache holds rate-converted effects for a single duplication run.
// Drop it with the run's catalog.
type EffectCache struct {
	mu        sync.Mutex
	conformed map[conformKey]*SampleBuffer
}

type conformKey struct {
	src  *SampleBuffer
	rate int
}

func NewEffectCache() *EffectCache {
	return &EffectCache{conformed: make(map[conformKey]*SampleBuffer)}
}

// Conform is ConformRate with each (effect, rate) pair converted once.
func (c *EffectCache) Conform(effect *SampleBuffer, rate int, res Resampler) (*SampleBuffer, error) {
	if effect.SampleRate == rate || rate <= 0 || effect.SampleRate <= 0 {
		return effect, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	key := conformKey{src: effect, rate: rate}
	if cached, ok := c.conformed[key]; ok {
		return cached, nil
	}
	out, err := ConformRate(effect, rate, res)
	if err != nil {
		return nil, err
	}
	c.conformed[key] = out
	return out, nil
}

func (c *EffectCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.conformed)
}
