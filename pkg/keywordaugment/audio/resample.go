package audio

import (
	"fmt"
	"math"
	"strings"

	resampler "github.com/tphakala/go-audio-resampler"
)

// Resampler converts one channel of samples between two rates. The output
// must hold exactly ceil(len(in) * toRate / fromRate) samples.
type Resampler interface {
	Resample(in []float32, fromRate, toRate float64) ([]float32, error)
}

// OutputLength is the sample count produced when converting n samples from
// fromRate to toRate.
func OutputLength(n int, fromRate, toRate float64) int {
	if n == 0 {
		return 0
	}
	// round before ceil so 44100/1.25 style ratios don't gain a sample from float error
	exact := float64(n) * toRate / fromRate
	return int(math.Ceil(math.Round(exact*1e9) / 1e9))
}

// LinearResampler interpolates between neighbouring samples, which is how a
// browser plays a buffer source at a non-unit playback rate.
type LinearResampler struct{}

func (LinearResampler) Resample(in []float32, fromRate, toRate float64) ([]float32, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid rates %g -> %g", fromRate, toRate)
	}
	n := OutputLength(len(in), fromRate, toRate)
	out := make([]float32, n)
	if len(in) == 0 {
		return out, nil
	}
	step := fromRate / toRate
	last := len(in) - 1
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= last {
			out[i] = in[last]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = in[idx]*(1-frac) + in[idx+1]*frac
	}
	return out, nil
}

// SoxrResampler uses the polyphase resampler from go-audio-resampler. Its
// output is trimmed or zero-padded to the exact target length.
type SoxrResampler struct {
	// Quality is one of quick, low, medium, high or veryhigh. Empty means high.
	Quality string
}

func NewSoxrResampler(quality string) SoxrResampler {
	return SoxrResampler{Quality: quality}
}

func (s SoxrResampler) Resample(in []float32, fromRate, toRate float64) ([]float32, error) {
	if fromRate <= 0 || toRate <= 0 {
		return nil, fmt.Errorf("invalid rates %g -> %g", fromRate, toRate)
	}
	n := OutputLength(len(in), fromRate, toRate)
	if len(in) == 0 {
		return []float32{}, nil
	}
	out, err := s.run(in, fromRate, toRate)
	if err != nil {
		return nil, fmt.Errorf("soxr resample %g -> %g: %w", fromRate, toRate, err)
	}
	return fitLength(out, n), nil
}

func fitLength(in []float32, n int) []float32 {
	if len(in) == n {
		return in
	}
	out := make([]float32, n)
	copy(out, in)
	return out
}

func (s SoxrResampler) run(in []float32, fromRate, toRate float64) ([]float32, error) {
	switch s.Quality {
	case "quick":
		return resampler.ResampleMonoFloat32(in, fromRate, toRate, resampler.QualityQuick)
	case "low":
		return resampler.ResampleMonoFloat32(in, fromRate, toRate, resampler.QualityLow)
	case "medium":
		return resampler.ResampleMonoFloat32(in, fromRate, toRate, resampler.QualityMedium)
	case "veryhigh":
		return resampler.ResampleMonoFloat32(in, fromRate, toRate, resampler.QualityVeryHigh)
	default:
		return resampler.ResampleMonoFloat32(in, fromRate, toRate, resampler.QualityHigh)
	}
}

// NewResampler returns the resampler registered under name: "linear" (the
// default) or "soxr", optionally suffixed with a quality such as "soxr-veryhigh".
func NewResampler(name string) (Resampler, error) {
	switch {
	case name == "" || name == "linear":
		return LinearResampler{}, nil
	case name == "soxr":
		return NewSoxrResampler(""), nil
	case strings.HasPrefix(name, "soxr-"):
		q := strings.TrimPrefix(name, "soxr-")
		switch q {
		case "quick", "low", "medium", "high", "veryhigh":
			return NewSoxrResampler(q), nil
		}
	}
	return nil, fmt.Errorf("unknown resampler %q", name)
}
