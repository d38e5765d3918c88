package analysis

import (
	"errors"
	"math"
)

// Stats describes the level and spectral centre of a clip.
type Stats struct {
	Frames       int
	DurationSec  float64
	Peak         float64
	RMS          float64
	PeakDBFS     float64
	RMSDBFS      float64
	ClippedRatio float64
	// DominantHz is the strongest frequency averaged over all STFT frames.
	DominantHz float64
}

func Measure(samples []float64, sampleRate int) (Stats, error) {
	if sampleRate <= 0 {
		return Stats{}, errors.New("sample rate must be positive")
	}
	st := Stats{
		Frames:      len(samples),
		DurationSec: float64(len(samples)) / float64(sampleRate),
	}
	if len(samples) == 0 {
		st.PeakDBFS, st.RMSDBFS = math.Inf(-1), math.Inf(-1)
		return st, nil
	}

	var sumSq float64
	clipped := 0
	for _, v := range samples {
		a := math.Abs(v)
		if a > st.Peak {
			st.Peak = a
		}
		if a >= 1 {
			clipped++
		}
		sumSq += v * v
	}
	st.RMS = math.Sqrt(sumSq / float64(len(samples)))
	st.PeakDBFS = toDBFS(st.Peak)
	st.RMSDBFS = toDBFS(st.RMS)
	st.ClippedRatio = float64(clipped) / float64(len(samples))

	ws := WindowSize
	for ws > len(samples) && ws > 64 {
		ws /= 2
	}
	if len(samples) >= ws {
		if hz, err := DominantFrequency(samples, sampleRate, ws); err == nil {
			st.DominantHz = hz
		}
	}
	return st, nil
}

// DominantFrequency returns the centre frequency of the STFT bin with the
// highest summed magnitude.
func DominantFrequency(samples []float64, sampleRate, windowSize int) (float64, error) {
	spec, err := ComputeSpectrogram(samples, sampleRate, windowSize, windowSize/2)
	if err != nil {
		return 0, err
	}
	bins := len(spec[0])
	energy := make([]float64, bins)
	for _, frame := range spec {
		for i, m := range frame {
			energy[i] += m
		}
	}
	best := 1
	for i := 1; i < bins; i++ {
		if energy[i] > energy[best] {
			best = i
		}
	}
	return float64(best) * float64(sampleRate) / float64(windowSize), nil
}

func toDBFS(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}
