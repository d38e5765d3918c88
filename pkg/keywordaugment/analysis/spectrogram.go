// Package analysis inspects sample buffers: STFT spectrograms, level
// statistics and PNG spectrogram rendering.
package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

const (
	WindowSize = 1024
	HopSize    = 256
)

func Hamming(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := 0; i < n; i++ {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

func FFTReal(frame []float64) []complex128 {
	return fft.FFTReal(frame)
}

// MagnitudeSpectrum keeps the lower half of the spectrum.
func MagnitudeSpectrum(spectrum []complex128) []float64 {
	half := len(spectrum) / 2
	mag := make([]float64, half)
	for i := 0; i < half; i++ {
		mag[i] = cmplx.Abs(spectrum[i])
	}
	return mag
}

func STFT(samples []float64, windowSize, hopSize int, window []float64) ([][]float64, error) {
	if len(window) != windowSize {
		return nil, errors.New("window length must equal windowSize")
	}
	if hopSize <= 0 {
		return nil, errors.New("hop size must be positive")
	}
	if len(samples) < windowSize {
		return nil, errors.New("input shorter than window size")
	}

	frames := (len(samples)-windowSize)/hopSize + 1
	spectrogram := make([][]float64, 0, frames)
	frame := make([]float64, windowSize)
	for start := 0; start+windowSize <= len(samples); start += hopSize {
		for i := 0; i < windowSize; i++ {
			frame[i] = samples[start+i] * window[i]
		}
		spectrogram = append(spectrogram, MagnitudeSpectrum(FFTReal(frame)))
	}
	return spectrogram, nil
}

// ComputeSpectrogram runs a Hamming-windowed STFT. Zero window or hop sizes
// use WindowSize and HopSize.
func ComputeSpectrogram(samples []float64, sampleRate, windowSize, hopSize int) ([][]float64, error) {
	if len(samples) == 0 {
		return nil, errors.New("samples cannot be empty")
	}
	if sampleRate <= 0 {
		return nil, errors.New("sample rate must be positive")
	}

	ws := windowSize
	if ws == 0 {
		ws = WindowSize
	}
	hs := hopSize
	if hs == 0 {
		hs = HopSize
	}

	if len(samples) < ws {
		return nil, errors.New("audio too short for window size")
	}
	return STFT(samples, ws, hs, Hamming(ws))
}
