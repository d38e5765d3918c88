package analysis

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"
	"path/filepath"

	"github.com/eligwz/spectrogram"
)

// RenderOptions sizes the spectrogram image.
type RenderOptions struct {
	Width  int
	Height int
	// Log10 switches to a logarithmic magnitude scale.
	Log10 bool
}

func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Width: 2048, Height: 512}
}

// SavePNG draws a spectrogram of samples (Hamming window, FFT, magnitude)
// and writes it to path as a PNG.
func SavePNG(path string, samples []float64, sampleRate int, opts RenderOptions) error {
	if len(samples) == 0 {
		return errors.New("samples cannot be empty")
	}
	if sampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultRenderOptions()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	img := spectrogram.NewImage128(image.Rect(0, 0, opts.Width, opts.Height))
	black := spectrogram.ParseColor("000000")
	draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

	spectrogram.Drawfft(
		img,
		samples,
		uint32(sampleRate),
		uint32(opts.Height),
		false, // Hamming window
		false, // FFT rather than DFT
		true,  // magnitude
		opts.Log10,
	)

	if err := spectrogram.SavePng(img, path); err != nil {
		return fmt.Errorf("failed to save spectrogram: %w", err)
	}
	return nil
}
