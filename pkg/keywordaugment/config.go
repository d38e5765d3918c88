package keywordaugment

import (
	"os"

	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/audio"
)

type Config struct {
	EffectsDir       string
	TempDir          string
	FFmpegPath       string
	DisableFFmpeg    bool
	SamplesPerEffect int
	MinGain          float64
	MaxGain          float64
	Logger           Logger
	Random           audio.Random
	Resampler        audio.Resampler
	Decoder          Decoder
	Effects          EffectSource
	Observer         Observer
}

type Option func(*Config)

// WithEffectsDir sets the directory holding effect1.wav .. effect5.wav.
func WithEffectsDir(dir string) Option {
	return func(c *Config) {
		c.EffectsDir = dir
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

func WithFFmpegPath(path string) Option {
	return func(c *Config) {
		c.FFmpegPath = path
	}
}

// WithoutFFmpeg restricts decoding to WAV and Ogg Opus.
func WithoutFFmpeg() Option {
	return func(c *Config) {
		c.DisableFFmpeg = true
	}
}

// WithSamplesPerEffect sets how many takes each effect is overlaid on per
// label in the overlay passes.
func WithSamplesPerEffect(n int) Option {
	return func(c *Config) {
		c.SamplesPerEffect = n
	}
}

// WithGainRange sets the effect gain window [lo, hi).
func WithGainRange(lo, hi float64) Option {
	return func(c *Config) {
		c.MinGain = lo
		c.MaxGain = hi
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithRandom(r audio.Random) Option {
	return func(c *Config) {
		c.Random = r
	}
}

// WithSeed makes a run reproducible.
func WithSeed(seed uint64) Option {
	return func(c *Config) {
		c.Random = audio.NewRandom(seed)
	}
}

func WithResampler(r audio.Resampler) Option {
	return func(c *Config) {
		c.Resampler = r
	}
}

func WithDecoder(d Decoder) Option {
	return func(c *Config) {
		c.Decoder = d
	}
}

func WithEffectSource(src EffectSource) Option {
	return func(c *Config) {
		c.Effects = src
	}
}

func WithObserver(o Observer) Option {
	return func(c *Config) {
		c.Observer = o
	}
}

func defaultConfig() *Config {
	return &Config{
		EffectsDir:       "effects",
		TempDir:          os.TempDir(),
		FFmpegPath:       "ffmpeg",
		SamplesPerEffect: 4,
		MinGain:          audio.DefaultMinGain,
		MaxGain:          audio.DefaultMaxGain,
	}
}
