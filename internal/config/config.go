package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment"
	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/audio"
	"github.com/himanishpuri/KeywordAugment/pkg/logger"
)

const envPrefix = "KEYAUG_"

// Config is the CLI configuration. Values come from defaults, then the YAML
// file, then KEYAUG_* environment variables, then command-line flags.
type Config struct {
	EffectsDir  string `yaml:"effects_dir"`
	TempDir     string `yaml:"temp_dir"`
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
	MetricsFile string `yaml:"metrics_file"`

	Augment AugmentConfig `yaml:"augment"`
	Logging LoggingConfig `yaml:"logging"`
}

// AugmentConfig tunes the duplication passes.
type AugmentConfig struct {
	SamplesPerEffect int     `yaml:"samples_per_effect"`
	GainMin          float64 `yaml:"gain_min"`
	GainMax          float64 `yaml:"gain_max"`
	// Seed fixes the random source; 0 seeds from the clock.
	Seed      uint64 `yaml:"seed"`
	Resampler string `yaml:"resampler"`
}

// LoggingConfig mirrors logger.Config for the file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	JSON       bool   `yaml:"json"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

func Default() *Config {
	return &Config{
		EffectsDir:  "effects",
		TempDir:     os.TempDir(),
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		Augment: AugmentConfig{
			SamplesPerEffect: 4,
			GainMin:          audio.DefaultMinGain,
			GainMax:          audio.DefaultMaxGain,
			Resampler:        "linear",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment apply. envFiles are read with godotenv before
// the environment is consulted; with none given ".env" is tried.
func Load(path string, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strVars := map[string]*string{
		"EFFECTS_DIR":  &c.EffectsDir,
		"TEMP_DIR":     &c.TempDir,
		"FFMPEG_PATH":  &c.FFmpegPath,
		"FFPROBE_PATH": &c.FFprobePath,
		"METRICS_FILE": &c.MetricsFile,
		"RESAMPLER":    &c.Augment.Resampler,
		"LOG_LEVEL":    &c.Logging.Level,
		"LOG_FILE":     &c.Logging.File,
	}
	for key, dst := range strVars {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "SAMPLES_PER_EFFECT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sSAMPLES_PER_EFFECT: %w", envPrefix, err)
		}
		c.Augment.SamplesPerEffect = n
	}
	if v, ok := os.LookupEnv(envPrefix + "SEED"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", envPrefix, err)
		}
		c.Augment.Seed = n
	}
	if v, ok := os.LookupEnv(envPrefix + "LOG_JSON"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sLOG_JSON: %w", envPrefix, err)
		}
		c.Logging.JSON = b
	}
	return nil
}

func (c *Config) Validate() error {
	if c.EffectsDir == "" {
		return fmt.Errorf("effects_dir cannot be empty")
	}
	if err := c.Augment.Validate(); err != nil {
		return fmt.Errorf("augment config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

func (a *AugmentConfig) Validate() error {
	if a.SamplesPerEffect < 1 {
		return fmt.Errorf("samples_per_effect must be at least 1, got %d", a.SamplesPerEffect)
	}
	if a.GainMin < 0 || a.GainMax <= a.GainMin {
		return fmt.Errorf("gain range [%g, %g) is invalid", a.GainMin, a.GainMax)
	}
	if _, err := audio.NewResampler(a.Resampler); err != nil {
		return err
	}
	return nil
}

func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "warning": true, "error": true,
	}
	if !validLevels[strings.ToLower(l.Level)] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}
	if l.MaxSizeMB < 0 || l.MaxBackups < 0 || l.MaxAgeDays < 0 {
		return fmt.Errorf("rotation limits cannot be negative")
	}
	return nil
}

// LoggerConfig converts the logging section for logger.Configure.
func (c *Config) LoggerConfig() logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = logger.ParseLevel(c.Logging.Level)
	lc.JSON = c.Logging.JSON
	lc.FilePath = c.Logging.File
	lc.MaxSizeMB = c.Logging.MaxSizeMB
	lc.MaxBackups = c.Logging.MaxBackups
	lc.MaxAgeDays = c.Logging.MaxAgeDays
	lc.Compress = c.Logging.Compress
	return lc
}

// ServiceOptions translates the configuration into augmentation service
// options.
func (c *Config) ServiceOptions() ([]keywordaugment.Option, error) {
	res, err := audio.NewResampler(c.Augment.Resampler)
	if err != nil {
		return nil, err
	}
	opts := []keywordaugment.Option{
		keywordaugment.WithEffectsDir(c.EffectsDir),
		keywordaugment.WithTempDir(c.TempDir),
		keywordaugment.WithFFmpegPath(c.FFmpegPath),
		keywordaugment.WithSamplesPerEffect(c.Augment.SamplesPerEffect),
		keywordaugment.WithGainRange(c.Augment.GainMin, c.Augment.GainMax),
		keywordaugment.WithResampler(res),
	}
	if c.Augment.Seed != 0 {
		opts = append(opts, keywordaugment.WithSeed(c.Augment.Seed))
	}
	return opts, nil
}
