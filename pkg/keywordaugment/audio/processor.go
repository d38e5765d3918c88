package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/himanishpuri/KeywordAugment/pkg/utils"
)

const defaultFFmpegTimeout = 30 * time.Second

// ConvertWAVConfig controls ffmpeg transcoding. Zero SampleRate or Channels
// keep the source's native values.
type ConvertWAVConfig struct {
	FFmpegPath string
	SampleRate int
	Channels   int
}

// ConvertToWAV transcodes any ffmpeg-readable file to 16-bit PCM WAV in
// outputDir and returns the new path.
func ConvertToWAV(
	ctx context.Context,
	inputPath string,
	outputDir string,
	cfg ConvertWAVConfig,
) (string, error) {

	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultFFmpegTimeout)
		defer cancel()
	}

	if err := utils.MakeDir(outputDir); err != nil {
		return "", err
	}

	baseName := filepath.Base(inputPath)
	outputPath := filepath.Join(outputDir, baseName+".wav")

	tmpPath := outputPath + ".tmp.wav"
	defer os.Remove(tmpPath)

	args := []string{"-y", "-v", "quiet", "-i", inputPath}
	if cfg.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(cfg.Channels))
	}
	if cfg.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(cfg.SampleRate))
	}
	args = append(args, "-c:a", "pcm_s16le", "-f", "wav", tmpPath)

	cmd := exec.CommandContext(ctx, cfg.FFmpegPath, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("ffmpeg failed: %v (%s)", err, out)
	}

	if err := utils.MoveFile(tmpPath, outputPath); err != nil {
		return "", err
	}

	return outputPath, nil
}
