package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/himanishpuri/KeywordAugment/pkg/utils"
)

// DecoderConfig configures the ffmpeg fallback used for containers that are
// neither PCM WAV nor Ogg Opus.
type DecoderConfig struct {
	FFmpegPath    string
	TempDir       string
	DisableFFmpeg bool
}

// Decoder turns captured audio bytes into a SampleBuffer at the source's
// native rate and channel count.
type Decoder struct {
	cfg DecoderConfig
}

func NewDecoder(cfg DecoderConfig) *Decoder {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	return &Decoder{cfg: cfg}
}

// Decode dispatches on the container signature. Every failure is a
// *DecodeError.
func (d *Decoder) Decode(ctx context.Context, data []byte) (*SampleBuffer, error) {
	if len(data) == 0 {
		return nil, decodeErr("", errors.New("empty input"))
	}

	var firstErr error
	switch {
	case IsWAV(data):
		buf, err := DecodeWAV(data)
		if err == nil {
			return buf, nil
		}
		if !errors.Is(err, ErrUnsupportedFormat) {
			return nil, err
		}
		firstErr = err
	case IsOggOpus(data):
		buf, err := DecodeOggOpus(data)
		if err == nil {
			return buf, nil
		}
		if !errors.Is(err, ErrOpusUnavailable) {
			return nil, err
		}
		firstErr = err
	}

	if d.cfg.DisableFFmpeg {
		if firstErr != nil {
			return nil, firstErr
		}
		return nil, decodeErr("", fmt.Errorf("unrecognized container: %w", ErrFFmpegDisabled))
	}
	return d.transcode(ctx, data)
}

// transcode runs ffmpeg inside a scratch directory that is removed on every
// return path.
func (d *Decoder) transcode(ctx context.Context, data []byte) (*SampleBuffer, error) {
	if _, err := exec.LookPath(d.cfg.FFmpegPath); err != nil {
		return nil, decodeErr("ffmpeg", fmt.Errorf("ffmpeg not found: %w", err))
	}

	dir, cleanup, err := utils.MakeTempDir(d.cfg.TempDir, "keyaug-decode-*")
	if err != nil {
		return nil, decodeErr("ffmpeg", err)
	}
	defer cleanup()

	inPath := filepath.Join(dir, "input"+sniffExt(data))
	if err := os.WriteFile(inPath, data, 0644); err != nil {
		return nil, decodeErr("ffmpeg", fmt.Errorf("failed to stage input: %w", err))
	}

	wavPath, err := ConvertToWAV(ctx, inPath, dir, ConvertWAVConfig{FFmpegPath: d.cfg.FFmpegPath})
	if err != nil {
		return nil, decodeErr("ffmpeg", err)
	}

	wavData, err := os.ReadFile(wavPath)
	if err != nil {
		return nil, decodeErr("ffmpeg", fmt.Errorf("failed to read transcoded file: %w", err))
	}
	return DecodeWAV(wavData)
}

// IsOggOpus reports whether data is an Ogg stream whose first packet is an
// Opus identification header.
func IsOggOpus(data []byte) bool {
	if len(data) < 4 || string(data[0:4]) != "OggS" {
		return false
	}
	return bytes.Contains(head(data, 512), []byte("OpusHead"))
}

// opusChannelCount reads the channel count from the OpusHead packet, or 0.
func opusChannelCount(data []byte) int {
	h := head(data, 512)
	idx := bytes.Index(h, []byte("OpusHead"))
	if idx < 0 || idx+10 > len(h) {
		return 0
	}
	return int(h[idx+9])
}

func head(data []byte, n int) []byte {
	if len(data) < n {
		return data
	}
	return data[:n]
}

func sniffExt(data []byte) string {
	switch {
	case IsWAV(data):
		return ".wav"
	case len(data) >= 4 && string(data[0:4]) == "OggS":
		return ".ogg"
	case len(data) >= 4 && bytes.Equal(data[0:4], []byte{0x1a, 0x45, 0xdf, 0xa3}):
		return ".webm"
	case len(data) >= 4 && string(data[0:4]) == "fLaC":
		return ".flac"
	case len(data) >= 3 && string(data[0:3]) == "ID3":
		return ".mp3"
	case len(data) >= 8 && string(data[4:8]) == "ftyp":
		return ".m4a"
	default:
		return ".bin"
	}
}
