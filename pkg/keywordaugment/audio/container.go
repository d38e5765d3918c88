package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var errNoAudioStream = errors.New("no audio stream")

// ContainerInfo is the container-level view of a capture file. It
// complements the decoded SampleBuffer with what the samples cannot carry.
type ContainerInfo struct {
	Container  string
	Codec      string
	Encoder    string
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
	Tags       map[string]string
}

// ContainerReader reads ContainerInfo with ffprobe.
type ContainerReader struct {
	// Path is the ffprobe binary, "ffprobe" from PATH when empty.
	Path string
	// Timeout bounds a read when ctx has no deadline. Zero means 5s.
	Timeout time.Duration
}

const showEntries = "format=format_name,duration:format_tags" +
	":stream=codec_type,codec_name,sample_rate,channels,bits_per_sample,bits_per_raw_sample"

func (r ContainerReader) Read(ctx context.Context, path string) (*ContainerInfo, error) {
	bin := r.Path
	if bin == "" {
		bin = "ffprobe"
	}
	if _, ok := ctx.Deadline(); !ok {
		timeout := r.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	name := filepath.Base(path)
	out, err := exec.CommandContext(ctx, bin, "-v", "error", "-of", "json", "-show_entries", showEntries, path).Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ffprobe %s: %w", name, ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("ffprobe %s: %w: %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("ffprobe %s: %w", name, err)
	}

	info, err := parseContainerInfo(out)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", name, err)
	}
	return info, nil
}

type ffprobeReport struct {
	Format struct {
		Name     string            `json:"format_name"`
		Duration string            `json:"duration"`
		Tags     map[string]string `json:"tags"`
	} `json:"format"`
	Streams []struct {
		Type       string `json:"codec_type"`
		Codec      string `json:"codec_name"`
		SampleRate string `json:"sample_rate"`
		Channels   int    `json:"channels"`
		Bits       int    `json:"bits_per_sample"`
		RawBits    string `json:"bits_per_raw_sample"`
	} `json:"streams"`
}

func parseContainerInfo(out []byte) (*ContainerInfo, error) {
	var rep ffprobeReport
	if err := json.Unmarshal(out, &rep); err != nil {
		return nil, fmt.Errorf("invalid ffprobe output: %w", err)
	}

	for _, s := range rep.Streams {
		if s.Type != "audio" {
			continue
		}
		info := &ContainerInfo{
			Container: rep.Format.Name,
			Codec:     s.Codec,
			Channels:  s.Channels,
			BitDepth:  s.Bits,
		}
		info.SampleRate, _ = strconv.Atoi(s.SampleRate)
		// compressed codecs only report the raw depth
		if info.BitDepth == 0 {
			info.BitDepth, _ = strconv.Atoi(s.RawBits)
		}
		if sec, err := strconv.ParseFloat(rep.Format.Duration, 64); err == nil {
			info.Duration = time.Duration(sec * float64(time.Second))
		}
		if len(rep.Format.Tags) > 0 {
			// vorbis comments arrive upper-case
			info.Tags = make(map[string]string, len(rep.Format.Tags))
			for k, v := range rep.Format.Tags {
				info.Tags[strings.ToLower(k)] = v
			}
			info.Encoder = info.Tags["encoder"]
		}
		return info, nil
	}
	return nil, errNoAudioStream
}

// Discrepancies lists where the container disagrees with the decoded
// buffer, e.g. Opus captures decode at 48 kHz whatever rate they declare.
// Durations within tolerance count as equal.
func (c *ContainerInfo) Discrepancies(buf *SampleBuffer, tolerance time.Duration) []string {
	var out []string
	if c.SampleRate > 0 && c.SampleRate != buf.SampleRate {
		out = append(out, fmt.Sprintf("sample rate: container %d Hz, decoded %d Hz", c.SampleRate, buf.SampleRate))
	}
	if c.Channels > 0 && c.Channels != buf.NumChannels() {
		out = append(out, fmt.Sprintf("channels: container %d, decoded %d", c.Channels, buf.NumChannels()))
	}
	if c.Duration > 0 {
		decoded := buf.Duration()
		if time.Duration(math.Abs(float64(c.Duration-decoded))) > tolerance {
			out = append(out, fmt.Sprintf("duration: container %s, decoded %s", c.Duration, decoded))
		}
	}
	return out
}
