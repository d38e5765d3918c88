package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM  = 1
	pcmBitDepth   = 16
	wavHeaderSize = 44
)

// EncodeWAV renders buf as a canonical 16-bit PCM RIFF/WAVE file with a
// 44-byte header. Only mono and stereo are written as-is; for wider layouts
// channel 0 is encoded as mono.
func EncodeWAV(buf *SampleBuffer) ([]byte, error) {
	if err := buf.Validate(); err != nil {
		return nil, renderErr("encode", err)
	}

	channels := buf.Channels
	if len(channels) > 2 {
		channels = channels[:1]
	}
	numCh := len(channels)
	frames := buf.Len()

	data := make([]int, frames*numCh)
	for i := 0; i < frames; i++ {
		for c, ch := range channels {
			data[i*numCh+c] = QuantizeSample(ch[i])
		}
	}

	ws := &memWriteSeeker{buf: make([]byte, 0, wavHeaderSize+len(data)*2)}
	enc := wav.NewEncoder(ws, buf.SampleRate, pcmBitDepth, numCh, wavFormatPCM)
	ib := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: numCh, SampleRate: buf.SampleRate},
		Data:           data,
		SourceBitDepth: pcmBitDepth,
	}
	if err := enc.Write(ib); err != nil {
		return nil, renderErr("encode", fmt.Errorf("failed to write PCM data: %w", err))
	}
	if err := enc.Close(); err != nil {
		return nil, renderErr("encode", fmt.Errorf("failed to finalize WAV header: %w", err))
	}
	return ws.Bytes(), nil
}

// QuantizeSample clamps v to [-1, 1] and scales it to a signed 16-bit value,
// using 32768 for negative samples and 32767 otherwise. The result is
// truncated toward zero.
func QuantizeSample(v float32) int {
	s := float64(v)
	if math.IsNaN(s) {
		return 0
	}
	s = math.Max(-1, math.Min(1, s))
	if s < 0 {
		return int(s * 32768)
	}
	return int(s * 32767)
}

// DequantizeSample is the inverse of QuantizeSample for 16-bit data: the
// returned float always quantizes back to v.
func DequantizeSample(v int) float32 {
	scale, away := 32767.0, float32(2)
	if v < 0 {
		scale, away = 32768, -2
	}
	out := float32(float64(v) / scale)
	// float32 rounding may land just inside the level; step outward until
	// truncation recovers it
	for i := 0; i < 8 && int(float64(out)*scale) != v; i++ {
		out = math.Nextafter32(out, away)
	}
	return out
}

// DecodeWAV parses an integer PCM RIFF/WAVE file. Files with other sample
// formats return an error wrapping ErrUnsupportedFormat.
func DecodeWAV(data []byte) (*SampleBuffer, error) {
	d := wav.NewDecoder(bytes.NewReader(data))
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return nil, decodeErr("wav", fmt.Errorf("invalid RIFF/WAVE data: %w", err))
		}
		return nil, decodeErr("wav", fmt.Errorf("invalid RIFF/WAVE data: %w", ErrUnsupportedFormat))
	}
	if d.WavAudioFormat != wavFormatPCM {
		return nil, decodeErr("wav", fmt.Errorf("format tag %d: %w", d.WavAudioFormat, ErrUnsupportedFormat))
	}

	numCh := int(d.NumChans)
	bitDepth := int(d.BitDepth)
	switch bitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, decodeErr("wav", fmt.Errorf("%d-bit samples: %w", bitDepth, ErrUnsupportedFormat))
	}

	ib, err := d.FullPCMBuffer()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, decodeErr("wav", fmt.Errorf("failed to read PCM data: %w", err))
	}

	var samples []int
	if ib != nil {
		samples = ib.Data
	}
	declared := int(d.PCMLen()) / (bitDepth / 8)
	if len(samples) < declared-declared%numCh {
		return nil, decodeErr("wav", fmt.Errorf("got %d of %d samples: %w", len(samples), declared, ErrTruncated))
	}

	frames := len(samples) / numCh
	out := NewSampleBuffer(int(d.SampleRate), numCh, frames)
	for i := 0; i < frames; i++ {
		for c := 0; c < numCh; c++ {
			out.Channels[c][i] = normalizeSample(samples[i*numCh+c], bitDepth)
		}
	}
	return out, nil
}

func normalizeSample(v, bitDepth int) float32 {
	switch bitDepth {
	case 16:
		return DequantizeSample(v)
	case 8:
		// 8-bit WAV is unsigned
		return float32(float64(v-128) / 128)
	default:
		return float32(float64(v) / float64(int64(1)<<(bitDepth-1)))
	}
}

// IsWAV reports whether data starts with a RIFF/WAVE signature.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// memWriteSeeker is an in-memory io.WriteSeeker for the WAV encoder, which
// seeks back to patch chunk sizes on Close.
type memWriteSeeker struct {
	buf []byte
	pos int
}

func (m *memWriteSeeker) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.buf) {
		if end > cap(m.buf) {
			grown := make([]byte, end, 2*end)
			copy(grown, m.buf)
			m.buf = grown
		} else {
			m.buf = m.buf[:end]
		}
	}
	copy(m.buf[m.pos:], p)
	m.pos = end
	return len(p), nil
}

func (m *memWriteSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(m.pos) + offset
	case io.SeekEnd:
		next = int64(len(m.buf)) + offset
	default:
		return 0, fmt.Errorf("invalid whence %d", whence)
	}
	if next < 0 {
		return 0, fmt.Errorf("negative seek position %d", next)
	}
	m.pos = int(next)
	return next, nil
}

func (m *memWriteSeeker) Bytes() []byte {
	return m.buf
}
