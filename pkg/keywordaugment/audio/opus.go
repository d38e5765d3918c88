//go:build cgo

package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/hraban/opus.v2"
)

// opusfile always decodes at 48 kHz.
const opusSampleRate = 48000

// 120 ms, the longest Opus frame
const opusMaxFrame = 5760

// ErrOpusUnavailable is returned by builds without cgo, where libopusfile
// cannot be linked.
var ErrOpusUnavailable = errors.New("ogg/opus decoding unavailable")

// DecodeOggOpus decodes an Ogg Opus stream, the container browsers produce
// for audio/ogg; codecs=opus recordings.
func DecodeOggOpus(data []byte) (*SampleBuffer, error) {
	channels := opusChannelCount(data)
	if channels < 1 {
		return nil, decodeErr("ogg/opus", errors.New("missing OpusHead identification header"))
	}

	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, decodeErr("ogg/opus", fmt.Errorf("failed to open stream: %w", err))
	}
	defer stream.Close()

	pcm := make([]float32, opusMaxFrame*channels)
	var interleaved []float32
	for {
		n, err := stream.ReadFloat32(pcm)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, decodeErr("ogg/opus", fmt.Errorf("failed to decode packet: %w", err))
		}
		interleaved = append(interleaved, pcm[:n*channels]...)
	}

	frames := len(interleaved) / channels
	out := NewSampleBuffer(opusSampleRate, channels, frames)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			out.Channels[c][i] = interleaved[i*channels+c]
		}
	}
	return out, nil
}
