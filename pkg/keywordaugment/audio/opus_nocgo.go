//go:build !cgo

package audio

import "errors"

var ErrOpusUnavailable = errors.New("ogg/opus decoding unavailable")

// DecodeOggOpus needs libopusfile through cgo; without it callers fall back
// to ffmpeg.
func DecodeOggOpus(data []byte) (*SampleBuffer, error) {
	return nil, decodeErr("ogg/opus", ErrOpusUnavailable)
}
