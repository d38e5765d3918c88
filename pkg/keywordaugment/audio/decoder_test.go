package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeOpusHead(channels byte) []byte {
	page := []byte("OggS")
	page = append(page, make([]byte, 24)...)
	page = append(page, []byte("OpusHead")...)
	page = append(page, 1, channels, 0x38, 0x01, 0x80, 0xbb, 0, 0, 0, 0, 0)
	return page
}

func TestDecoderDecodesWAV(t *testing.T) {
	data, err := EncodeWAV(sineBuffer(22050, 2, 2205, 440, 0.5))
	require.NoError(t, err)

	d := NewDecoder(DecoderConfig{DisableFFmpeg: true})
	buf, err := d.Decode(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 22050, buf.SampleRate)
	assert.Equal(t, 2, buf.NumChannels())
	assert.Equal(t, 2205, buf.Len())
}

func TestDecoderRejectsUnknownWithoutFFmpeg(t *testing.T) {
	d := NewDecoder(DecoderConfig{DisableFFmpeg: true})

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"garbage", []byte("definitely not audio")},
		{"ogg without opus", append([]byte("OggS"), make([]byte, 60)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Decode(context.Background(), tt.data)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDecode))
			var de *DecodeError
			assert.True(t, errors.As(err, &de))
		})
	}
}

func TestDecoderMissingFFmpeg(t *testing.T) {
	d := NewDecoder(DecoderConfig{FFmpegPath: "/nonexistent/ffmpeg", TempDir: t.TempDir()})

	_, err := d.Decode(context.Background(), []byte("ID3 mp3-ish bytes"))
	require.Error(t, err)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "ffmpeg", de.Format)
}

func TestOggOpusSniffing(t *testing.T) {
	head := fakeOpusHead(2)
	assert.True(t, IsOggOpus(head))
	assert.Equal(t, 2, opusChannelCount(head))
	assert.Equal(t, 1, opusChannelCount(fakeOpusHead(1)))

	assert.False(t, IsOggOpus([]byte("RIFF....WAVE")))
	assert.Equal(t, 0, opusChannelCount([]byte("OggS")))
}

func TestSniffExt(t *testing.T) {
	wav, err := EncodeWAV(constBuffer(8000, 1, 1, 0))
	require.NoError(t, err)

	assert.Equal(t, ".wav", sniffExt(wav))
	assert.Equal(t, ".ogg", sniffExt(fakeOpusHead(1)))
	assert.Equal(t, ".webm", sniffExt([]byte{0x1a, 0x45, 0xdf, 0xa3, 0x01}))
	assert.Equal(t, ".m4a", sniffExt([]byte("\x00\x00\x00\x20ftypM4A ")))
	assert.Equal(t, ".bin", sniffExt([]byte{0, 1}))
}
