package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWAVHeader(t *testing.T) {
	const frames = 10
	buf := sineBuffer(44100, 2, frames, 440, 0.5)

	data, err := EncodeWAV(buf)
	require.NoError(t, err)
	require.Len(t, data, 44+frames*2*2)

	le := binary.LittleEndian
	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, uint32(36+frames*4), le.Uint32(data[4:8]))
	assert.Equal(t, "WAVE", string(data[8:12]))
	assert.Equal(t, "fmt ", string(data[12:16]))
	assert.Equal(t, uint32(16), le.Uint32(data[16:20]))
	assert.Equal(t, uint16(1), le.Uint16(data[20:22]), "format tag")
	assert.Equal(t, uint16(2), le.Uint16(data[22:24]), "channels")
	assert.Equal(t, uint32(44100), le.Uint32(data[24:28]), "sample rate")
	assert.Equal(t, uint32(44100*4), le.Uint32(data[28:32]), "byte rate")
	assert.Equal(t, uint16(4), le.Uint16(data[32:34]), "block align")
	assert.Equal(t, uint16(16), le.Uint16(data[34:36]), "bits per sample")
	assert.Equal(t, "data", string(data[36:40]))
	assert.Equal(t, uint32(frames*4), le.Uint32(data[40:44]))
}

func TestEncodeWAVInterleaving(t *testing.T) {
	buf := &SampleBuffer{
		SampleRate: 8000,
		Channels: [][]float32{
			{1, -1, 0},
			{0.5, -0.5, 2},
		},
	}

	data, err := EncodeWAV(buf)
	require.NoError(t, err)

	got := make([]int16, 6)
	for i := range got {
		got[i] = int16(binary.LittleEndian.Uint16(data[44+i*2:]))
	}
	assert.Equal(t, []int16{32767, 16383, -32768, -16384, 0, 32767}, got)
}

func TestQuantizeSample(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want int
	}{
		{"full scale positive", 1, 32767},
		{"full scale negative", -1, -32768},
		{"clamp high", 2.5, 32767},
		{"clamp low", -3, -32768},
		{"half positive truncates", 0.5, 16383},
		{"half negative", -0.5, -16384},
		{"zero", 0, 0},
		{"tiny positive truncates to zero", 1e-6, 0},
		{"just below a positive level truncates", float32(100.998 / 32767), 100},
		{"just above a negative level truncates", float32(-200.997 / 32768), -200},
		{"just below full scale", float32(32766.9 / 32767), 32766},
		{"nan", float32(math.NaN()), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := QuantizeSample(tt.in); got != tt.want {
				t.Errorf("QuantizeSample(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestWAVRoundTrip(t *testing.T) {
	src := sineBuffer(16000, 2, 1600, 300, 0.9)
	src.Channels[1][0] = -1
	src.Channels[1][1] = 1

	data, err := EncodeWAV(src)
	require.NoError(t, err)

	got, err := DecodeWAV(data)
	require.NoError(t, err)
	require.Equal(t, src.SampleRate, got.SampleRate)
	require.Equal(t, src.NumChannels(), got.NumChannels())
	require.Equal(t, src.Len(), got.Len())

	const tolerance = 1.0/32767 + 1e-6
	for c := range src.Channels {
		for i := range src.Channels[c] {
			diff := math.Abs(float64(src.Channels[c][i] - got.Channels[c][i]))
			if diff > tolerance {
				t.Fatalf("channel %d sample %d: |%v - %v| = %v exceeds one quantization step",
					c, i, src.Channels[c][i], got.Channels[c][i], diff)
			}
		}
	}
	assert.Equal(t, float32(-1), got.Channels[1][0])
	assert.Equal(t, float32(1), got.Channels[1][1])
}

func TestWAVRoundTripEmpty(t *testing.T) {
	data, err := EncodeWAV(NewSampleBuffer(16000, 1, 0))
	require.NoError(t, err)
	require.Len(t, data, 44)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(data[40:44]))

	got, err := DecodeWAV(data)
	require.NoError(t, err)
	assert.Equal(t, 16000, got.SampleRate)
	assert.Equal(t, 1, got.NumChannels())
	assert.Zero(t, got.Len())
}

func TestEncodeWAVWideLayoutKeepsFirstChannel(t *testing.T) {
	buf := NewSampleBuffer(8000, 3, 4)
	for i := range buf.Channels[0] {
		buf.Channels[0][i] = 0.25
		buf.Channels[1][i] = -0.75
		buf.Channels[2][i] = 0.9
	}

	data, err := EncodeWAV(buf)
	require.NoError(t, err)
	assert.Len(t, data, 44+4*2)
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(data[22:24]))

	got, err := DecodeWAV(data)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, got.Channels[0][0], 1.0/32767)
}

func TestEncodeWAVInvalidBuffer(t *testing.T) {
	tests := []struct {
		name string
		buf  *SampleBuffer
	}{
		{"no channels", &SampleBuffer{SampleRate: 8000}},
		{"zero rate", NewSampleBuffer(0, 1, 10)},
		{"ragged", &SampleBuffer{SampleRate: 8000, Channels: [][]float32{{0, 0}, {0}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeWAV(tt.buf)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrRender))
			var re *RenderError
			assert.True(t, errors.As(err, &re))
		})
	}
}

func TestDecodeWAVInvalid(t *testing.T) {
	_, err := DecodeWAV([]byte("INVALID HEADER DATA"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))

	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "wav", de.Format)
}

func TestDecodeWAVTruncated(t *testing.T) {
	data, err := EncodeWAV(sineBuffer(8000, 1, 800, 200, 0.5))
	require.NoError(t, err)

	_, err = DecodeWAV(data[:len(data)-400])
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))
}

func TestMemWriteSeeker(t *testing.T) {
	ws := &memWriteSeeker{}
	_, err := ws.Write([]byte("abcdef"))
	require.NoError(t, err)

	pos, err := ws.Seek(2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos)
	_, err = ws.Write([]byte("XY"))
	require.NoError(t, err)

	_, err = ws.Seek(0, 2)
	require.NoError(t, err)
	_, err = ws.Write([]byte("!"))
	require.NoError(t, err)

	assert.Equal(t, "abXYef!", string(ws.Bytes()))

	_, err = ws.Seek(-1, 0)
	assert.Error(t, err)
}

func TestQuantizeInvertsDequantize(t *testing.T) {
	for v := -32768; v <= 32767; v++ {
		f := DequantizeSample(v)
		if got := QuantizeSample(f); got != v {
			t.Fatalf("level %d re-quantized to %d", v, got)
		}
		want := float64(v) / 32767
		if v < 0 {
			want = float64(v) / 32768
		}
		if math.Abs(float64(f)-want) > 1e-6 {
			t.Fatalf("level %d dequantized to %v, want about %v", v, f, want)
		}
	}
}
