package catalog

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/audio"
)

func wavBytes(t *testing.T, frames int) []byte {
	t.Helper()
	buf := audio.NewSampleBuffer(16000, 1, frames)
	for i := range buf.Channels[0] {
		buf.Channels[0][i] = 0.25
	}
	data, err := audio.EncodeWAV(buf)
	require.NoError(t, err)
	return data
}

func testDecoder() Decoder {
	return audio.NewDecoder(audio.DecoderConfig{DisableFFmpeg: true})
}

func TestDirSourceToleratesBrokenAssets(t *testing.T) {
	fsys := fstest.MapFS{
		"effect1.wav": {Data: wavBytes(t, 100)},
		"effect2.wav": {Data: []byte("corrupt")},
		"effect3.wav": {Data: wavBytes(t, 200)},
		// effect4.wav missing
		"effect5.wav": {Data: wavBytes(t, 300)},
	}
	src := &DirSource{FS: fsys, Decoder: testDecoder()}

	cat, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, cat.Len())
	assert.Equal(t, []string{"effect1.wav", "effect3.wav", "effect5.wav"}, cat.Names())
	assert.Equal(t, 300, cat.Effects[2].Buffer.Len())

	require.Len(t, cat.Failed, 2)
	for _, err := range cat.Failed {
		assert.True(t, errors.Is(err, ErrAssetLoad))
	}
	var ae *AssetLoadError
	require.True(t, errors.As(cat.Failed[0], &ae))
	assert.Equal(t, "effect2.wav", ae.Name)
	assert.True(t, errors.Is(cat.Failed[0], audio.ErrDecode))
}

func TestDirSourceEmpty(t *testing.T) {
	src := &DirSource{FS: fstest.MapFS{}, Decoder: testDecoder()}

	cat, err := src.Load(context.Background())
	assert.ErrorIs(t, err, ErrEmpty)
	assert.Equal(t, 0, cat.Len())
	assert.Len(t, cat.Failed, len(DefaultAssetNames))
}

func TestBytesSource(t *testing.T) {
	src := &BytesSource{
		Assets: []Asset{
			{Data: wavBytes(t, 10)},
			{Name: "rain", Data: wavBytes(t, 20)},
		},
		Decoder:     testDecoder(),
		Concurrency: 1,
	}

	cat, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"effect1", "rain"}, cat.Names())
}

func TestLoadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &BytesSource{Assets: []Asset{{Data: wavBytes(t, 10)}}, Decoder: testDecoder()}
	_, err := src.Load(ctx)
	assert.ErrorIs(t, err, ErrEmpty)
}
