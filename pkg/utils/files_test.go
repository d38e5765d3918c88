package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.wav")

	require.NoError(t, WriteFileAtomic(path, []byte("RIFF")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(data))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestMakeTempDirCleanup(t *testing.T) {
	base := t.TempDir()

	dir, cleanup, err := MakeTempDir(base, "decode-*")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x"), []byte{1}, 0644))

	cleanup()
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateRunID(t *testing.T) {
	a, b := GenerateRunID(), GenerateRunID()
	assert.Len(t, a, 8)
	assert.NotEqual(t, a, b)
	assert.Len(t, GenerateUUID(), 36)
}
