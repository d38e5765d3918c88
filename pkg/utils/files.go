package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// MakeDir creates a directory with all parent directories
func MakeDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// DeleteDir removes a directory and all its contents
func DeleteDir(path string) error {
	return os.RemoveAll(path)
}

// MoveFile moves or renames a file
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move file from %s to %s: %w", src, dst, err)
	}
	return nil
}

// MakeTempDir creates a scratch directory under base (or the OS default when
// base is empty). The returned cleanup removes it and everything inside.
func MakeTempDir(base, pattern string) (string, func(), error) {
	if base != "" {
		if err := MakeDir(base); err != nil {
			return "", func() {}, err
		}
	}
	dir, err := os.MkdirTemp(base, pattern)
	if err != nil {
		return "", func() {}, fmt.Errorf("failed to create temp dir: %w", err)
	}
	return dir, func() { _ = DeleteDir(dir) }, nil
}

// WriteFileAtomic writes data next to path and renames it into place, so a
// reader never observes a half-written file.
func WriteFileAtomic(path string, data []byte) error {
	if err := MakeDir(filepath.Dir(path)); err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmpPath, err)
	}
	if err := MoveFile(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
