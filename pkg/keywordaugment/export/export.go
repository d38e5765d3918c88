// Package export names dataset recordings and writes them out as a zip
// archive or a directory tree.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	ka "github.com/himanishpuri/KeywordAugment/pkg/keywordaugment"
	"github.com/himanishpuri/KeywordAugment/pkg/utils"
)

// Entry is a recording with its file name inside the dataset.
type Entry struct {
	Name      string
	Recording ka.Recording
}

// Arrange groups recordings by label in first-appearance order, stable-sorts
// each group by base take number and names them <label>_<n>.wav with n
// counting from 1 within the label.
func Arrange(recordings []ka.Recording) []Entry {
	var order []string
	groups := make(map[string][]ka.Recording)
	for _, r := range recordings {
		if _, ok := groups[r.Label]; !ok {
			order = append(order, r.Label)
		}
		groups[r.Label] = append(groups[r.Label], r)
	}

	entries := make([]Entry, 0, len(recordings))
	for _, label := range order {
		group := groups[label]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Take.Base < group[j].Take.Base
		})
		for i, r := range group {
			entries = append(entries, Entry{
				Name:      fmt.Sprintf("%s_%d.wav", SanitizeLabel(label), i+1),
				Recording: r,
			})
		}
	}
	return entries
}

// SanitizeLabel makes a label safe to use as a file name component.
func SanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
			return '-'
		}
		return r
	}, label)
}

// WriteZip streams entries into a zip archive. WAV data is stored without
// compression since PCM barely deflates.
func WriteZip(w io.Writer, entries []Entry) error {
	zw := zip.NewWriter(w)
	now := time.Now()
	for _, e := range entries {
		hdr := &zip.FileHeader{
			Name:     e.Name,
			Method:   zip.Store,
			Modified: now,
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", e.Name, err)
		}
		if _, err := fw.Write(e.Recording.Audio); err != nil {
			return fmt.Errorf("failed to write %s: %w", e.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

// WriteZipFile writes the archive to path atomically.
func WriteZipFile(path string, entries []Entry) error {
	if err := utils.MakeDir(filepath.Dir(path)); err != nil {
		return err
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmpPath, err)
	}
	defer os.Remove(tmpPath)

	if err := WriteZip(f, entries); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return utils.MoveFile(tmpPath, path)
}

// WriteDir writes each entry as a file under dir.
func WriteDir(dir string, entries []Entry) error {
	if err := utils.MakeDir(dir); err != nil {
		return err
	}
	for _, e := range entries {
		if err := utils.WriteFileAtomic(filepath.Join(dir, e.Name), e.Recording.Audio); err != nil {
			return err
		}
	}
	return nil
}
