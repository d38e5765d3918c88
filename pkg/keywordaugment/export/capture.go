package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	ka "github.com/himanishpuri/KeywordAugment/pkg/keywordaugment"
)

// ParseCaptureName splits "<label>_<take>.<ext>" into its label and take
// number. The label may itself contain underscores.
func ParseCaptureName(name string) (string, int, error) {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	idx := strings.LastIndex(base, "_")
	if idx <= 0 || idx == len(base)-1 {
		return "", 0, fmt.Errorf("capture name %q is not <label>_<take>", name)
	}
	take, err := strconv.Atoi(base[idx+1:])
	if err != nil || take < 1 {
		return "", 0, fmt.Errorf("capture name %q has invalid take %q", name, base[idx+1:])
	}
	return base[:idx], take, nil
}

// LoadCaptures reads every regular file in dir named <label>_<take>.<ext>.
// Files that do not match are returned in skipped.
func LoadCaptures(dir string) (recordings []ka.Recording, skipped []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read captures dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		label, take, perr := ParseCaptureName(name)
		if perr != nil {
			skipped = append(skipped, name)
			continue
		}
		data, rerr := os.ReadFile(filepath.Join(dir, name))
		if rerr != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", name, rerr)
		}
		recordings = append(recordings, ka.Recording{Label: label, Take: ka.OriginalTake(take), Audio: data})
	}
	sort.SliceStable(recordings, func(i, j int) bool {
		if recordings[i].Label != recordings[j].Label {
			return recordings[i].Label < recordings[j].Label
		}
		return recordings[i].Take.Base < recordings[j].Take.Base
	})
	return recordings, skipped, nil
}
