// Package catalog loads the background effects overlaid onto recordings.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/audio"
)

// DefaultAssetNames are the fixed effect files every catalog looks for.
var DefaultAssetNames = []string{
	"effect1.wav",
	"effect2.wav",
	"effect3.wav",
	"effect4.wav",
	"effect5.wav",
}

var (
	ErrAssetLoad = errors.New("background effect failed to load")
	// ErrEmpty means no effect could be loaded; a duplication run stops early.
	ErrEmpty = errors.New("no background effects loaded")
)

type AssetLoadError struct {
	Name string
	Err  error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("load effect %s: %v", e.Name, e.Err)
}

func (e *AssetLoadError) Unwrap() []error {
	return []error{ErrAssetLoad, e.Err}
}

// Effect is a decoded background asset. Its buffer is shared read-only by
// every overlay in a run.
type Effect struct {
	Name   string
	Buffer *audio.SampleBuffer
}

// Catalog is the set of effects that loaded, in asset order, plus the
// failures of those that did not.
type Catalog struct {
	Effects []Effect
	Failed  []error
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Effects)
}

func (c *Catalog) Names() []string {
	names := make([]string, 0, c.Len())
	for _, e := range c.Effects {
		names = append(names, e.Name)
	}
	return names
}

type Decoder interface {
	Decode(ctx context.Context, data []byte) (*audio.SampleBuffer, error)
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// Source produces a catalog for one duplication run. Load returns ErrEmpty
// (alongside the partial catalog) when nothing could be decoded.
type Source interface {
	Load(ctx context.Context) (*Catalog, error)
}

// Asset is raw effect bytes with a display name.
type Asset struct {
	Name string
	Data []byte
}

// DirSource reads effect files from a filesystem.
type DirSource struct {
	FS          fs.FS
	Names       []string
	Decoder     Decoder
	Log         Logger
	Concurrency int
}

func NewDirSource(dir string, dec Decoder, log Logger) *DirSource {
	return &DirSource{
		FS:      os.DirFS(dir),
		Names:   DefaultAssetNames,
		Decoder: dec,
		Log:     log,
	}
}

func (s *DirSource) Load(ctx context.Context) (*Catalog, error) {
	names := s.Names
	if len(names) == 0 {
		names = DefaultAssetNames
	}
	return load(ctx, s.Decoder, s.Log, s.Concurrency, names, func(name string) ([]byte, error) {
		return fs.ReadFile(s.FS, name)
	})
}

// BytesSource serves effects already held in memory.
type BytesSource struct {
	Assets      []Asset
	Decoder     Decoder
	Log         Logger
	Concurrency int
}

func (s *BytesSource) Load(ctx context.Context) (*Catalog, error) {
	names := make([]string, len(s.Assets))
	byName := make(map[string][]byte, len(s.Assets))
	for i, a := range s.Assets {
		name := a.Name
		if name == "" {
			name = fmt.Sprintf("effect%d", i+1)
		}
		names[i] = name
		byName[name] = a.Data
	}
	return load(ctx, s.Decoder, s.Log, s.Concurrency, names, func(name string) ([]byte, error) {
		data, ok := byName[name]
		if !ok {
			return nil, fs.ErrNotExist
		}
		return data, nil
	})
}

// load decodes every asset concurrently. A failing asset is recorded and
// skipped; it never aborts the others.
func load(
	ctx context.Context,
	dec Decoder,
	log Logger,
	concurrency int,
	names []string,
	read func(name string) ([]byte, error),
) (*Catalog, error) {
	if dec == nil {
		return nil, errors.New("catalog: nil decoder")
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	start := time.Now()
	effects := make([]*Effect, len(names))
	failures := make([]error, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				failures[i] = &AssetLoadError{Name: name, Err: err}
				return nil
			}
			data, err := read(name)
			if err != nil {
				failures[i] = &AssetLoadError{Name: name, Err: err}
				return nil
			}
			buf, err := dec.Decode(gctx, data)
			if err != nil {
				failures[i] = &AssetLoadError{Name: name, Err: err}
				return nil
			}
			effects[i] = &Effect{Name: path.Base(name), Buffer: buf}
			return nil
		})
	}
	_ = g.Wait()

	cat := &Catalog{}
	for i := range names {
		if effects[i] != nil {
			cat.Effects = append(cat.Effects, *effects[i])
			continue
		}
		cat.Failed = append(cat.Failed, failures[i])
		if log != nil {
			log.Warnf("Skipping background effect: %v", failures[i])
		}
	}

	if log != nil {
		log.Infof("Loaded %d/%d background effects in %s", len(cat.Effects), len(names), time.Since(start).Round(time.Millisecond))
	}
	if len(cat.Effects) == 0 {
		return cat, ErrEmpty
	}
	return cat, nil
}
