package keywordaugment

import (
	"errors"
	"fmt"

	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/audio"
	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/catalog"
)

var (
	ErrDecode       = audio.ErrDecode
	ErrRender       = audio.ErrRender
	ErrAssetLoad    = catalog.ErrAssetLoad
	ErrCatalogEmpty = catalog.ErrEmpty

	ErrNoUsableTakes = errors.New("no decodable takes")
)

type (
	DecodeError    = audio.DecodeError
	RenderError    = audio.RenderError
	AssetLoadError = catalog.AssetLoadError
)

// OperationError is a single skipped augmentation.
type OperationError struct {
	Label  string
	Take   Take
	Pass   Pass
	Effect string
	Err    error
}

func (e *OperationError) Error() string {
	if e.Effect != "" {
		return fmt.Sprintf("%s take %s %s with %s: %v", e.Label, e.Take, e.Pass, e.Effect, e.Err)
	}
	return fmt.Sprintf("%s take %s %s: %v", e.Label, e.Take, e.Pass, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}
