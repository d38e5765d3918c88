package keywordaugment

import (
	"context"
	"time"

	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/audio"
	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment/catalog"
)

type Service interface {
	// GenerateDuplicates returns only the derived recordings.
	GenerateDuplicates(ctx context.Context, recordings []Recording) (*Result, error)
	// BuildDataset returns the originals in canonical WAV form followed by
	// the derived recordings.
	BuildDataset(ctx context.Context, recordings []Recording) (*Result, error)
}

type Decoder interface {
	Decode(ctx context.Context, data []byte) (*audio.SampleBuffer, error)
}

type EffectSource = catalog.Source

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Observer receives progress callbacks during a run. Calls are made from the
// goroutine running the duplication, one at a time.
type Observer interface {
	LabelStarted(label string, operations int)
	OperationDone(label string, pass Pass, err error, elapsed time.Duration)
	LabelFinished(result LabelResult)
}

type nopObserver struct{}

func (nopObserver) LabelStarted(string, int)                          {}
func (nopObserver) OperationDone(string, Pass, error, time.Duration) {}
func (nopObserver) LabelFinished(LabelResult)                         {}

// Observers fans callbacks out to several observers.
type Observers []Observer

func (o Observers) LabelStarted(label string, operations int) {
	for _, ob := range o {
		ob.LabelStarted(label, operations)
	}
}

func (o Observers) OperationDone(label string, pass Pass, err error, elapsed time.Duration) {
	for _, ob := range o {
		ob.OperationDone(label, pass, err, elapsed)
	}
}

func (o Observers) LabelFinished(result LabelResult) {
	for _, ob := range o {
		ob.LabelFinished(result)
	}
}
