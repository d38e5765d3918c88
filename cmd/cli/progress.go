package main

import (
	"io"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/himanishpuri/KeywordAugment/pkg/keywordaugment"
)

// progressObserver draws one bar per label.
type progressObserver struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

func newProgressObserver(out io.Writer) *progressObserver {
	return &progressObserver{
		p: mpb.New(mpb.WithWidth(48), mpb.WithOutput(out)),
	}
}

func (o *progressObserver) LabelStarted(label string, operations int) {
	o.bar = o.p.AddBar(int64(operations),
		mpb.PrependDecorators(
			decor.Name(label, decor.WC{W: 16, C: decor.DindentRight}),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.Elapsed(decor.ET_STYLE_GO),
		),
	)
}

func (o *progressObserver) OperationDone(string, keywordaugment.Pass, error, time.Duration) {
	if o.bar != nil {
		o.bar.Increment()
	}
}

func (o *progressObserver) LabelFinished(keywordaugment.LabelResult) {
	if o.bar != nil && !o.bar.Completed() {
		// label stopped early
		o.bar.Abort(false)
	}
	o.bar = nil
}

func (o *progressObserver) Wait() {
	o.p.Wait()
}
