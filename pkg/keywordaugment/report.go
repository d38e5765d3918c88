package keywordaugment

import (
	"fmt"
	"strings"
	"time"
)

// LabelResult summarizes one label's batch.
type LabelResult struct {
	Label          string
	Originals      int
	Overlay        int
	Distort        int
	OverlayDistort int
	// Failures are individual operations that were skipped.
	Failures []error
	// Err is set when the whole label stopped early.
	Err     error
	Elapsed time.Duration
}

func (r *LabelResult) Derived() int {
	return r.Overlay + r.Distort + r.OverlayDistort
}

func (r *LabelResult) OK() bool {
	return r.Err == nil && len(r.Failures) == 0
}

func (r *LabelResult) count(p Pass) {
	switch p {
	case PassOverlay:
		r.Overlay++
	case PassDistort:
		r.Distort++
	case PassOverlayDistort:
		r.OverlayDistort++
	}
}

type Report struct {
	RunID       string
	Effects     []string
	AssetErrors []error
	Labels      []LabelResult
	// Canonical counts originals re-encoded into the dataset.
	Canonical int
	Started   time.Time
	Elapsed   time.Duration
}

func (r *Report) Derived() int {
	n := 0
	for i := range r.Labels {
		n += r.Labels[i].Derived()
	}
	return n
}

func (r *Report) Failures() int {
	n := 0
	for i := range r.Labels {
		n += len(r.Labels[i].Failures)
		if r.Labels[i].Err != nil {
			n++
		}
	}
	return n
}

func (r *Report) Label(name string) (*LabelResult, bool) {
	for i := range r.Labels {
		if r.Labels[i].Label == name {
			return &r.Labels[i], true
		}
	}
	return nil, false
}

// Summary renders a short multi-line description for terminals and logs.
func (r *Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s: %d effects, %d labels, %d derived, %d failures (%s)\n",
		r.RunID, len(r.Effects), len(r.Labels), r.Derived(), r.Failures(), r.Elapsed.Round(time.Millisecond))
	for _, err := range r.AssetErrors {
		fmt.Fprintf(&sb, "  effect skipped: %v\n", err)
	}
	for i := range r.Labels {
		l := &r.Labels[i]
		status := "ok"
		if l.Err != nil {
			status = "failed: " + l.Err.Error()
		} else if len(l.Failures) > 0 {
			status = fmt.Sprintf("%d skipped", len(l.Failures))
		}
		fmt.Fprintf(&sb, "  %-16s takes=%d bg=%d distort=%d bg_distort=%d %s\n",
			l.Label, l.Originals, l.Overlay, l.Distort, l.OverlayDistort, status)
	}
	return sb.String()
}
