package keywordaugment

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Stage is one transformation applied to a take.
type Stage int

const (
	StageOverlay Stage = iota + 1
	StageDistort
)

func (s Stage) Tag() string {
	switch s {
	case StageOverlay:
		return "bg"
	case StageDistort:
		return "distort"
	default:
		return "unknown"
	}
}

func (s Stage) String() string { return s.Tag() }

// Take identifies a recording within its label: the base take number it was
// derived from and the stages applied to it, in order.
type Take struct {
	Base   int
	Stages []Stage
}

func OriginalTake(base int) Take {
	return Take{Base: base}
}

func (t Take) IsOriginal() bool {
	return len(t.Stages) == 0
}

// With returns a copy of t with stages appended.
func (t Take) With(stages ...Stage) Take {
	out := Take{Base: t.Base, Stages: make([]Stage, 0, len(t.Stages)+len(stages))}
	out.Stages = append(out.Stages, t.Stages...)
	out.Stages = append(out.Stages, stages...)
	return out
}

// Tag renders only the stage suffix, e.g. "bg_distort"; empty for originals.
func (t Take) Tag() string {
	tags := make([]string, len(t.Stages))
	for i, s := range t.Stages {
		tags[i] = s.Tag()
	}
	return strings.Join(tags, "_")
}

// String renders the take tag, e.g. "3", "3_bg", "3_distort", "3_bg_distort".
func (t Take) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(t.Base))
	for _, s := range t.Stages {
		sb.WriteByte('_')
		sb.WriteString(s.Tag())
	}
	return sb.String()
}

func (t Take) Equal(o Take) bool {
	if t.Base != o.Base || len(t.Stages) != len(o.Stages) {
		return false
	}
	for i := range t.Stages {
		if t.Stages[i] != o.Stages[i] {
			return false
		}
	}
	return true
}

// TakeNumber turns a numeric take id, as JavaScript hands it over, into an
// original take. Like ParseTake it accepts only whole numbers from 1 up.
func TakeNumber(n float64) (Take, error) {
	if n < 1 || n != math.Trunc(n) || n > math.MaxInt32 {
		return Take{}, fmt.Errorf("invalid take %v: base must be a positive integer", n)
	}
	return OriginalTake(int(n)), nil
}

// ParseTake is the inverse of Take.String.
func ParseTake(s string) (Take, error) {
	parts := strings.Split(s, "_")
	base, err := strconv.Atoi(parts[0])
	if err != nil || base < 1 {
		return Take{}, fmt.Errorf("invalid take %q: base must be a positive integer", s)
	}

	t := Take{Base: base}
	for _, p := range parts[1:] {
		switch p {
		case "bg":
			t.Stages = append(t.Stages, StageOverlay)
		case "distort":
			t.Stages = append(t.Stages, StageDistort)
		default:
			return Take{}, fmt.Errorf("invalid take %q: unknown stage %q", s, p)
		}
	}
	return t, nil
}
