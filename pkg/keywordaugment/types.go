package keywordaugment

// Recording is one labeled audio clip. Audio holds encoded bytes in whatever
// container the capture produced; derived recordings are always canonical
// 16-bit PCM WAV.
type Recording struct {
	Label string
	Take  Take
	Audio []byte
}

// Pass is one of the three augmentation passes run per label.
type Pass int

const (
	PassOverlay Pass = iota + 1
	PassDistort
	PassOverlayDistort
	// PassCanonical re-encodes an original take without changing it.
	PassCanonical
)

func (p Pass) String() string {
	switch p {
	case PassOverlay:
		return "overlay"
	case PassDistort:
		return "distort"
	case PassOverlayDistort:
		return "overlay_distort"
	case PassCanonical:
		return "canonical"
	default:
		return "unknown"
	}
}

// Stages are the take stages a pass appends.
func (p Pass) Stages() []Stage {
	switch p {
	case PassOverlay:
		return []Stage{StageOverlay}
	case PassDistort:
		return []Stage{StageDistort}
	case PassOverlayDistort:
		return []Stage{StageOverlay, StageDistort}
	default:
		return nil
	}
}

// Result is what a duplication run returns: the recordings it produced and
// a report of everything that was skipped along the way.
type Result struct {
	Recordings []Recording
	Report     *Report
}
