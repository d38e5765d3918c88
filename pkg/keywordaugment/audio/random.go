package audio

import (
	"math/rand/v2"
	"time"
)

// Random is the source of every random decision in the pipeline: effect
// gains, playback rates and take sampling. *rand.Rand satisfies it.
type Random interface {
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// NewRandom returns a PCG-backed source. A zero seed picks one from the clock.
func NewRandom(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Uniform draws from [lo, hi).
func Uniform(r Random, lo, hi float64) float64 {
	return lo + r.Float64()*(hi-lo)
}
