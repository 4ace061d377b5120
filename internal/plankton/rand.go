package plankton

import (
	"math"
	"math/rand"
	"time"
)

// Rand is the random stream that drives every stochastic decision in a
// simulation: the per-step visitation order, turn angles, reproduction
// rolls and death rolls. *math/rand.Rand satisfies it directly; tests can
// substitute a scripted stream to force a specific outcome.
//
// There is deliberately no package-level random state. Two simulations
// built from the same seed and the same config produce identical runs.
type Rand interface {
	// Float64 returns a value uniformly distributed in [0, 1).
	Float64() float64
	// Intn returns a value uniformly distributed in [0, n).
	Intn(n int) int
	// Perm returns a uniformly random permutation of [0, n).
	Perm(n int) []int
}

// NewRand builds a random stream from a seed. A zero seed derives one
// from the wall clock, matching the "just run it" default; any other
// value gives a reproducible stream.
func NewRand(seed int64) Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// randomHeading draws a heading uniformly from [0, 2π).
func randomHeading(rng Rand) float64 {
	return rng.Float64() * 2 * math.Pi
}

// uniformAngle draws a turn angle uniformly from [-max, +max].
func uniformAngle(rng Rand, max float64) float64 {
	return (rng.Float64()*2 - 1) * max
}
