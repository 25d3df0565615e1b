package tanabota

import "math/rand"

// Rand is the source of entropy for the probabilistic trigger and action.
// Injecting it lets tests supply a deterministic sequence.
type Rand interface {
	// IntN returns a uniform int in [0, n). Panics if n <= 0.
	IntN(n int) int
}

type systemRand struct{}

func (systemRand) IntN(n int) int { return rand.Intn(n) }

// SystemRand returns a Rand backed by the process-wide math/rand/v2 source.
func SystemRand() Rand { return systemRand{} }
