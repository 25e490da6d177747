package core

import "math/rand"

// Rand is the randomness source behind the telemetry generator. Tests inject
// deterministic sequences; production uses a seeded math/rand source.
type Rand interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// Intn returns a value in [0, n).
	Intn(n int) int
}

// NewRand returns a Rand backed by math/rand with the given seed.
func NewRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}
