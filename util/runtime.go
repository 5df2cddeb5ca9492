package util

import (
	"math/rand"
	"runtime"
	"time"
)

// NumWorkers resolves a configured worker count, 0 meaning one worker
// per available CPU.
func NumWorkers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// NewRand returns a generator seeded with seed, or with the wall clock
// when random is set.
func NewRand(random bool, seed int64) *rand.Rand {
	if random {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
