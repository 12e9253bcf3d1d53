package engine

import (
	"math/rand"
	"sync"
	"time"
)

// Random is the source of uniform integers used by the rule modules
type Random interface {
	// Intn returns a uniform integer in [0, n)
	Intn(n int) int
}

// LockedRandom is a seedable Random that is safe for concurrent use
type LockedRandom struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandom creates a source seeded with seed
func NewRandom(seed int64) *LockedRandom {
	return &LockedRandom{rnd: rand.New(rand.NewSource(seed))}
}

// NewTimeSeededRandom creates a source seeded from the wall clock
func NewTimeSeededRandom() *LockedRandom {
	return NewRandom(time.Now().UnixNano())
}

// Intn returns a uniform integer in [0, n)
func (r *LockedRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

// between returns a uniform integer in [lo, hi]
func between(r Random, lo, hi int) int {
	return lo + r.Intn(hi-lo+1)
}

// shuffle performs a Fisher-Yates shuffle of values using r
func shuffle(r Random, values []int) {
	for i := len(values) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		values[i], values[j] = values[j], values[i]
	}
}
