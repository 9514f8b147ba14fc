package occache

import (
	"math/rand"
	"sync"
	"time"
)

// randSource draws the geometric-distribution coin flips used to pick a
// new node's height. Grounded on rangeskiplist.h's RandomLevel(), which
// seeds a single process-wide generator with the current time; math/rand's
// *Rand is not safe for concurrent use, so occache wraps it with a mutex
// the way a shared PRNG is usually guarded in Go rather than reaching for
// a per-goroutine source (the skiplist mutation rate doesn't justify it).
type randSource struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func newRandSource() *randSource {
	return &randSource{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (r *randSource) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}
