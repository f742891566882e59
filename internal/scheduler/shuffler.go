package scheduler

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"sync"
	"time"
)

// Shuffler decides the candidate order of days, slots and assignments.
// Production code uses system entropy; tests pass a fixed seed.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type randShuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewShuffler returns a deterministic shuffler for the given seed.
func NewShuffler(seed int64) Shuffler {
	return &randShuffler{rng: rand.New(rand.NewSource(seed))}
}

// NewEntropyShuffler seeds a shuffler from the operating system's entropy source.
func NewEntropyShuffler() Shuffler {
	return NewShuffler(EntropySeed())
}

// EntropySeed reads a seed from crypto/rand, falling back to the clock.
func EntropySeed() int64 {
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}

func (s *randShuffler) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(n, swap)
}

// shuffled returns a shuffled copy of items.
func shuffled[T any](s Shuffler, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	s.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
