package game

import (
	"hash/fnv"
	"math/rand"
)

// Rand is the single seeded generator of a match. Every random decision of
// the simulation draws from it so that equal seeds replay identically.
type Rand struct {
	src *rand.Rand
}

// NewRand returns a generator seeded with seed.
func NewRand(seed int64) *Rand {
	return &Rand{src: rand.New(rand.NewSource(seed))}
}

// DeriveSeed hashes a root seed and a label into a new seed value.
func DeriveSeed(root int64, label string) int64 {
	hasher := fnv.New64a()
	var buf [8]byte
	for i := range buf {
		buf[i] = byte(root >> (8 * i))
	}
	hasher.Write(buf[:])
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// Intn returns a value in [0, n). It returns 0 for n <= 0.
func (r *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return r.src.Intn(n)
}

// Percent returns true with probability p/100.
func (r *Rand) Percent(p int) bool {
	if p <= 0 {
		return false
	}
	if p >= 100 {
		return true
	}
	return r.src.Intn(100) < p
}

// Weighted picks an index with probability proportional to its weight.
// It returns -1 when no weight is positive.
func (r *Rand) Weighted(weights []int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return -1
	}
	n := r.src.Intn(total)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if n < w {
			return i
		}
		n -= w
	}
	return -1
}
