// Package random provides the seeded discrete distributions the state
// operators draw from. It wraps math/rand/v2 rather than the global
// generator so that every document in flight owns an independent,
// reproducible stream.
package random

import (
	"math"
	"math/rand/v2"
)

// Source is a seeded random generator. It is not safe for concurrent use;
// per the per-document concurrency model, each document owns exactly one.
type Source struct {
	rnd *rand.Rand
}

// New returns a Source seeded deterministically from seed.
func New(seed uint64) *Source {
	return &Source{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Draw01 draws a uniform float in [0, 1).
func (s *Source) Draw01() float64 {
	return s.rnd.Float64()
}

// FlipCoin returns true with probability p (default 0.5 when p is 0).
func (s *Source) FlipCoin(p float64) bool {
	if p == 0 {
		p = 0.5
	}
	return s.rnd.Float64() < p
}

// DrawFromRange draws a uniform integer in [lo, hi].
func (s *Source) DrawFromRange(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + s.rnd.IntN(hi-lo+1)
}

// DrawFromCumulative draws an index i such that cumulative[i-1] < u <= cumulative[i],
// given a non-decreasing cumulative distribution whose last entry is the total mass.
// This is the same draw-then-binary-search idiom the original operators use to pick
// a sentence with probability proportional to its length.
func (s *Source) DrawFromCumulative(cumulative []float64) int {
	if len(cumulative) == 0 {
		return -1
	}
	total := cumulative[len(cumulative)-1]
	u := s.rnd.Float64() * total
	lo, hi := 0, len(cumulative)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if cumulative[mid] < u {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// DrawFromDiscrete draws an index from a list of raw (non-cumulative) weights.
func (s *Source) DrawFromDiscrete(weights []float64) int {
	cum := make([]float64, len(weights))
	total := 0.0
	for i, w := range weights {
		total += w
		cum[i] = total
	}
	return s.DrawFromCumulative(cum)
}

// DrawFromGeometric draws from a geometric distribution with the given decay
// in (0,1) exclusive, capped at cap. decay closer to 1 produces longer runs.
// Matches the original's min(geometric(decay), cap) truncation used throughout
// the block-size and block-distance draws in the state operators.
func (s *Source) DrawFromGeometric(decay float64, cap int) int {
	if decay <= 0 {
		return 0
	}
	if decay >= 1 {
		return cap
	}
	n := int(math.Log(1-s.rnd.Float64()) / math.Log(decay))
	if n > cap {
		n = cap
	}
	if n < 0 {
		n = 0
	}
	return n
}

// Shuffle permutes n elements in place using swap(i, j).
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.rnd.Shuffle(n, swap)
}
