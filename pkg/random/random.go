// Package random provides the seedable random source consumed by the sorting
// pipeline. Every stage and row draws from its own derived stream, so results
// do not depend on how rows are scheduled across workers.
package random

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// Stage names a consumer of random streams
type Stage string

const (
	StageSegment   Stage = "segment"
	StageSort      Stage = "sort"
	StageShuffle   Stage = "shuffle"
	StageSnap      Stage = "snap"
	StageAutomaton Stage = "automaton"
	StagePreset    Stage = "preset"
)

// Source is the set of random operations the pipeline needs
type Source interface {
	// Float64 returns a uniform value in [0, 1)
	Float64() float64

	// IntRange returns a uniform integer in the closed range [lo, hi]
	IntRange(lo, hi int) int

	// Shuffle permutes n elements through swap
	Shuffle(n int, swap func(i, j int))

	// Sample returns k distinct integers drawn from [0, n)
	Sample(k, n int) []int
}

// Factory derives independent sources for a stage and an index (usually a row)
type Factory interface {
	Stream(stage Stage, index int) Source
}

// Rand is a Source backed by a PCG generator
type Rand struct {
	src rand.Source
	rng *rand.Rand
}

// New returns a Rand seeded with seed
func New(seed uint64) *Rand {
	src := rand.NewSource(seed)
	return &Rand{src: src, rng: rand.New(src)}
}

func (r *Rand) Float64() float64 {
	return r.rng.Float64()
}

func (r *Rand) IntRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.rng.Intn(hi-lo+1)
}

func (r *Rand) Shuffle(n int, swap func(i, j int)) {
	r.rng.Shuffle(n, swap)
}

// Sample panics when k > n, matching sampling without replacement
func (r *Rand) Sample(k, n int) []int {
	idx := make([]int, k)
	if k == 0 {
		return idx
	}
	sampleuv.WithoutReplacement(idx, n, r.src)
	return idx
}

// Streams derives per-stage, per-index generators from one seed
type Streams struct {
	seed uint64
}

// NewStreams returns a Factory rooted at seed
func NewStreams(seed uint64) Streams {
	return Streams{seed: seed}
}

// Stream returns the generator for stage and index. The same arguments
// always yield the same sequence.
func (s Streams) Stream(stage Stage, index int) Source {
	h := s.seed
	for i := 0; i < len(stage); i++ {
		h = mix(h ^ uint64(stage[i]))
	}
	h = mix(h ^ uint64(int64(index)))
	return New(h)
}

// mix is the splitmix64 finalizer
func mix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}
