// Package rng provides the per-worker random streams used by stochastic
// node models. Every worker owns exactly one stream; streams are never
// shared and reproduce bit-identical sequences when cloned from the same
// seed.
package rng

import (
	"hash/fnv"
	"log"
	"math"
	"math/rand"
	"strconv"
)

// A Stream is a seedable source of random draws. The underlying generator
// is a pluggable strategy; the kernel only depends on this interface.
type Stream interface {
	// Next returns a raw 64-bit draw.
	Next() uint64

	// Float64 returns a uniform draw in [0, 1).
	Float64() float64

	// Int63n returns a uniform draw in [0, n).
	Int63n(n int64) int64

	// Clone returns a fresh, independent stream seeded with the given seed.
	// Two streams cloned from the same seed produce identical sequences.
	Clone(seed int64) Stream

	// Reseed restarts the stream from the given seed.
	Reseed(seed int64)

	// Poisson returns a draw from a Poisson distribution with the given
	// rate.
	Poisson(lambda float64) int64

	// Binomial returns a draw from a Binomial(n, p) distribution.
	Binomial(n int64, p float64) int64
}

// NewStream creates a Stream from a seed.
func NewStream(seed int64) Stream {
	return &stream{
		src: rand.New(rand.NewSource(seed)),
	}
}

type stream struct {
	src *rand.Rand
}

func (s *stream) Next() uint64 {
	return s.src.Uint64()
}

func (s *stream) Float64() float64 {
	return s.src.Float64()
}

func (s *stream) Int63n(n int64) int64 {
	return s.src.Int63n(n)
}

func (s *stream) Clone(seed int64) Stream {
	return NewStream(seed)
}

func (s *stream) Reseed(seed int64) {
	s.src.Seed(seed)
}

// Poisson draws with Knuth's product method, run in the log domain so it
// stays stable for large rates.
func (s *stream) Poisson(lambda float64) int64 {
	if math.IsNaN(lambda) || lambda < 0 {
		log.Panicf("Poisson rate must be non-negative, got %f", lambda)
	}

	if lambda == 0 {
		return 0
	}

	var k int64
	sum := 0.0
	for {
		sum += -math.Log(1 - s.src.Float64())
		if sum >= lambda {
			return k
		}
		k++
	}
}

func (s *stream) Binomial(n int64, p float64) int64 {
	if p < 0 || p > 1 || math.IsNaN(p) {
		log.Panicf("Binomial probability must be in [0, 1], got %f", p)
	}

	var k int64
	for i := int64(0); i < n; i++ {
		if s.src.Float64() < p {
			k++
		}
	}

	return k
}

// A Set holds one independent stream per worker, all derived from a single
// master seed. The per-worker seeds mix the worker index through a hash so
// neighboring workers do not get trivially correlated sequences.
type Set struct {
	masterSeed int64
	streams    []Stream
}

// NewSet creates a Set with one stream per worker.
func NewSet(masterSeed int64, numWorkers int) *Set {
	if numWorkers < 1 {
		log.Panicf("need at least one worker, got %d", numWorkers)
	}

	s := &Set{masterSeed: masterSeed}
	for w := 0; w < numWorkers; w++ {
		s.streams = append(s.streams, NewStream(deriveSeed(masterSeed, w)))
	}

	return s
}

// Stream returns the stream owned by a worker.
func (s *Set) Stream(worker int) Stream {
	return s.streams[worker]
}

// ReseedAll restarts every stream from a new master seed.
func (s *Set) ReseedAll(masterSeed int64) {
	s.masterSeed = masterSeed
	for w, st := range s.streams {
		st.Reseed(deriveSeed(masterSeed, w))
	}
}

// MasterSeed returns the seed the set was derived from.
func (s *Set) MasterSeed() int64 {
	return s.masterSeed
}

func deriveSeed(masterSeed int64, worker int) int64 {
	h := fnv.New64a()
	h.Write([]byte("worker_" + strconv.Itoa(worker)))
	return masterSeed ^ int64(h.Sum64())
}
