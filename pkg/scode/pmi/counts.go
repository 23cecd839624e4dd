package pmi

import (
	"sort"

	"github.com/cognicore/scode/pkg/scode/corpus"
)

// Counter maintains tuple and per-side token counts for PMI calculation
type Counter struct {
	N   int64                                  // total number of tuples
	Nx  [corpus.Arity]map[corpus.TokenID]int64 // occurrences per token, per side
	Nxy map[corpus.Tuple]int64                 // occurrences per ordered tuple
}

// PairCount is one distinct tuple with its multiplicity
type PairCount struct {
	Tuple corpus.Tuple
	Count int64
}

// NewCounter creates a new tuple counter
func NewCounter() *Counter {
	c := &Counter{Nxy: make(map[corpus.Tuple]int64)}
	for s := range c.Nx {
		c.Nx[s] = make(map[corpus.TokenID]int64)
	}
	return c
}

// FromCorpus counts every tuple of c.
func FromCorpus(c *corpus.Corpus) *Counter {
	counter := NewCounter()
	for i := 0; i < c.Len(); i++ {
		counter.AddTuple(c.Tuple(i))
	}
	return counter
}

// AddTuple records one observation. Unlike document co-occurrence the pair
// is ordered: side 0 and side 1 are different vocabularies.
func (c *Counter) AddTuple(t corpus.Tuple) {
	c.N++
	for s, id := range t {
		c.Nx[s][id]++
	}
	c.Nxy[t]++
}

// GetPairCount returns how often the tuple (x, y) was observed
func (c *Counter) GetPairCount(x, y corpus.TokenID) int64 {
	return c.Nxy[corpus.Tuple{x, y}]
}

// GetTokenCount returns how often id was observed on side s
func (c *Counter) GetTokenCount(s int, id corpus.TokenID) int64 {
	return c.Nx[s][id]
}

// TotalTuples returns the number of tuples processed
func (c *Counter) TotalTuples() int64 {
	return c.N
}

// UniquePairs returns the number of distinct tuples
func (c *Counter) UniquePairs() int {
	return len(c.Nxy)
}

// Pairs returns the distinct tuples ordered by side-0 then side-1 ID.
func (c *Counter) Pairs() []PairCount {
	out := make([]PairCount, 0, len(c.Nxy))
	for t, n := range c.Nxy {
		out = append(out, PairCount{Tuple: t, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tuple[0] != out[j].Tuple[0] {
			return out[i].Tuple[0] < out[j].Tuple[0]
		}
		return out[i].Tuple[1] < out[j].Tuple[1]
	})
	return out
}
