// Package train applies the per-tuple stochastic update that moves
// co-occurring embeddings together and pushes sampled negatives apart.
package train

import (
	"math"

	"github.com/cognicore/scode/pkg/scode/corpus"
	"github.com/cognicore/scode/pkg/scode/vector"
)

// Params holds the learning-rate schedule and the partition-function
// approximation used during training.
type Params struct {
	Phi0 float64 // learning-rate decay scale
	Nu0  float64 // initial learning rate
	Z    float64 // fixed partition-function approximation
}

// DefaultParams returns the reference configuration.
func DefaultParams() Params {
	return Params{
		Phi0: 100.0,
		Nu0:  0.1,
		Z:    0.154,
	}
}

// Sampler draws uniform integers in [0, n). *rand.Rand from math/rand/v2
// satisfies it.
type Sampler interface {
	IntN(n int) int
}

// PassStats summarizes one pass over the corpus.
type PassStats struct {
	MaxMove    float64 // square root of the largest per-tuple move
	Degenerate int     // normalizations skipped on zero-norm vectors
}

// Trainer updates the embeddings of a corpus in place.
type Trainer struct {
	corpus     *corpus.Corpus
	params     Params
	sampler    Sampler
	degenerate int
}

// New creates a trainer over c. All randomness is drawn from s.
func New(c *corpus.Corpus, p Params, s Sampler) *Trainer {
	return &Trainer{
		corpus:  c,
		params:  p,
		sampler: s,
	}
}

// Params returns the trainer's parameters.
func (t *Trainer) Params() Params { return t.params }

// LearningRate is the step size for a token that has already received
// count updates. It decreases strictly with count.
func (t *Trainer) LearningRate(count int64) float64 {
	return t.params.Nu0 * (t.params.Phi0 / (t.params.Phi0 + float64(count)))
}

// UpdateTuple applies one stochastic update for tu and returns the larger
// of the two squared move magnitudes.
//
// Negatives are drawn from the corpus itself: the side-0 token of one
// uniformly chosen tuple and the side-1 token of another.
func (t *Trainer) UpdateTuple(tu corpus.Tuple) float64 {
	c := t.corpus
	side0, side1 := c.Side(0), c.Side(1)
	x1, y1 := tu[0], tu[1]

	cx := side0.Count[x1]
	side0.Count[x1]++
	cy := side1.Count[y1]
	side1.Count[y1]++
	nx := t.LearningRate(cx)
	ny := t.LearningRate(cy)

	vx1 := c.Vector(0, x1)
	vy1 := c.Vector(1, y1)

	x2 := c.Tuple(t.sampler.IntN(c.Len()))[0]
	y2 := c.Tuple(t.sampler.IntN(c.Len()))[1]
	vx2 := c.Vector(0, x2)
	vy2 := c.Vector(1, y2)

	x1y2 := vector.SqDist(vx1, vy2)
	y1x2 := vector.SqDist(vx2, vy1)

	dx := t.UpdateVector(vx1, vy1, vy2, x1y2, nx)
	dy := t.UpdateVector(vy1, vx1, vx2, y1x2, ny)
	return math.Max(dx, dy)
}

// UpdateVector moves x toward its partner y and away from the negative y2,
// whose current squared distance to x is xy2, then renormalizes x. It
// returns the sum of squared component moves before normalization.
func (t *Trainer) UpdateVector(x, y, y2 *vector.Vector, xy2, rate float64) float64 {
	e := math.Exp(-xy2)

	var sumsq float64
	for i := x.Dim() - 1; i >= 0; i-- {
		xi := x.Get(i)
		move := rate * (y.Get(i) - xi + (xi-y2.Get(i))*e/t.params.Z)
		x.Set(i, xi+move)
		sumsq += move * move
	}
	if !x.Normalize() {
		t.degenerate++
	}
	return sumsq
}

// Pass updates every tuple once in corpus order.
func (t *Trainer) Pass() PassStats {
	before := t.degenerate
	var maxmove float64
	for i := 0; i < t.corpus.Len(); i++ {
		if dx := t.UpdateTuple(t.corpus.Tuple(i)); dx > maxmove {
			maxmove = dx
		}
	}
	return PassStats{
		MaxMove:    math.Sqrt(maxmove),
		Degenerate: t.degenerate - before,
	}
}
