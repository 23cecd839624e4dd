// Package eval measures how well the learned embeddings explain the
// observed tuples.
//
// The model assigns p(x,y) = p(x) p(y) exp(-|v0[x]-v1[y]|²) / Z. LogL uses
// a fixed Z; CalcZ computes the exact normalizer over all token pairs.
package eval

import (
	"math"

	"github.com/cognicore/scode/pkg/scode/corpus"
	"github.com/cognicore/scode/pkg/scode/vector"
)

// LogL returns the average log-likelihood per tuple under the fixed
// partition-function approximation z. A zero frequency drives the result
// to -Inf, which signals corrupt tables.
func LogL(c *corpus.Corpus, z float64) float64 {
	var l float64
	for i := 0; i < c.Len(); i++ {
		t := c.Tuple(i)
		x, y := t[0], t[1]
		px := c.Frequency(0, x)
		py := c.Frequency(1, y)
		xy := vector.SqDist(c.Vector(0, x), c.Vector(1, y))
		l += math.Log(px*py) - xy
	}
	return l/float64(c.Len()) - math.Log(z)
}

// CalcZ returns the exact partition function, summing over every pair of
// tokens with nonzero frequency on their respective sides. It costs
// O(U0*U1*dim) and is meant for occasional diagnostics.
func CalcZ(c *corpus.Corpus) float64 {
	return CalcZWithProgress(c, 0, nil)
}

// CalcZWithProgress is CalcZ with a callback invoked with the current
// side-0 ID every `every` IDs. A nil fn or non-positive every disables it.
func CalcZWithProgress(c *corpus.Corpus, every int, fn func(x corpus.TokenID)) float64 {
	side0, side1 := c.Side(0), c.Side(1)

	var z float64
	for x := corpus.TokenID(0); x <= c.QMax(); x++ {
		if fn != nil && every > 0 && int(x)%every == 0 {
			fn(x)
		}
		px := side0.Frequency[x]
		if px == 0 {
			continue
		}
		vx := side0.Vectors[x]
		for y := corpus.TokenID(0); y <= c.QMax(); y++ {
			py := side1.Frequency[y]
			if py == 0 {
				continue
			}
			xy := vector.SqDist(vx, side1.Vectors[y])
			z += px * py * math.Exp(-xy)
		}
	}
	return z
}
