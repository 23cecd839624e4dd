package pmi

import (
	"math"

	"github.com/cognicore/scode/pkg/scode/corpus"
)

// DefaultEpsilon is used when a negative smoothing constant is given.
const DefaultEpsilon = 1.0

// Calculator handles PMI (Pointwise Mutual Information) calculations
type Calculator struct {
	epsilon float64 // smoothing constant
}

// NewCalculator creates a new PMI calculator with the given epsilon.
// Zero disables smoothing; negative values fall back to DefaultEpsilon.
func NewCalculator(epsilon float64) *Calculator {
	if epsilon < 0 {
		epsilon = DefaultEpsilon
	}
	return &Calculator{epsilon: epsilon}
}

// Epsilon returns the smoothing constant in use.
func (c *Calculator) Epsilon() float64 {
	return c.epsilon
}

// PMI calculates the pointwise mutual information of an ordered pair
//
// PMI(x,y) = log((N_xy + ε) * N / ((N_x + ε)(N_y + ε)))
//
// Where:
//   - N_xy = number of tuples (x, y)
//   - N_x = occurrences of x on side 0, N_y = occurrences of y on side 1
//   - N = total number of tuples
//   - ε = smoothing constant
func (c *Calculator) PMI(nXY, nX, nY, N int64) float64 {
	if N == 0 {
		return 0
	}

	numerator := (float64(nXY) + c.epsilon) * float64(N)
	denominator := (float64(nX) + c.epsilon) * (float64(nY) + c.epsilon)

	if denominator == 0 {
		return 0
	}

	return math.Log(numerator / denominator)
}

// NPMI is PMI divided by -log P(x,y), which bounds it to [-1, 1]: 1 when x
// and y only ever occur together, 0 when independent. Unseen pairs give 0.
func (c *Calculator) NPMI(nXY, nX, nY, N int64) float64 {
	if N == 0 || nXY == 0 {
		return 0
	}
	logP := math.Log((float64(nXY) + c.epsilon) / float64(N))
	if logP == 0 {
		return 0
	}
	return c.PMI(nXY, nX, nY, N) / -logP
}

// TuplePMI is the PMI of tuple (x, y) under the counts in counter.
func (c *Calculator) TuplePMI(counter *Counter, x, y corpus.TokenID) float64 {
	return c.PMI(
		counter.GetPairCount(x, y),
		counter.GetTokenCount(0, x),
		counter.GetTokenCount(1, y),
		counter.TotalTuples(),
	)
}

// TupleNPMI is the normalized PMI of tuple (x, y) under the counts in counter.
func (c *Calculator) TupleNPMI(counter *Counter, x, y corpus.TokenID) float64 {
	return c.NPMI(
		counter.GetPairCount(x, y),
		counter.GetTokenCount(0, x),
		counter.GetTokenCount(1, y),
		counter.TotalTuples(),
	)
}
