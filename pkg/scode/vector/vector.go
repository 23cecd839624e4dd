// Package vector implements the fixed-dimension real vectors used as token
// embeddings.
package vector

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// MinNorm is the smallest norm Normalize will divide by. Vectors with a
// smaller norm are left unchanged.
const MinNorm = 1e-12

// Vector is a dense embedding of fixed dimensionality.
type Vector struct {
	data []float64
}

// New allocates a zero vector with dim components.
func New(dim int) *Vector {
	if dim < 1 {
		panic(fmt.Sprintf("vector: invalid dimension %d", dim))
	}
	return &Vector{data: make([]float64, dim)}
}

// FromValues builds a vector holding a copy of vals.
func FromValues(vals []float64) *Vector {
	v := New(len(vals))
	copy(v.data, vals)
	return v
}

// Dim returns the number of components.
func (v *Vector) Dim() int { return len(v.data) }

// Get returns component i. It panics if i is outside [0, Dim()).
func (v *Vector) Get(i int) float64 {
	v.check(i)
	return v.data[i]
}

// Set assigns component i. It panics if i is outside [0, Dim()).
func (v *Vector) Set(i int, x float64) {
	v.check(i)
	v.data[i] = x
}

func (v *Vector) check(i int) {
	if i < 0 || i >= len(v.data) {
		panic(fmt.Sprintf("vector: index %d out of range [0,%d)", i, len(v.data)))
	}
}

// Values returns a copy of the components.
func (v *Vector) Values() []float64 {
	out := make([]float64, len(v.data))
	copy(out, v.data)
	return out
}

// Clone returns an independent copy of v.
func (v *Vector) Clone() *Vector {
	return FromValues(v.data)
}

// Randomize fills every component with a standard normal draw from src.
func (v *Vector) Randomize(src rand.Source) {
	dist := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	for i := range v.data {
		v.data[i] = dist.Rand()
	}
}

// Norm returns the Euclidean norm.
func (v *Vector) Norm() float64 {
	return floats.Norm(v.data, 2)
}

// Normalize scales v to unit Euclidean norm. A vector whose norm is below
// MinNorm is left as is and Normalize reports false.
func (v *Vector) Normalize() bool {
	n := v.Norm()
	if n < MinNorm {
		return false
	}
	floats.Scale(1/n, v.data)
	return true
}

// SqDist returns the squared Euclidean distance between a and b.
// Both vectors must have the same dimensionality.
func SqDist(a, b *Vector) float64 {
	if len(a.data) != len(b.data) {
		panic(fmt.Sprintf("vector: dimension mismatch %d != %d", len(a.data), len(b.data)))
	}
	d := floats.Distance(a.data, b.data, 2)
	return d * d
}
