// Package corpus holds the observed token pairs together with the per-side
// occurrence counts, frequencies and embeddings derived from them.
package corpus

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/cognicore/scode/pkg/scode/ingest"
	"github.com/cognicore/scode/pkg/scode/internalerr"
	"github.com/cognicore/scode/pkg/scode/vector"
)

// Arity is the number of tokens per observed tuple.
const Arity = 2

// ErrEmptyCorpus is returned when no tuples were observed.
var ErrEmptyCorpus = fmt.Errorf("empty corpus: %w", internalerr.ErrInvalidInput)

// TokenID is a dense interned token handle shared by both sides.
type TokenID int32

// Tuple is one observed pair: Tuple[0] on side 0, Tuple[1] on side 1.
type Tuple [Arity]TokenID

// Side holds the per-token tables for one vocabulary side, indexed by TokenID.
type Side struct {
	Count     []int64          // updates applied so far
	Frequency []float64        // occurrences / corpus size
	Vectors   []*vector.Vector // nil for tokens absent from this side
	distinct  int
}

// Corpus is the ordered tuple sequence plus both sides' tables.
type Corpus struct {
	tuples []Tuple
	qmax   TokenID
	dim    int
	sides  [Arity]*Side
}

// New builds a corpus from tuples whose IDs lie in [0, qmax]. Occurrences
// are counted first, then a random unit vector is allocated for every
// token present on a side, walking side 0 then side 1 in ID order.
func New(tuples []Tuple, qmax TokenID, dim int, src rand.Source) (*Corpus, error) {
	if len(tuples) == 0 {
		return nil, ErrEmptyCorpus
	}
	if dim < 1 {
		return nil, fmt.Errorf("dimension %d: %w", dim, internalerr.ErrInvalidInput)
	}
	if qmax < 0 {
		return nil, fmt.Errorf("qmax %d: %w", qmax, internalerr.ErrInvalidInput)
	}

	c := &Corpus{
		tuples: tuples,
		qmax:   qmax,
		dim:    dim,
	}

	size := int(qmax) + 1
	raw := [Arity][]int64{}
	for s := range c.sides {
		raw[s] = make([]int64, size)
	}
	for i, t := range tuples {
		for s, id := range t {
			if id < 0 || id > qmax {
				return nil, fmt.Errorf("tuple %d: token %d outside [0,%d]: %w", i, id, qmax, internalerr.ErrInvalidInput)
			}
			raw[s][id]++
		}
	}

	n := float64(len(tuples))
	for s := range c.sides {
		side := &Side{
			Count:     make([]int64, size),
			Frequency: make([]float64, size),
			Vectors:   make([]*vector.Vector, size),
		}
		for id, occ := range raw[s] {
			if occ == 0 {
				continue
			}
			side.Frequency[id] = float64(occ) / n
			v := vector.New(dim)
			v.Randomize(src)
			v.Normalize()
			side.Vectors[id] = v
			side.distinct++
		}
		c.sides[s] = side
	}

	return c, nil
}

// Load reads whitespace-separated token pairs from r, interning every token
// through in, and builds the corpus. A line without exactly two tokens
// aborts the load with an *ingest.ArityError.
func Load(r io.Reader, in *ingest.Interner, dim int, src rand.Source) (*Corpus, error) {
	var (
		tuples []Tuple
		qmax   TokenID
	)
	err := ingest.ReadLines(r, Arity, func(fields []string) error {
		var t Tuple
		for i, tok := range fields {
			q := TokenID(in.Intern(tok))
			if q > qmax {
				qmax = q
			}
			t[i] = q
		}
		tuples = append(tuples, t)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return New(tuples, qmax, dim, src)
}

// Len returns the number of tuples.
func (c *Corpus) Len() int { return len(c.tuples) }

// Tuple returns the tuple at ordinal position i.
func (c *Corpus) Tuple(i int) Tuple { return c.tuples[i] }

// QMax returns the largest token ID.
func (c *Corpus) QMax() TokenID { return c.qmax }

// Dim returns the embedding dimensionality.
func (c *Corpus) Dim() int { return c.dim }

// Side returns the tables for side s (0 or 1).
func (c *Corpus) Side(s int) *Side { return c.sides[s] }

// Distinct returns how many tokens occur on side s.
func (c *Corpus) Distinct(s int) int { return c.sides[s].distinct }

// Count returns the update count of id on side s.
func (c *Corpus) Count(s int, id TokenID) int64 {
	c.check(id)
	return c.sides[s].Count[id]
}

// Frequency returns the empirical frequency of id on side s.
func (c *Corpus) Frequency(s int, id TokenID) float64 {
	c.check(id)
	return c.sides[s].Frequency[id]
}

// Vector returns the embedding of id on side s, or nil if id never occurs
// on that side.
func (c *Corpus) Vector(s int, id TokenID) *vector.Vector {
	c.check(id)
	return c.sides[s].Vectors[id]
}

func (c *Corpus) check(id TokenID) {
	if id < 0 || id > c.qmax {
		panic(fmt.Sprintf("corpus: token %d outside [0,%d]", id, c.qmax))
	}
}
