package eval

import (
	"sort"

	"github.com/cognicore/scode/pkg/scode/corpus"
	"github.com/cognicore/scode/pkg/scode/vector"
)

// DefaultNeighbors is used when Nearest is called with k <= 0.
const DefaultNeighbors = 10

// Neighbor is a token on the opposite side and its squared distance.
type Neighbor struct {
	ID     corpus.TokenID
	SqDist float64
}

// Nearest returns the k tokens of the other side closest to id on side s,
// nearest first. Ties are broken by ID. It returns nil if id has no vector
// on side s.
func Nearest(c *corpus.Corpus, s int, id corpus.TokenID, k int) []Neighbor {
	if k <= 0 {
		k = DefaultNeighbors
	}
	v := c.Vector(s, id)
	if v == nil {
		return nil
	}

	other := c.Side(1 - s)
	var out []Neighbor
	for oid, ov := range other.Vectors {
		if ov == nil {
			continue
		}
		out = append(out, Neighbor{ID: corpus.TokenID(oid), SqDist: vector.SqDist(v, ov)})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].SqDist != out[j].SqDist {
			return out[i].SqDist < out[j].SqDist
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}
