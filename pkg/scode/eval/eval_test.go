package eval

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/cognicore/scode/pkg/scode/corpus"
	"github.com/cognicore/scode/pkg/scode/train"
	"github.com/cognicore/scode/pkg/scode/vector"
)

func build(t *testing.T, tuples []corpus.Tuple, qmax corpus.TokenID, dim int) *corpus.Corpus {
	t.Helper()
	c, err := corpus.New(tuples, qmax, dim, rand.NewPCG(11, 13))
	if err != nil {
		t.Fatalf("corpus.New: %v", err)
	}
	return c
}

// setVector overwrites the embedding of id on side s.
func setVector(c *corpus.Corpus, s int, id corpus.TokenID, vals ...float64) {
	v := c.Vector(s, id)
	for i, x := range vals {
		v.Set(i, x)
	}
}

func TestCalcZUniformIdenticalVectorsIsOne(t *testing.T) {
	c := build(t, []corpus.Tuple{{0, 0}, {1, 1}, {0, 1}, {1, 0}}, 1, 3)
	for s := 0; s < corpus.Arity; s++ {
		for id := corpus.TokenID(0); id <= c.QMax(); id++ {
			setVector(c, s, id, 0, 1, 0)
		}
	}

	if z := CalcZ(c); z != 1 {
		t.Errorf("CalcZ = %.17g, want exactly 1", z)
	}
}

func TestCalcZSkipsAbsentTokens(t *testing.T) {
	// token 0 only on side 0, token 2 only on side 1
	c := build(t, []corpus.Tuple{{0, 1}, {1, 2}}, 2, 4)

	var want float64
	for _, x := range []corpus.TokenID{0, 1} {
		for _, y := range []corpus.TokenID{1, 2} {
			d := vector.SqDist(c.Vector(0, x), c.Vector(1, y))
			want += c.Frequency(0, x) * c.Frequency(1, y) * math.Exp(-d)
		}
	}

	if got := CalcZ(c); math.Abs(got-want) > 1e-12 {
		t.Errorf("CalcZ = %f, want %f", got, want)
	}
}

func TestCalcZBoundedByOne(t *testing.T) {
	// exp(-d) <= 1 and frequencies sum to one per side
	c := build(t, []corpus.Tuple{{0, 3}, {1, 3}, {2, 4}, {0, 4}, {0, 5}}, 5, 6)
	if z := CalcZ(c); z <= 0 || z > 1 {
		t.Errorf("CalcZ = %f, want in (0, 1]", z)
	}
}

func TestCalcZWithProgress(t *testing.T) {
	c := build(t, []corpus.Tuple{{0, 2500}}, 2500, 2)

	var seen []corpus.TokenID
	CalcZWithProgress(c, 1000, func(x corpus.TokenID) { seen = append(seen, x) })

	if len(seen) != 3 || seen[0] != 0 || seen[1] != 1000 || seen[2] != 2000 {
		t.Errorf("progress calls = %v, want [0 1000 2000]", seen)
	}
}

func TestLogLScenario(t *testing.T) {
	tuples := []corpus.Tuple{{0, 0}, {1, 1}, {0, 1}}
	c := build(t, tuples, 1, 5)
	z := train.DefaultParams().Z

	var want float64
	for _, tu := range tuples {
		px := c.Frequency(0, tu[0])
		py := c.Frequency(1, tu[1])
		want += math.Log(px*py) - vector.SqDist(c.Vector(0, tu[0]), c.Vector(1, tu[1]))
	}
	want = want/3 - math.Log(z)

	if got := LogL(c, z); math.Abs(got-want) > 1e-12 {
		t.Errorf("LogL = %f, want %f", got, want)
	}
}

func TestLogLImprovesWithTraining(t *testing.T) {
	r := rand.New(rand.NewPCG(21, 0))
	tuples := make([]corpus.Tuple, 400)
	for i := range tuples {
		// side-0 token k pairs with side-1 token 10+k, with a little noise
		k := r.IntN(10)
		y := 10 + k
		if r.IntN(10) == 0 {
			y = 10 + r.IntN(10)
		}
		tuples[i] = corpus.Tuple{corpus.TokenID(k), corpus.TokenID(y)}
	}
	c := build(t, tuples, 19, 8)
	p := train.DefaultParams()

	before := LogL(c, p.Z)
	tr := train.New(c, p, rand.New(rand.NewPCG(21, 1)))
	for i := 0; i < 10; i++ {
		tr.Pass()
	}
	after := LogL(c, p.Z)

	if !(after > before) {
		t.Errorf("LogL should improve with training: before %f, after %f", before, after)
	}
}
