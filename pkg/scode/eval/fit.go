package eval

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cognicore/scode/pkg/scode/corpus"
	"github.com/cognicore/scode/pkg/scode/pmi"
	"github.com/cognicore/scode/pkg/scode/vector"
)

// Fit compares the empirical PMI of each distinct tuple with the PMI the
// model implies, -d² - log z.
type Fit struct {
	Pairs       int     // distinct tuples compared
	Correlation float64 // weighted Pearson correlation, NaN when undefined
	RMSE        float64 // weighted root mean squared difference
	MeanNPMI    float64 // weighted mean empirical NPMI, NaN for no pairs
}

// PMIFit computes Fit over the distinct tuples of c, weighting every tuple
// by its multiplicity. eps is the PMI smoothing constant.
func PMIFit(c *corpus.Corpus, z, eps float64) Fit {
	counter := pmi.FromCorpus(c)
	calc := pmi.NewCalculator(eps)
	logZ := math.Log(z)

	pairs := counter.Pairs()
	empirical := make([]float64, len(pairs))
	model := make([]float64, len(pairs))
	weights := make([]float64, len(pairs))
	sqerr := make([]float64, len(pairs))
	npmi := make([]float64, len(pairs))

	for i, p := range pairs {
		x, y := p.Tuple[0], p.Tuple[1]
		empirical[i] = calc.TuplePMI(counter, x, y)
		model[i] = -vector.SqDist(c.Vector(0, x), c.Vector(1, y)) - logZ
		weights[i] = float64(p.Count)
		d := empirical[i] - model[i]
		sqerr[i] = d * d
		npmi[i] = calc.TupleNPMI(counter, x, y)
	}

	fit := Fit{Pairs: len(pairs), Correlation: math.NaN(), MeanNPMI: math.NaN()}
	if len(pairs) > 1 {
		fit.Correlation = stat.Correlation(empirical, model, weights)
	}
	if len(pairs) > 0 {
		fit.RMSE = math.Sqrt(stat.Mean(sqerr, weights))
		fit.MeanNPMI = stat.Mean(npmi, weights)
	}
	return fit
}
