// Package scode learns embeddings for the two vocabularies of an observed
// pair stream and reports how well they fit it.
package scode

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"time"

	"github.com/cognicore/scode/pkg/scode/config"
	"github.com/cognicore/scode/pkg/scode/corpus"
	"github.com/cognicore/scode/pkg/scode/eval"
	"github.com/cognicore/scode/pkg/scode/ingest"
	"github.com/cognicore/scode/pkg/scode/internalerr"
	"github.com/cognicore/scode/pkg/scode/store"
	"github.com/cognicore/scode/pkg/scode/store/memstore"
	"github.com/cognicore/scode/pkg/scode/train"
)

// seedStream is the second PCG word; only Config.Seed is user-visible.
const seedStream = 0x5c0de

// Engine runs training jobs and records their diagnostics.
type Engine struct {
	cfg       config.Config
	store     store.Store
	ids       *store.IDGenerator
	progress  func(Progress)
	zProgress func(x corpus.TokenID)
	zEvery    int
	initialZ  bool
	now       func() time.Time
}

// Options configures an Engine
type Options struct {
	Config config.Config
	Store  store.Store // defaults to an in-memory store

	// Progress, if non-nil, receives the initial evaluation and one report
	// per training pass.
	Progress func(Progress)

	// ZProgress, if non-nil, is called every ZEvery side-0 IDs while the
	// exact partition function is computed.
	ZProgress func(x corpus.TokenID)
	ZEvery    int

	// InitialZ also computes the exact partition function before training.
	InitialZ bool

	Now func() time.Time
}

// Progress is one line of training progress.
type Progress struct {
	Initial    bool // evaluation before the first pass
	Pass       int  // 0-based pass index
	Passes     int
	Tuples     int
	Tokens     int
	MaxMove    float64
	LogL       float64
	Degenerate int
}

// Result is the outcome of a run. It keeps the trained corpus so callers
// can query neighbours; nothing of it is persisted except diagnostics.
type Result struct {
	RunID       string
	Tuples      int
	Tokens      int
	InitialLogL float64
	InitialZ    float64 // NaN unless Options.InitialZ
	Passes      []store.PassRecord
	FinalLogL   float64
	ExactZ      float64
	ApproxZ     float64
	Fit         eval.Fit

	Corpus   *corpus.Corpus
	Interner *ingest.Interner
}

// New creates an Engine with the given options
func New(opts Options) *Engine {
	st := opts.Store
	if st == nil {
		st = memstore.New()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	every := opts.ZEvery
	if every <= 0 {
		every = 1000
	}
	return &Engine{
		cfg:       opts.Config,
		store:     st,
		ids:       store.NewIDGenerator(),
		progress:  opts.Progress,
		zProgress: opts.ZProgress,
		zEvery:    every,
		initialZ:  opts.InitialZ,
		now:       now,
	}
}

// Close cleanly shuts down the engine's store
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the run-history store.
func (e *Engine) Store() store.Store {
	return e.store
}

// Run loads the pair stream from r, trains for the configured number of
// passes and evaluates the result. input names the source in the run record.
func (e *Engine) Run(ctx context.Context, r io.Reader, input string) (*Result, error) {
	cfg := e.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	src := rand.NewPCG(cfg.Seed, seedStream)
	in := ingest.NewInterner()
	c, err := corpus.Load(r, in, cfg.Dim, src)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}

	params := train.Params{Phi0: cfg.Phi0, Nu0: cfg.Nu0, Z: cfg.Z}
	res := &Result{
		RunID:    e.ids.New(),
		Tuples:   c.Len(),
		Tokens:   in.Len(),
		InitialZ: math.NaN(),
		ApproxZ:  cfg.Z,
		Corpus:   c,
		Interner: in,
	}

	res.InitialLogL = eval.LogL(c, cfg.Z)
	e.report(Progress{Initial: true, Passes: cfg.Passes, Tuples: res.Tuples, Tokens: res.Tokens, LogL: res.InitialLogL})
	if e.initialZ {
		res.InitialZ = e.calcZ(c)
	}

	err = e.store.CreateRun(ctx, store.Run{
		ID:          res.RunID,
		StartedAt:   e.now(),
		Input:       input,
		Dim:         cfg.Dim,
		Passes:      cfg.Passes,
		Phi0:        cfg.Phi0,
		Nu0:         cfg.Nu0,
		Z:           cfg.Z,
		Seed:        cfg.Seed,
		Tuples:      res.Tuples,
		Tokens:      res.Tokens,
		InitialLogL: res.InitialLogL,
		InitialZ:    res.InitialZ,
	})
	if err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}

	tr := train.New(c, params, rand.New(src))
	res.FinalLogL = res.InitialLogL
	for pass := 0; pass < cfg.Passes; pass++ {
		stats := tr.Pass()
		res.FinalLogL = eval.LogL(c, cfg.Z)

		rec := store.PassRecord{
			RunID:      res.RunID,
			Pass:       pass,
			MaxMove:    stats.MaxMove,
			LogL:       res.FinalLogL,
			Degenerate: stats.Degenerate,
		}
		if err := e.store.AppendPass(ctx, rec); err != nil {
			return nil, fmt.Errorf("record pass %d: %w", pass, err)
		}
		res.Passes = append(res.Passes, rec)

		e.report(Progress{
			Pass:       pass,
			Passes:     cfg.Passes,
			Tuples:     res.Tuples,
			Tokens:     res.Tokens,
			MaxMove:    stats.MaxMove,
			LogL:       res.FinalLogL,
			Degenerate: stats.Degenerate,
		})
	}

	res.ExactZ = e.calcZ(c)
	res.Fit = eval.PMIFit(c, cfg.Z, cfg.PMIEpsilon)

	err = e.store.FinishRun(ctx, res.RunID, store.RunResult{
		ExactZ:         res.ExactZ,
		FinalLogL:      res.FinalLogL,
		PMICorrelation: res.Fit.Correlation,
		PMIRMSE:        res.Fit.RMSE,
		MeanNPMI:       res.Fit.MeanNPMI,
	}, e.now())
	if err != nil {
		return nil, fmt.Errorf("finish run: %w", err)
	}
	return res, nil
}

func (e *Engine) calcZ(c *corpus.Corpus) float64 {
	return eval.CalcZWithProgress(c, e.zEvery, e.zProgress)
}

func (e *Engine) report(p Progress) {
	if e.progress != nil {
		e.progress(p)
	}
}

// NamedNeighbor is a side-1 token close to a probed side-0 token.
type NamedNeighbor struct {
	Token  string
	SqDist float64
}

// Neighbors returns the k side-1 tokens nearest to the side-0 token named
// token. It fails with internalerr.ErrNotFound if token never occurred on
// side 0.
func (r *Result) Neighbors(token string, k int) ([]NamedNeighbor, error) {
	id, ok := r.Interner.Lookup(token)
	if !ok || r.Corpus.Vector(0, corpus.TokenID(id)) == nil {
		return nil, fmt.Errorf("token %q on side 0: %w", token, internalerr.ErrNotFound)
	}

	near := eval.Nearest(r.Corpus, 0, corpus.TokenID(id), k)
	out := make([]NamedNeighbor, len(near))
	for i, n := range near {
		out[i] = NamedNeighbor{Token: r.Interner.Name(int(n.ID)), SqDist: n.SqDist}
	}
	return out, nil
}
