package store

import (
	"context"
	"time"
)

// Store persists the diagnostic history of training runs. Embeddings are
// never stored, only the numbers reported while producing them.
type Store interface {
	Close() error

	// Runs
	CreateRun(ctx context.Context, r Run) error
	FinishRun(ctx context.Context, id string, res RunResult, finishedAt time.Time) error
	GetRun(ctx context.Context, id string) (Run, bool, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Passes
	AppendPass(ctx context.Context, p PassRecord) error
	ListPasses(ctx context.Context, runID string) ([]PassRecord, error)
}

// Run describes one training run.
type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  time.Time // zero while running
	Input       string
	Dim         int
	Passes      int
	Phi0        float64
	Nu0         float64
	Z           float64
	Seed        uint64
	Tuples      int
	Tokens      int // distinct strings across both sides
	InitialLogL float64
	InitialZ    float64 // NaN unless computed before training
	Result      RunResult
}

// RunResult holds the end-of-run diagnostics.
type RunResult struct {
	ExactZ         float64
	FinalLogL      float64
	PMICorrelation float64
	PMIRMSE        float64
	MeanNPMI       float64 // empirical association strength of the input
}

// PassRecord is the report of one training pass.
type PassRecord struct {
	RunID      string
	Pass       int
	MaxMove    float64
	LogL       float64
	Degenerate int
}
