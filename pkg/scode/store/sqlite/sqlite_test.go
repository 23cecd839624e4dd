package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/cognicore/scode/pkg/scode/internalerr"
	"github.com/cognicore/scode/pkg/scode/store"
)

func openTemp(t *testing.T) store.Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// TestSchemaCreationIdempotent tests that running initSchema multiple times is safe
func TestSchemaCreationIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open database: %v", err)
	}
	defer db.Close()

	for i := 0; i < 3; i++ {
		if err := initSchema(ctx, db); err != nil {
			t.Fatalf("initSchema iteration %d: %v", i, err)
		}
	}

	var count int
	err = db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&count)
	if err != nil {
		t.Fatalf("Count tables: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 tables, got %d", count)
	}
}

func TestSQLiteRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	started := time.Date(2026, 10, 19, 8, 30, 0, 123456789, time.UTC)
	run := store.Run{
		ID:          "01HRUN",
		StartedAt:   started,
		Input:       "pairs.txt",
		Dim:         25,
		Passes:      50,
		Phi0:        100,
		Nu0:         0.1,
		Z:           0.154,
		Seed:        math.MaxUint64,
		Tuples:      1000,
		Tokens:      120,
		InitialLogL: -4.5,
		InitialZ:    0.21,
	}
	if err := st.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	got, found, err := st.GetRun(ctx, run.ID)
	if err != nil || !found {
		t.Fatalf("GetRun: found=%v err=%v", found, err)
	}
	if !got.StartedAt.Equal(started) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, started)
	}
	if !got.FinishedAt.IsZero() {
		t.Error("Unfinished run should have zero FinishedAt")
	}
	if got.Seed != math.MaxUint64 {
		t.Errorf("Seed = %d, want max uint64", got.Seed)
	}
	if got.Dim != 25 || got.Tuples != 1000 || got.Z != 0.154 || got.InitialLogL != -4.5 || got.InitialZ != 0.21 {
		t.Errorf("Round trip mismatch: %+v", got)
	}
	if !math.IsNaN(got.Result.ExactZ) {
		t.Errorf("Exact Z of an unfinished run should be NaN, got %f", got.Result.ExactZ)
	}

	res := store.RunResult{ExactZ: 0.16, FinalLogL: -2.1, PMICorrelation: math.NaN(), PMIRMSE: 0.4, MeanNPMI: 0.35}
	if err := st.FinishRun(ctx, run.ID, res, started.Add(time.Hour)); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	got, _, err = st.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Result.ExactZ != 0.16 || got.Result.FinalLogL != -2.1 || got.Result.PMIRMSE != 0.4 || got.Result.MeanNPMI != 0.35 {
		t.Errorf("Result mismatch: %+v", got.Result)
	}
	if !math.IsNaN(got.Result.PMICorrelation) {
		t.Errorf("NaN correlation should survive as NaN, got %f", got.Result.PMICorrelation)
	}
	if !got.FinishedAt.Equal(started.Add(time.Hour)) {
		t.Errorf("FinishedAt = %v", got.FinishedAt)
	}
}

func TestSQLitePasses(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	if err := st.CreateRun(ctx, store.Run{ID: "r1", StartedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	for _, p := range []int{2, 0, 1} {
		rec := store.PassRecord{RunID: "r1", Pass: p, MaxMove: 0.1 * float64(p+1), LogL: -float64(p)}
		if err := st.AppendPass(ctx, rec); err != nil {
			t.Fatalf("AppendPass %d: %v", p, err)
		}
	}
	// re-reporting a pass replaces it
	st.AppendPass(ctx, store.PassRecord{RunID: "r1", Pass: 1, MaxMove: 9, Degenerate: 2})

	passes, err := st.ListPasses(ctx, "r1")
	if err != nil {
		t.Fatalf("ListPasses: %v", err)
	}
	if len(passes) != 3 {
		t.Fatalf("Expected 3 passes, got %d", len(passes))
	}
	for i, p := range passes {
		if p.Pass != i {
			t.Errorf("passes[%d].Pass = %d", i, p.Pass)
		}
	}
	if passes[1].MaxMove != 9 || passes[1].Degenerate != 2 {
		t.Errorf("Pass 1 should be replaced, got %+v", passes[1])
	}
}

func TestSQLiteUnknownRun(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	if _, found, err := st.GetRun(ctx, "nope"); found || err != nil {
		t.Errorf("GetRun unknown: found=%v err=%v", found, err)
	}
	if err := st.AppendPass(ctx, store.PassRecord{RunID: "nope"}); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if err := st.FinishRun(ctx, "nope", store.RunResult{}, time.Now()); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteDuplicateRun(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	run := store.Run{ID: "01HDUP", StartedAt: time.Now(), InitialLogL: -3}
	if err := st.CreateRun(ctx, run); err != nil {
		t.Fatal(err)
	}
	run.InitialLogL = -9
	if err := st.CreateRun(ctx, run); !errors.Is(err, internalerr.ErrDuplicate) {
		t.Errorf("Expected ErrDuplicate, got %v", err)
	}
	got, _, err := st.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.InitialLogL != -3 {
		t.Errorf("Duplicate insert should leave the first run intact, got %+v", got)
	}
}

func TestSQLiteListRunsAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")
	ids := store.NewIDGenerator()

	st, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatal(err)
	}
	var last string
	for i := 0; i < 4; i++ {
		last = ids.New()
		if err := st.CreateRun(ctx, store.Run{ID: last, StartedAt: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}
	st.Close()

	st2, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	defer st2.Close()

	runs, err := st2.ListRuns(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != last {
		t.Errorf("Newest run should come first: got %s, want %s", runs[0].ID, last)
	}
}
