package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/scode/pkg/scode/internalerr"
	"github.com/cognicore/scode/pkg/scode/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	started_at TEXT NOT NULL,
	finished_at TEXT,
	input TEXT,
	dim INTEGER NOT NULL,
	passes INTEGER NOT NULL,
	phi0 REAL NOT NULL,
	nu0 REAL NOT NULL,
	z REAL NOT NULL,
	seed INTEGER NOT NULL,
	tuples INTEGER NOT NULL,
	tokens INTEGER NOT NULL,
	initial_logl REAL,
	initial_z REAL,
	exact_z REAL,
	final_logl REAL,
	pmi_correlation REAL,
	pmi_rmse REAL,
	mean_npmi REAL
);

CREATE TABLE IF NOT EXISTS passes (
	run_id TEXT NOT NULL,
	pass INTEGER NOT NULL,
	max_move REAL,
	logl REAL,
	degenerate INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY(run_id, pass),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// CreateRun inserts a new run
func (s *sqliteStore) CreateRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("run without id: %w", internalerr.ErrInvalidInput)
	}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, r.ID).Scan(&exists)
	if err == nil {
		return fmt.Errorf("run %s already exists: %w", r.ID, internalerr.ErrDuplicate)
	}
	if err != sql.ErrNoRows {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO runs (id, started_at, input, dim, passes, phi0, nu0, z, seed, tuples, tokens, initial_logl, initial_z)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`,
		r.ID,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
		r.Input,
		r.Dim,
		r.Passes,
		r.Phi0,
		r.Nu0,
		r.Z,
		int64(r.Seed),
		r.Tuples,
		r.Tokens,
		nullable(r.InitialLogL),
		nullable(r.InitialZ),
	)
	return err
}

// FinishRun records the final diagnostics of a run
func (s *sqliteStore) FinishRun(ctx context.Context, id string, res store.RunResult, finishedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
UPDATE runs
SET finished_at = ?, exact_z = ?, final_logl = ?, pmi_correlation = ?, pmi_rmse = ?, mean_npmi = ?
WHERE id = ?;
`,
		finishedAt.UTC().Format(time.RFC3339Nano),
		nullable(res.ExactZ),
		nullable(res.FinalLogL),
		nullable(res.PMICorrelation),
		nullable(res.PMIRMSE),
		nullable(res.MeanNPMI),
		id,
	)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return nil
}

const runColumns = `id, started_at, finished_at, input, dim, passes, phi0, nu0, z, seed,
	tuples, tokens, initial_logl, initial_z, exact_z, final_logl, pmi_correlation, pmi_rmse, mean_npmi`

// GetRun retrieves a run by ID
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if err == sql.ErrNoRows {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}
	return r, true, nil
}

// ListRuns returns the most recent runs first
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// AppendPass inserts the report of one pass
func (s *sqliteStore) AppendPass(ctx context.Context, p store.PassRecord) error {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, p.RunID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("run %s: %w", p.RunID, internalerr.ErrNotFound)
	}
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO passes (run_id, pass, max_move, logl, degenerate)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(run_id, pass) DO UPDATE SET
	max_move=excluded.max_move,
	logl=excluded.logl,
	degenerate=excluded.degenerate;
`, p.RunID, p.Pass, nullable(p.MaxMove), nullable(p.LogL), p.Degenerate)
	return err
}

// ListPasses returns the passes of a run in order
func (s *sqliteStore) ListPasses(ctx context.Context, runID string) ([]store.PassRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, pass, max_move, logl, degenerate
FROM passes
WHERE run_id = ?
ORDER BY pass ASC;
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passes []store.PassRecord
	for rows.Next() {
		var p store.PassRecord
		var maxMove, logL sql.NullFloat64
		if err := rows.Scan(&p.RunID, &p.Pass, &maxMove, &logL, &p.Degenerate); err != nil {
			return nil, err
		}
		p.MaxMove = fromNullable(maxMove)
		p.LogL = fromNullable(logL)
		passes = append(passes, p)
	}
	return passes, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (store.Run, error) {
	var (
		r                                              store.Run
		started                                        string
		finished, input                                sql.NullString
		seed                                           int64
		initial, initialZ, exactZ, final, pc, pr, npmi sql.NullFloat64
	)
	err := sc.Scan(
		&r.ID, &started, &finished, &input,
		&r.Dim, &r.Passes, &r.Phi0, &r.Nu0, &r.Z, &seed,
		&r.Tuples, &r.Tokens,
		&initial, &initialZ, &exactZ, &final, &pc, &pr, &npmi,
	)
	if err != nil {
		return store.Run{}, err
	}

	if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return store.Run{}, err
	}
	if finished.Valid {
		if r.FinishedAt, err = time.Parse(time.RFC3339Nano, finished.String); err != nil {
			return store.Run{}, err
		}
	}
	r.Input = input.String
	r.Seed = uint64(seed)
	r.InitialLogL = fromNullable(initial)
	r.InitialZ = fromNullable(initialZ)
	r.Result = store.RunResult{
		ExactZ:         fromNullable(exactZ),
		FinalLogL:      fromNullable(final),
		PMICorrelation: fromNullable(pc),
		PMIRMSE:        fromNullable(pr),
		MeanNPMI:       fromNullable(npmi),
	}
	return r, nil
}

// nullable maps NaN and infinities to NULL; SQLite cannot hold them.
func nullable(f float64) sql.NullFloat64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func fromNullable(n sql.NullFloat64) float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Float64
}
