package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cognicore/scode/pkg/scode/internalerr"
	"github.com/cognicore/scode/pkg/scode/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu     sync.RWMutex
	runs   map[string]store.Run
	passes map[string][]store.PassRecord
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		runs:   make(map[string]store.Run),
		passes: make(map[string][]store.PassRecord),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// CreateRun registers a run. Creating an existing ID is an error.
func (s *Store) CreateRun(ctx context.Context, r store.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == "" {
		return fmt.Errorf("run without id: %w", internalerr.ErrInvalidInput)
	}
	if _, ok := s.runs[r.ID]; ok {
		return fmt.Errorf("run %s already exists: %w", r.ID, internalerr.ErrDuplicate)
	}
	s.runs[r.ID] = r
	return nil
}

// FinishRun stores the end-of-run diagnostics.
func (s *Store) FinishRun(ctx context.Context, id string, res store.RunResult, finishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.runs[id]
	if !ok {
		return fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	r.Result = res
	r.FinishedAt = finishedAt
	s.runs[id] = r
	return nil
}

// GetRun returns a run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.runs[id]
	return r, ok, nil
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	out := make([]store.Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AppendPass records one pass of a known run.
func (s *Store) AppendPass(ctx context.Context, p store.PassRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[p.RunID]; !ok {
		return fmt.Errorf("run %s: %w", p.RunID, internalerr.ErrNotFound)
	}
	s.passes[p.RunID] = append(s.passes[p.RunID], p)
	return nil
}

// ListPasses returns the passes of a run ordered by pass index.
func (s *Store) ListPasses(ctx context.Context, runID string) ([]store.PassRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]store.PassRecord, len(s.passes[runID]))
	copy(out, s.passes[runID])
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Pass < out[j].Pass
	})
	return out, nil
}
