package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hazyhaar/quantself/dbopen"
	"github.com/hazyhaar/quantself/epoch"
)

// RunStatus is the lifecycle state of an extraction run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// ErrRunNotFound is returned when a run id or source has no ledger row.
var ErrRunNotFound = errors.New("store: run not found")

// Run is one row of the extraction_runs ledger.
type Run struct {
	ID             string        `json:"id"`
	Source         string        `json:"source"`
	SourcePath     string        `json:"source_path,omitempty"`
	StartedAt      int64         `json:"started_at"`
	CompletedAt    sql.NullInt64 `json:"-"`
	Status         RunStatus     `json:"status"`
	RecordsAdded   int64         `json:"records_added"`
	RecordsSkipped int64         `json:"records_skipped"`
	ErrorMessage   string        `json:"error_message,omitempty"`
}

// StartRun inserts a run in the running state.
func (s *Store) StartRun(ctx context.Context, id, source, sourcePath string) (*Run, error) {
	run := &Run{
		ID:         id,
		Source:     source,
		SourcePath: sourcePath,
		StartedAt:  epoch.Now(),
		Status:     RunRunning,
	}
	_, err := dbopen.Exec(ctx, s.DB,
		`INSERT INTO extraction_runs (id, started_at, source, source_path, status)
		VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.Source, run.SourcePath, string(run.Status))
	if err != nil {
		return nil, fmt.Errorf("%w: start run: %w", ErrStorage, err)
	}
	return run, nil
}

// FinishRun moves a running run to its terminal state. A run that is no
// longer running is left untouched and ErrRunNotFound is returned.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus, added, skipped int64, errMsg string) error {
	if status == RunFailed {
		added, skipped = 0, 0
	}
	res, err := dbopen.Exec(ctx, s.DB,
		`UPDATE extraction_runs
		SET completed_at = ?, status = ?, records_added = ?, records_skipped = ?, error_message = ?
		WHERE id = ? AND status = ?`,
		epoch.Now(), string(status), added, skipped, errMsg, id, string(RunRunning))
	if err != nil {
		return fmt.Errorf("%w: finish run: %w", ErrStorage, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

// GetRun returns the run with the given id.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, source, source_path, started_at, completed_at, status,
		records_added, records_skipped, error_message
		FROM extraction_runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	return r, err
}

// ListRuns returns runs newest first, optionally filtered by source.
func (s *Store) ListRuns(ctx context.Context, source string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, source, source_path, started_at, completed_at, status,
		records_added, records_skipped, error_message
		FROM extraction_runs WHERE (? = '' OR source = ?)
		ORDER BY started_at DESC, id DESC LIMIT ?`, source, source, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// LastCompleted returns the completion time of the latest successful run
// for source, or an invalid NullInt64 if there is none.
func (s *Store) LastCompleted(ctx context.Context, source string) (sql.NullInt64, error) {
	var ts sql.NullInt64
	err := s.DB.QueryRowContext(ctx,
		`SELECT MAX(completed_at) FROM extraction_runs
		WHERE source = ? AND status = ?`, source, string(RunCompleted)).Scan(&ts)
	return ts, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var r Run
	if err := sc.Scan(&r.ID, &r.Source, &r.SourcePath, &r.StartedAt, &r.CompletedAt,
		&r.Status, &r.RecordsAdded, &r.RecordsSkipped, &r.ErrorMessage); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return &r, nil
}
