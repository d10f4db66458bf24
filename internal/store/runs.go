package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kasparro/crypto-etl/internal/model"
)

// CreateRun records the start of an ETL run in the running state.
func (s *Store) CreateRun(ctx context.Context, source model.SourceName) (*model.Run, error) {
	run := &model.Run{
		RunID:      uuid.New(),
		SourceName: source,
		Status:     model.RunRunning,
	}

	err := s.db.QueryRow(ctx,
		`INSERT INTO etl_runs (run_id, source_name, status)
		 VALUES ($1, $2, $3)
		 RETURNING started_at`,
		run.RunID, string(source), string(model.RunRunning),
	).Scan(&run.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("create run for %s: %w", source, err)
	}
	return run, nil
}

// FinishRun transitions a running run to a terminal state. The status
// guard makes the transition happen at most once; a second call is an
// error.
func (s *Store) FinishRun(ctx context.Context, runID uuid.UUID, status model.RunStatus, recordsProcessed int, errorMessage *string, metadata json.RawMessage) error {
	if status != model.RunSuccess && status != model.RunFailure {
		return fmt.Errorf("status %q is not terminal", status)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE etl_runs
		 SET status = $2, records_processed = $3, error_message = $4, metadata = $5, ended_at = now()
		 WHERE run_id = $1 AND status = $6`,
		runID, string(status), recordsProcessed, errorMessage, metadata, string(model.RunRunning),
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", runID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s is not running", runID)
	}
	return nil
}

// RunFilter narrows ListRuns results. Zero values mean no constraint.
type RunFilter struct {
	Source model.SourceName
	Status model.RunStatus
	Limit  int
	Offset int
}

// ListRuns returns run history, most recent first.
func (s *Store) ListRuns(ctx context.Context, f RunFilter) ([]model.Run, error) {
	var (
		where string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Source != "" {
		where += " AND source_name = " + arg(string(f.Source))
	}
	if f.Status != "" {
		where += " AND status = " + arg(string(f.Status))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	sql := `SELECT run_id, source_name, status, records_processed, error_message, metadata, started_at, ended_at
		FROM etl_runs
		WHERE true` + where + `
		ORDER BY started_at DESC, run_id
		LIMIT ` + arg(limit) + ` OFFSET ` + arg(f.Offset)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []model.Run
	for rows.Next() {
		var (
			r      model.Run
			source string
			status string
		)
		if err := rows.Scan(&r.RunID, &source, &status, &r.RecordsProcessed, &r.ErrorMessage, &r.Metadata, &r.StartedAt, &r.EndedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.SourceName = model.SourceName(source)
		r.Status = model.RunStatus(status)
		out = append(out, r)
	}
	return out, rows.Err()
}
