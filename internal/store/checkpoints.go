package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kasparro/crypto-etl/internal/model"
)

// GetCheckpoint returns the high-water mark for a source. The second
// return is false when the source has never completed a run.
func (s *Store) GetCheckpoint(ctx context.Context, source model.SourceName) (time.Time, bool, error) {
	var last time.Time
	err := s.db.QueryRow(ctx,
		"SELECT last_updated_at FROM etl_checkpoints WHERE source_name = $1",
		string(source),
	).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("get checkpoint %s: %w", source, err)
	}
	return last, true, nil
}

// AdvanceCheckpoint moves a source's high-water mark forward. GREATEST
// keeps the stored value monotonic even if a caller passes a stale
// timestamp.
func (s *Store) AdvanceCheckpoint(ctx context.Context, source model.SourceName, to time.Time) error {
	const sql = `
		INSERT INTO etl_checkpoints (source_name, last_updated_at, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (source_name) DO UPDATE SET
			last_updated_at = GREATEST(etl_checkpoints.last_updated_at, EXCLUDED.last_updated_at),
			updated_at = now()`

	if _, err := s.db.Exec(ctx, sql, string(source), to); err != nil {
		return fmt.Errorf("advance checkpoint %s: %w", source, err)
	}
	return nil
}

// ListCheckpoints returns all checkpoints ordered by source name.
func (s *Store) ListCheckpoints(ctx context.Context) ([]model.Checkpoint, error) {
	rows, err := s.db.Query(ctx,
		"SELECT source_name, last_updated_at, updated_at FROM etl_checkpoints ORDER BY source_name",
	)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []model.Checkpoint
	for rows.Next() {
		var (
			c    model.Checkpoint
			name string
		)
		if err := rows.Scan(&name, &c.LastUpdatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan checkpoint: %w", err)
		}
		c.SourceName = model.SourceName(name)
		out = append(out, c)
	}
	return out, rows.Err()
}
