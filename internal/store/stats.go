package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kasparro/crypto-etl/internal/model"
)

// Stats is a point-in-time summary of table sizes and run outcomes.
type Stats struct {
	RawCounts         map[model.SourceName]int64     `json:"raw_counts"`
	AssetCount        int64                          `json:"asset_count"`
	MappingCount      int64                          `json:"mapping_count"`
	RunCounts         map[model.RunStatus]int64      `json:"run_counts"`
	LastSuccessfulRun map[model.SourceName]time.Time `json:"last_successful_run"`
}

// Stats gathers counts across the schema for the stats endpoint.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		RawCounts:         make(map[model.SourceName]int64),
		RunCounts:         make(map[model.RunStatus]int64),
		LastSuccessfulRun: make(map[model.SourceName]time.Time),
	}

	for _, source := range model.AllSources() {
		n, err := s.CountRawRecords(ctx, source)
		if err != nil {
			return nil, err
		}
		stats.RawCounts[source] = n
	}

	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM normalized_crypto_assets`).Scan(&stats.AssetCount); err != nil {
		return nil, fmt.Errorf("count assets: %w", err)
	}
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM asset_mappings`).Scan(&stats.MappingCount); err != nil {
		return nil, fmt.Errorf("count mappings: %w", err)
	}

	rows, err := s.db.Query(ctx, `SELECT status, count(*) FROM etl_runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan run count: %w", err)
		}
		stats.RunCounts[model.RunStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lastRows, err := s.db.Query(ctx,
		`SELECT source_name, max(ended_at) FROM etl_runs WHERE status = $1 GROUP BY source_name`,
		string(model.RunSuccess),
	)
	if err != nil {
		return nil, fmt.Errorf("last successful runs: %w", err)
	}
	defer lastRows.Close()
	for lastRows.Next() {
		var (
			source string
			ended  *time.Time
		)
		if err := lastRows.Scan(&source, &ended); err != nil {
			return nil, fmt.Errorf("scan last run: %w", err)
		}
		if ended != nil {
			stats.LastSuccessfulRun[model.SourceName(source)] = *ended
		}
	}
	return stats, lastRows.Err()
}
