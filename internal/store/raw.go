package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/kasparro/crypto-etl/internal/model"
)

// rawTableFor maps a source to its archive table. Table names are never
// interpolated from user input; this whitelist is the only path into the
// SQL text.
func rawTableFor(source model.SourceName) (string, error) {
	switch source {
	case model.SourceCoinGecko:
		return "raw_coingecko", nil
	case model.SourceCoinPaprika:
		return "raw_coinpaprika", nil
	case model.SourceCSV:
		return "raw_csv", nil
	}
	return "", fmt.Errorf("unknown source %q", source)
}

// InsertRawRecords archives a batch of provider payloads. Raw tables are
// append-only; duplicate ids fail the batch.
func (s *Store) InsertRawRecords(ctx context.Context, source model.SourceName, records []model.RawRecord) error {
	if len(records) == 0 {
		return nil
	}
	table, err := rawTableFor(source)
	if err != nil {
		return err
	}

	sql := fmt.Sprintf(
		`INSERT INTO %s (id, payload, source_updated_at) VALUES ($1, $2, $3)`,
		table,
	)

	batch := &pgx.Batch{}
	for _, r := range records {
		id := r.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		batch.Queue(sql, id, r.Payload, r.SourceUpdatedAt)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("insert raw record %d into %s: %w", i, table, err)
		}
	}
	return nil
}

// ListRawRecords returns archived payloads for a source, newest first.
func (s *Store) ListRawRecords(ctx context.Context, source model.SourceName, limit, offset int) ([]model.RawRecord, error) {
	table, err := rawTableFor(source)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}

	sql := fmt.Sprintf(
		`SELECT id, payload, source_updated_at, ingested_at
		 FROM %s
		 ORDER BY ingested_at DESC, id
		 LIMIT $1 OFFSET $2`,
		table,
	)

	rows, err := s.db.Query(ctx, sql, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var out []model.RawRecord
	for rows.Next() {
		var r model.RawRecord
		if err := rows.Scan(&r.ID, &r.Payload, &r.SourceUpdatedAt, &r.IngestedAt); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetRawRecord fetches one archived payload by id. Returns (nil, nil)
// when absent.
func (s *Store) GetRawRecord(ctx context.Context, source model.SourceName, id uuid.UUID) (*model.RawRecord, error) {
	table, err := rawTableFor(source)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf(
		`SELECT id, payload, source_updated_at, ingested_at FROM %s WHERE id = $1`,
		table,
	)

	var r model.RawRecord
	err = s.db.QueryRow(ctx, sql, id).Scan(&r.ID, &r.Payload, &r.SourceUpdatedAt, &r.IngestedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get raw record from %s: %w", table, err)
	}
	return &r, nil
}

// CountRawRecords returns the archive size for a source.
func (s *Store) CountRawRecords(ctx context.Context, source model.SourceName) (int64, error) {
	table, err := rawTableFor(source)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := s.db.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}
