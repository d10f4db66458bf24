package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/kasparro/crypto-etl/internal/model"
)

const mappingColumns = `asset_uid, coingecko_id, coinpaprika_id, symbol, name, created_at, updated_at`

// providerIDColumn maps an API source to its id column on asset_mappings.
func providerIDColumn(source model.SourceName) (string, error) {
	switch source {
	case model.SourceCoinGecko:
		return "coingecko_id", nil
	case model.SourceCoinPaprika:
		return "coinpaprika_id", nil
	}
	return "", fmt.Errorf("source %q has no provider id column", source)
}

// MappingByProviderID looks up a mapping by provider id. Returns
// (nil, nil) when no mapping carries the id.
func (s *Store) MappingByProviderID(ctx context.Context, source model.SourceName, providerID string) (*model.AssetMapping, error) {
	column, err := providerIDColumn(source)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("SELECT %s FROM asset_mappings WHERE %s = $1", mappingColumns, column)

	var m model.AssetMapping
	err = s.db.QueryRow(ctx, sql, providerID).Scan(
		&m.AssetUID, &m.CoinGeckoID, &m.CoinPaprikaID, &m.Symbol, &m.Name, &m.CreatedAt, &m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("mapping by %s: %w", column, err)
	}
	return &m, nil
}

// MappingsBySymbol returns all mappings for a symbol in creation order,
// so ambiguous symbol matches resolve the same way on every run.
func (s *Store) MappingsBySymbol(ctx context.Context, symbol string) ([]model.AssetMapping, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+mappingColumns+" FROM asset_mappings WHERE symbol = $1 ORDER BY created_at, asset_uid",
		symbol,
	)
	if err != nil {
		return nil, fmt.Errorf("mappings by symbol: %w", err)
	}
	defer rows.Close()

	var out []model.AssetMapping
	for rows.Next() {
		var m model.AssetMapping
		if err := rows.Scan(&m.AssetUID, &m.CoinGeckoID, &m.CoinPaprikaID, &m.Symbol, &m.Name, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateMapping inserts a mapping. On asset_uid conflict missing provider
// ids are filled in and populated ones kept.
func (s *Store) CreateMapping(ctx context.Context, m model.AssetMapping) error {
	const sql = `
		INSERT INTO asset_mappings (asset_uid, coingecko_id, coinpaprika_id, symbol, name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (asset_uid) DO UPDATE SET
			coingecko_id = COALESCE(asset_mappings.coingecko_id, EXCLUDED.coingecko_id),
			coinpaprika_id = COALESCE(asset_mappings.coinpaprika_id, EXCLUDED.coinpaprika_id),
			updated_at = now()`

	if _, err := s.db.Exec(ctx, sql, m.AssetUID, m.CoinGeckoID, m.CoinPaprikaID, m.Symbol, m.Name); err != nil {
		return fmt.Errorf("create mapping %s: %w", m.AssetUID, err)
	}
	return nil
}

// FillProviderID back-fills a provider id onto an existing mapping. The
// IS NULL guard keeps populated ids untouched.
func (s *Store) FillProviderID(ctx context.Context, assetUID string, source model.SourceName, providerID string) error {
	column, err := providerIDColumn(source)
	if err != nil {
		return err
	}

	sql := fmt.Sprintf(
		"UPDATE asset_mappings SET %s = $2, updated_at = now() WHERE asset_uid = $1 AND %s IS NULL",
		column, column,
	)
	if _, err := s.db.Exec(ctx, sql, assetUID, providerID); err != nil {
		return fmt.Errorf("fill %s on %s: %w", column, assetUID, err)
	}
	return nil
}

// UpsertMappings bulk-writes bootstrap results, overwriting provider ids
// and display fields so a re-run refreshes the table.
func (s *Store) UpsertMappings(ctx context.Context, mappings []model.AssetMapping) error {
	if len(mappings) == 0 {
		return nil
	}

	const sql = `
		INSERT INTO asset_mappings (asset_uid, coingecko_id, coinpaprika_id, symbol, name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (asset_uid) DO UPDATE SET
			coingecko_id = EXCLUDED.coingecko_id,
			coinpaprika_id = EXCLUDED.coinpaprika_id,
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			updated_at = now()`

	batch := &pgx.Batch{}
	for _, m := range mappings {
		batch.Queue(sql, m.AssetUID, m.CoinGeckoID, m.CoinPaprikaID, m.Symbol, m.Name)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := range mappings {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert mapping %s: %w", mappings[i].AssetUID, err)
		}
	}
	return nil
}

// SeedMappings inserts fallback mappings, skipping any row that
// conflicts with existing data.
func (s *Store) SeedMappings(ctx context.Context, mappings []model.AssetMapping) error {
	const sql = `
		INSERT INTO asset_mappings (asset_uid, coingecko_id, coinpaprika_id, symbol, name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING`

	batch := &pgx.Batch{}
	for _, m := range mappings {
		batch.Queue(sql, m.AssetUID, m.CoinGeckoID, m.CoinPaprikaID, m.Symbol, m.Name)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := range mappings {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("seed mapping %s: %w", mappings[i].AssetUID, err)
		}
	}
	return nil
}

// ListMappings returns the identity table ordered by symbol.
func (s *Store) ListMappings(ctx context.Context, limit, offset int) ([]model.AssetMapping, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx,
		"SELECT "+mappingColumns+" FROM asset_mappings ORDER BY symbol, asset_uid LIMIT $1 OFFSET $2",
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list mappings: %w", err)
	}
	defer rows.Close()

	var out []model.AssetMapping
	for rows.Next() {
		var m model.AssetMapping
		if err := rows.Scan(&m.AssetUID, &m.CoinGeckoID, &m.CoinPaprikaID, &m.Symbol, &m.Name, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
