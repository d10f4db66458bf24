package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kasparro/crypto-etl/internal/model"
)

const assetColumns = `asset_uid, symbol, name, price_usd, market_cap_usd, rank, source,
	coingecko_id, coinpaprika_id, source_updated_at, ingested_at`

// UpsertAssets writes canonical assets. An existing row is only
// overwritten by strictly fresher data, so a lagging source cannot
// regress values another source already updated. Provider id columns
// are filled additively so a CSV update does not erase traceability
// established by an API source.
func (s *Store) UpsertAssets(ctx context.Context, assets []model.CanonicalAsset) error {
	if len(assets) == 0 {
		return nil
	}

	const sql = `
		INSERT INTO normalized_crypto_assets
			(asset_uid, symbol, name, price_usd, market_cap_usd, rank, source,
			 coingecko_id, coinpaprika_id, source_updated_at, ingested_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (asset_uid) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			price_usd = EXCLUDED.price_usd,
			market_cap_usd = EXCLUDED.market_cap_usd,
			rank = EXCLUDED.rank,
			source = EXCLUDED.source,
			coingecko_id = COALESCE(normalized_crypto_assets.coingecko_id, EXCLUDED.coingecko_id),
			coinpaprika_id = COALESCE(normalized_crypto_assets.coinpaprika_id, EXCLUDED.coinpaprika_id),
			source_updated_at = EXCLUDED.source_updated_at,
			ingested_at = now()
		WHERE EXCLUDED.source_updated_at > normalized_crypto_assets.source_updated_at`

	batch := &pgx.Batch{}
	for _, a := range assets {
		batch.Queue(sql,
			a.AssetUID, a.Symbol, a.Name, a.PriceUSD, a.MarketCapUSD, a.Rank,
			string(a.Source), a.CoinGeckoID, a.CoinPaprikaID, a.SourceUpdatedAt,
		)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for i := range assets {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upsert asset %s: %w", assets[i].AssetUID, err)
		}
	}
	return nil
}

// AssetFilter narrows and orders ListAssets results. Zero values mean
// no constraint.
type AssetFilter struct {
	Source   model.SourceName
	Symbol   string
	NameLike string
	MinRank  *int
	MaxRank  *int
	Sort     string
	Limit    int
	Offset   int
}

// assetSortColumns whitelists ORDER BY targets. Keys are the accepted
// sort names; a leading '-' in the filter reverses direction.
var assetSortColumns = map[string]string{
	"rank":              "rank",
	"symbol":            "symbol",
	"name":              "name",
	"price_usd":         "price_usd",
	"market_cap_usd":    "market_cap_usd",
	"source_updated_at": "source_updated_at",
}

// ValidSort reports whether sort names a whitelisted column, with an
// optional leading '-' for descending order.
func ValidSort(sort string) bool {
	if sort == "" {
		return true
	}
	_, ok := assetSortColumns[strings.TrimPrefix(sort, "-")]
	return ok
}

// buildAssetQuery renders the filter into SQL and positional args.
func buildAssetQuery(f AssetFilter) (string, []any, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Source != "" {
		if !f.Source.Valid() {
			return "", nil, fmt.Errorf("unknown source %q", f.Source)
		}
		where = append(where, "source = "+arg(string(f.Source)))
	}
	if f.Symbol != "" {
		where = append(where, "symbol = "+arg(strings.ToUpper(strings.TrimSpace(f.Symbol))))
	}
	if f.NameLike != "" {
		where = append(where, "name ILIKE "+arg("%"+f.NameLike+"%"))
	}
	if f.MinRank != nil {
		where = append(where, "rank >= "+arg(*f.MinRank))
	}
	if f.MaxRank != nil {
		where = append(where, "rank <= "+arg(*f.MaxRank))
	}

	sort := f.Sort
	dir := "ASC"
	if strings.HasPrefix(sort, "-") {
		sort = sort[1:]
		dir = "DESC"
	}
	if sort == "" {
		sort = "rank"
	}
	column, ok := assetSortColumns[sort]
	if !ok {
		return "", nil, fmt.Errorf("unknown sort %q", f.Sort)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	var b strings.Builder
	b.WriteString("SELECT " + assetColumns + " FROM normalized_crypto_assets")
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY %s %s NULLS LAST, asset_uid", column, dir)
	b.WriteString(" LIMIT " + arg(limit))
	b.WriteString(" OFFSET " + arg(f.Offset))

	return b.String(), args, nil
}

// ListAssets returns canonical assets matching the filter.
func (s *Store) ListAssets(ctx context.Context, f AssetFilter) ([]model.CanonicalAsset, error) {
	sql, args, err := buildAssetQuery(f)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []model.CanonicalAsset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAsset fetches one canonical asset by asset_uid. Returns (nil, nil)
// when absent.
func (s *Store) GetAsset(ctx context.Context, assetUID string) (*model.CanonicalAsset, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+assetColumns+" FROM normalized_crypto_assets WHERE asset_uid = $1",
		assetUID,
	)
	a, err := scanAsset(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAsset(row pgx.Row) (model.CanonicalAsset, error) {
	var (
		a      model.CanonicalAsset
		source string
	)
	err := row.Scan(
		&a.AssetUID, &a.Symbol, &a.Name, &a.PriceUSD, &a.MarketCapUSD, &a.Rank,
		&source, &a.CoinGeckoID, &a.CoinPaprikaID, &a.SourceUpdatedAt, &a.IngestedAt,
	)
	if err != nil {
		return model.CanonicalAsset{}, err
	}
	a.Source = model.SourceName(source)
	return a, nil
}
