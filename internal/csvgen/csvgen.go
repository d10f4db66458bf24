// Package csvgen regenerates the CSV market drop from the CoinCap
// listing, simulating the third-party file feed the csv source ingests.
package csvgen

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kasparro/crypto-etl/internal/source"
)

// Lister provides the asset listing written into the drop. *source.CoinCap
// satisfies it.
type Lister interface {
	Assets(ctx context.Context, limit int) ([]source.CoinCapAsset, error)
}

// header is the column contract the csv source adapter expects.
var header = []string{"symbol", "name", "price_usd", "market_cap_usd", "rank", "source_updated_at"}

// Generator writes a fresh CSV drop on each Refresh.
type Generator struct {
	lister Lister
	path   string
	limit  int
	logger *slog.Logger

	now func() time.Time
}

// New creates a Generator writing to path.
func New(lister Lister, path string, limit int, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = 100
	}
	return &Generator{
		lister: lister,
		path:   path,
		limit:  limit,
		logger: logger.With("component", "csvgen"),
		now:    time.Now,
	}
}

// Refresh fetches the listing and atomically replaces the drop file.
// Every row carries the generation time as source_updated_at, so each
// refresh looks like a new batch to the incremental filter.
func (g *Generator) Refresh(ctx context.Context) error {
	assets, err := g.lister.Assets(ctx, g.limit)
	if err != nil {
		return fmt.Errorf("fetch listing: %w", err)
	}

	generatedAt := g.now().UTC().Format(time.RFC3339)

	dir := filepath.Dir(g.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(g.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, a := range assets {
		row := []string{a.Symbol, a.Name, a.PriceUSD, a.MarketCapUSD, a.Rank, generatedAt}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Rename so readers never observe a half-written drop.
	if err := os.Rename(tmp.Name(), g.path); err != nil {
		return fmt.Errorf("replace %s: %w", g.path, err)
	}

	g.logger.Info("csv drop refreshed", "path", g.path, "rows", len(assets))
	return nil
}
