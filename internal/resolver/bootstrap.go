package resolver

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kasparro/crypto-etl/internal/model"
)

// rankDivergenceWarn is the cross-provider rank difference above which a
// symbol match is logged as suspicious. It is a signal, not an error.
const rankDivergenceWarn = 10

// BootstrapResult summarizes one bootstrap attempt.
type BootstrapResult struct {
	Success     bool
	Mappings    int
	FullMatches int
	Err         error
}

// Bootstrap builds the cross-provider identity table from the top-N
// listings of both providers. It is safe to re-run: mappings are upserted
// by asset_uid. If either provider is unreachable the fallback seed set
// is installed instead and the failure is reported without being fatal.
func (r *Resolver) Bootstrap(ctx context.Context) BootstrapResult {
	start := time.Now()
	r.logger.Info("bootstrap starting", "top_n", r.topN)

	var cg, cp []model.ListedAsset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cg, err = r.coingecko.TopAssets(gctx, r.topN)
		return err
	})
	g.Go(func() error {
		var err error
		cp, err = r.coinpaprika.TopAssets(gctx, r.topN)
		return err
	})

	if err := g.Wait(); err != nil {
		r.logger.Error("bootstrap fetch failed, seeding fallback mappings", "error", err)
		fallback := WellKnownAssets()
		if seedErr := r.store.SeedMappings(ctx, fallback); seedErr != nil {
			r.logger.Error("fallback seed failed", "error", seedErr)
			return BootstrapResult{Err: seedErr}
		}
		return BootstrapResult{Mappings: len(fallback), Err: err}
	}

	cgBySymbol := buildSymbolLookup(cg)
	cpBySymbol := buildSymbolLookup(cp)

	mappings, fullMatches := r.matchAssets(cgBySymbol, cpBySymbol)

	if err := r.store.UpsertMappings(ctx, mappings); err != nil {
		r.logger.Error("bootstrap persist failed", "error", err)
		return BootstrapResult{Err: err}
	}

	r.logger.Info("bootstrap complete",
		"mappings", len(mappings),
		"full_matches", fullMatches,
		"coingecko_only", len(cgBySymbol)-fullMatches,
		"coinpaprika_only", len(cpBySymbol)-fullMatches,
		"elapsed", time.Since(start),
	)

	return BootstrapResult{Success: true, Mappings: len(mappings), FullMatches: fullMatches}
}

// buildSymbolLookup indexes a listing by symbol. A symbol duplicated
// within one provider keeps the entry with the higher market cap.
func buildSymbolLookup(assets []model.ListedAsset) map[string]model.ListedAsset {
	lookup := make(map[string]model.ListedAsset, len(assets))
	for _, a := range assets {
		symbol := NormalizeSymbol(a.Symbol)
		if symbol == "" {
			continue
		}
		existing, ok := lookup[symbol]
		if !ok || a.MarketCapUSD > existing.MarketCapUSD {
			lookup[symbol] = a
		}
	}
	return lookup
}

// matchAssets joins the two lookups by exact symbol equality. A symbol
// present in both providers becomes one mapping carrying both ids, with
// the CoinGecko id as asset_uid; single-provider symbols become partial
// mappings.
func (r *Resolver) matchAssets(cgBySymbol, cpBySymbol map[string]model.ListedAsset) ([]model.AssetMapping, int) {
	symbols := make([]string, 0, len(cgBySymbol)+len(cpBySymbol))
	for s := range cgBySymbol {
		symbols = append(symbols, s)
	}
	for s := range cpBySymbol {
		if _, ok := cgBySymbol[s]; !ok {
			symbols = append(symbols, s)
		}
	}
	sort.Strings(symbols)

	mappings := make([]model.AssetMapping, 0, len(symbols))
	fullMatches := 0

	for _, symbol := range symbols {
		cgAsset, inCG := cgBySymbol[symbol]
		cpAsset, inCP := cpBySymbol[symbol]

		switch {
		case inCG && inCP:
			if diff := rankDiff(cgAsset.Rank, cpAsset.Rank); diff > rankDivergenceWarn {
				r.logger.Warn("large rank divergence for matched symbol",
					"symbol", symbol,
					"coingecko_rank", cgAsset.Rank,
					"coinpaprika_rank", cpAsset.Rank,
					"diff", diff,
				)
			}
			mappings = append(mappings, model.AssetMapping{
				AssetUID:      cgAsset.ID,
				CoinGeckoID:   &cgAsset.ID,
				CoinPaprikaID: &cpAsset.ID,
				Symbol:        symbol,
				Name:          firstNonEmpty(cgAsset.Name, cpAsset.Name, symbol),
			})
			fullMatches++
		case inCG:
			mappings = append(mappings, model.AssetMapping{
				AssetUID:    cgAsset.ID,
				CoinGeckoID: &cgAsset.ID,
				Symbol:      symbol,
				Name:        firstNonEmpty(cgAsset.Name, symbol),
			})
		case inCP:
			mappings = append(mappings, model.AssetMapping{
				AssetUID:      cpAsset.ID,
				CoinPaprikaID: &cpAsset.ID,
				Symbol:        symbol,
				Name:          firstNonEmpty(cpAsset.Name, symbol),
			})
		}
	}

	return mappings, fullMatches
}

func rankDiff(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > b {
		return a - b
	}
	return b - a
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
