package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sort"

	"github.com/kasparro/crypto-etl/internal/model"
)

// unrankedPaprika sorts unranked tickers after every ranked one.
const unrankedPaprika = 1 << 30

// CoinPaprika fetches market data from the CoinPaprika /tickers endpoint.
type CoinPaprika struct {
	client  *Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewCoinPaprika creates the CoinPaprika adapter. apiKey may be empty.
func NewCoinPaprika(client *Client, baseURL, apiKey string, logger *slog.Logger) *CoinPaprika {
	if logger == nil {
		logger = slog.Default()
	}
	return &CoinPaprika{
		client:  client,
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger.With("source", "coinpaprika"),
	}
}

func (p *CoinPaprika) Name() model.SourceName { return model.SourceCoinPaprika }

// paprikaTicker is one element of the /tickers response.
type paprikaTicker struct {
	ID          string `json:"id"`
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	Rank        *int   `json:"rank"`
	LastUpdated string `json:"last_updated"`
	Quotes      struct {
		USD struct {
			Price     *float64 `json:"price"`
			MarketCap *float64 `json:"market_cap"`
		} `json:"USD"`
	} `json:"quotes"`
}

// Fetch returns the current ticker snapshot.
func (p *CoinPaprika) Fetch(ctx context.Context) ([]model.Record, error) {
	elems, err := p.fetchTickers(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]model.Record, 0, len(elems))
	dropped := 0
	for _, raw := range elems {
		var t paprikaTicker
		if err := json.Unmarshal(raw, &t); err != nil {
			dropped++
			continue
		}

		ts, ok := parseTimestamp(t.LastUpdated)
		if !ok {
			dropped++
			continue
		}

		records = append(records, model.Record{
			Symbol:          t.Symbol,
			Name:            t.Name,
			PriceUSD:        t.Quotes.USD.Price,
			MarketCapUSD:    t.Quotes.USD.MarketCap,
			Rank:            t.Rank,
			SourceID:        t.ID,
			SourceUpdatedAt: ts,
			Payload:         raw,
		})
	}

	if dropped > 0 {
		p.logger.Warn("dropped malformed entries", "dropped", dropped, "kept", len(records))
	}
	p.logger.Info("fetched records", "count", len(records))
	return records, nil
}

// TopAssets returns the limit best-ranked tickers for the mapping
// bootstrap. The tickers endpoint is unordered, so results are sorted by
// rank with unranked entries last.
func (p *CoinPaprika) TopAssets(ctx context.Context, limit int) ([]model.ListedAsset, error) {
	elems, err := p.fetchTickers(ctx)
	if err != nil {
		return nil, err
	}

	assets := make([]model.ListedAsset, 0, len(elems))
	for _, raw := range elems {
		var t paprikaTicker
		if err := json.Unmarshal(raw, &t); err != nil {
			continue
		}
		if t.ID == "" || t.Symbol == "" {
			continue
		}

		a := model.ListedAsset{
			ID:     t.ID,
			Symbol: t.Symbol,
			Name:   t.Name,
		}
		if t.Rank != nil {
			a.Rank = *t.Rank
		}
		if t.Quotes.USD.MarketCap != nil {
			a.MarketCapUSD = *t.Quotes.USD.MarketCap
		}
		assets = append(assets, a)
	}

	sort.SliceStable(assets, func(i, j int) bool {
		return sortRank(assets[i].Rank) < sortRank(assets[j].Rank)
	})
	if len(assets) > limit {
		assets = assets[:limit]
	}

	return assets, nil
}

func sortRank(rank int) int {
	if rank <= 0 {
		return unrankedPaprika
	}
	return rank
}

func (p *CoinPaprika) fetchTickers(ctx context.Context) ([]json.RawMessage, error) {
	query := url.Values{}
	if p.apiKey != "" {
		query.Set("api_key", p.apiKey)
	}

	var elems []json.RawMessage
	if err := p.client.GetJSON(ctx, p.baseURL, "/tickers", query, &elems); err != nil {
		return nil, fmt.Errorf("coinpaprika tickers: %w", err)
	}
	return elems, nil
}
