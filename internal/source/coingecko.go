package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/kasparro/crypto-etl/internal/model"
)

const geckoPageSize = 250

// CoinGecko fetches market data from the CoinGecko /coins/markets endpoint.
type CoinGecko struct {
	client  *Client
	baseURL string
	logger  *slog.Logger
}

// NewCoinGecko creates the CoinGecko adapter.
func NewCoinGecko(client *Client, baseURL string, logger *slog.Logger) *CoinGecko {
	if logger == nil {
		logger = slog.Default()
	}
	return &CoinGecko{
		client:  client,
		baseURL: baseURL,
		logger:  logger.With("source", "coingecko"),
	}
}

func (g *CoinGecko) Name() model.SourceName { return model.SourceCoinGecko }

// geckoMarket is one element of the /coins/markets response.
type geckoMarket struct {
	ID            string   `json:"id"`
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	CurrentPrice  *float64 `json:"current_price"`
	MarketCap     *float64 `json:"market_cap"`
	MarketCapRank *int     `json:"market_cap_rank"`
	LastUpdated   string   `json:"last_updated"`
}

// Fetch returns the current market snapshot.
func (g *CoinGecko) Fetch(ctx context.Context) ([]model.Record, error) {
	elems, err := g.fetchMarkets(ctx, geckoPageSize)
	if err != nil {
		return nil, err
	}

	records := make([]model.Record, 0, len(elems))
	dropped := 0
	for _, raw := range elems {
		var m geckoMarket
		if err := json.Unmarshal(raw, &m); err != nil {
			dropped++
			continue
		}

		ts, ok := parseTimestamp(m.LastUpdated)
		if !ok {
			dropped++
			continue
		}

		records = append(records, model.Record{
			Symbol:          strings.ToUpper(m.Symbol),
			Name:            m.Name,
			PriceUSD:        m.CurrentPrice,
			MarketCapUSD:    m.MarketCap,
			Rank:            m.MarketCapRank,
			SourceID:        m.ID,
			SourceUpdatedAt: ts,
			Payload:         raw,
		})
	}

	if dropped > 0 {
		g.logger.Warn("dropped malformed entries", "dropped", dropped, "kept", len(records))
	}
	g.logger.Info("fetched records", "count", len(records))
	return records, nil
}

// TopAssets returns the top-ranked listing used by the mapping bootstrap.
func (g *CoinGecko) TopAssets(ctx context.Context, limit int) ([]model.ListedAsset, error) {
	elems, err := g.fetchMarkets(ctx, limit)
	if err != nil {
		return nil, err
	}

	assets := make([]model.ListedAsset, 0, len(elems))
	for _, raw := range elems {
		var m geckoMarket
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		if m.ID == "" || m.Symbol == "" {
			continue
		}

		a := model.ListedAsset{
			ID:     m.ID,
			Symbol: strings.ToUpper(m.Symbol),
			Name:   m.Name,
		}
		if m.MarketCap != nil {
			a.MarketCapUSD = *m.MarketCap
		}
		if m.MarketCapRank != nil {
			a.Rank = *m.MarketCapRank
		}
		assets = append(assets, a)
	}

	return assets, nil
}

func (g *CoinGecko) fetchMarkets(ctx context.Context, perPage int) ([]json.RawMessage, error) {
	query := url.Values{
		"vs_currency": {"usd"},
		"order":       {"market_cap_desc"},
		"per_page":    {strconv.Itoa(perPage)},
		"page":        {"1"},
		"sparkline":   {"false"},
	}

	var elems []json.RawMessage
	if err := g.client.GetJSON(ctx, g.baseURL, "/coins/markets", query, &elems); err != nil {
		return nil, fmt.Errorf("coingecko markets: %w", err)
	}
	return elems, nil
}
