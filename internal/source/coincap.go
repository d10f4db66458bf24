package source

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// CoinCap fetches the asset listing used to regenerate the market CSV.
// It is not an ETL source itself; the csv adapter ingests its output.
type CoinCap struct {
	client  *Client
	baseURL string
}

// NewCoinCap creates the CoinCap client.
func NewCoinCap(client *Client, baseURL string) *CoinCap {
	return &CoinCap{client: client, baseURL: baseURL}
}

// CoinCapAsset is one element of the /assets response. Values stay as
// provider strings; the CSV contract carries them through verbatim.
type CoinCapAsset struct {
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
	PriceUSD     string `json:"priceUsd"`
	MarketCapUSD string `json:"marketCapUsd"`
	Rank         string `json:"rank"`
}

// Assets returns the top assets by market cap.
func (c *CoinCap) Assets(ctx context.Context, limit int) ([]CoinCapAsset, error) {
	query := url.Values{"limit": {strconv.Itoa(limit)}}

	var resp struct {
		Data []CoinCapAsset `json:"data"`
	}
	if err := c.client.GetJSON(ctx, c.baseURL, "/assets", query, &resp); err != nil {
		return nil, fmt.Errorf("coincap assets: %w", err)
	}

	return resp.Data, nil
}
