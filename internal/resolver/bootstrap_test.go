package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/kasparro/crypto-etl/internal/model"
)

func TestBootstrapMatchesBySymbol(t *testing.T) {
	cg := &memCatalog{name: model.SourceCoinGecko, assets: []model.ListedAsset{
		{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", MarketCapUSD: 1e12, Rank: 1},
	}}
	cp := &memCatalog{name: model.SourceCoinPaprika, assets: []model.ListedAsset{
		{ID: "btc-bitcoin", Symbol: "BTC", Name: "Bitcoin", MarketCapUSD: 1e12, Rank: 1},
	}}
	store := &memMappingStore{}
	r := New(store, cg, cp, 100, nil)

	res := r.Bootstrap(context.Background())
	if !res.Success {
		t.Fatalf("Bootstrap() = %+v, want success", res)
	}
	if res.Mappings != 1 || res.FullMatches != 1 {
		t.Errorf("Mappings = %d, FullMatches = %d, want 1, 1", res.Mappings, res.FullMatches)
	}

	m := store.byUID("bitcoin")
	if m == nil {
		t.Fatal("mapping bitcoin missing")
	}
	if m.CoinGeckoID == nil || *m.CoinGeckoID != "bitcoin" {
		t.Errorf("CoinGeckoID = %v, want bitcoin", m.CoinGeckoID)
	}
	if m.CoinPaprikaID == nil || *m.CoinPaprikaID != "btc-bitcoin" {
		t.Errorf("CoinPaprikaID = %v, want btc-bitcoin", m.CoinPaprikaID)
	}
	if m.Symbol != "BTC" {
		t.Errorf("Symbol = %q, want BTC", m.Symbol)
	}
}

func TestBootstrapPartialMappings(t *testing.T) {
	cg := &memCatalog{name: model.SourceCoinGecko, assets: []model.ListedAsset{
		{ID: "bitcoin", Symbol: "BTC", Name: "Bitcoin", MarketCapUSD: 1e12, Rank: 1},
		{ID: "ethereum", Symbol: "ETH", Name: "Ethereum", MarketCapUSD: 4e11, Rank: 2},
	}}
	cp := &memCatalog{name: model.SourceCoinPaprika, assets: []model.ListedAsset{
		{ID: "btc-bitcoin", Symbol: "BTC", Name: "Bitcoin", MarketCapUSD: 1e12, Rank: 1},
		{ID: "xrp-xrp", Symbol: "XRP", Name: "XRP", MarketCapUSD: 3e10, Rank: 5},
	}}
	store := &memMappingStore{}
	r := New(store, cg, cp, 100, nil)

	res := r.Bootstrap(context.Background())
	if !res.Success {
		t.Fatalf("Bootstrap() = %+v, want success", res)
	}
	if res.Mappings != 3 {
		t.Errorf("Mappings = %d, want 3", res.Mappings)
	}
	if res.FullMatches != 1 {
		t.Errorf("FullMatches = %d, want 1", res.FullMatches)
	}

	eth := store.byUID("ethereum")
	if eth == nil || eth.CoinPaprikaID != nil {
		t.Errorf("ethereum mapping = %+v, want CoinGecko-only", eth)
	}
	xrp := store.byUID("xrp-xrp")
	if xrp == nil || xrp.CoinGeckoID != nil {
		t.Errorf("xrp mapping = %+v, want CoinPaprika-only", xrp)
	}
}

func TestBootstrapDuplicateSymbolPrefersMarketCap(t *testing.T) {
	assets := []model.ListedAsset{
		{ID: "small-uni", Symbol: "UNI", Name: "Small UNI", MarketCapUSD: 1e6, Rank: 90},
		{ID: "uniswap", Symbol: "UNI", Name: "Uniswap", MarketCapUSD: 5e9, Rank: 20},
	}
	lookup := buildSymbolLookup(assets)
	if got := lookup["UNI"].ID; got != "uniswap" {
		t.Errorf("lookup[UNI].ID = %q, want uniswap", got)
	}
}

func TestBootstrapFallbackOnFetchFailure(t *testing.T) {
	cg := &memCatalog{name: model.SourceCoinGecko, err: errors.New("upstream down")}
	cp := &memCatalog{name: model.SourceCoinPaprika, assets: []model.ListedAsset{
		{ID: "btc-bitcoin", Symbol: "BTC", Name: "Bitcoin", MarketCapUSD: 1e12, Rank: 1},
	}}
	store := &memMappingStore{}
	r := New(store, cg, cp, 100, nil)

	res := r.Bootstrap(context.Background())
	if res.Success {
		t.Error("Bootstrap() reported success despite fetch failure")
	}
	if res.Err == nil {
		t.Error("Bootstrap() Err = nil, want fetch error")
	}
	if res.Mappings != len(WellKnownAssets()) {
		t.Errorf("Mappings = %d, want %d fallback rows", res.Mappings, len(WellKnownAssets()))
	}
	if m := store.byUID("bitcoin"); m == nil {
		t.Error("fallback seed did not install bitcoin mapping")
	}
}

func TestBootstrapFallbackDoesNotOverwrite(t *testing.T) {
	cp := "custom-btc"
	store := &memMappingStore{mappings: []model.AssetMapping{
		{AssetUID: "bitcoin", CoinPaprikaID: &cp, Symbol: "BTC", Name: "Bitcoin"},
	}}
	cg := &memCatalog{name: model.SourceCoinGecko, err: errors.New("upstream down")}
	r := New(store, cg, &memCatalog{name: model.SourceCoinPaprika}, 100, nil)

	r.Bootstrap(context.Background())

	m := store.byUID("bitcoin")
	if m.CoinPaprikaID == nil || *m.CoinPaprikaID != "custom-btc" {
		t.Errorf("CoinPaprikaID = %v, want custom-btc untouched by fallback seed", m.CoinPaprikaID)
	}
}
