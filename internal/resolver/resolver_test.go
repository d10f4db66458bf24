package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/kasparro/crypto-etl/internal/model"
)

func record(symbol, name, sourceID string) model.Record {
	return model.Record{
		Symbol:          symbol,
		Name:            name,
		SourceID:        sourceID,
		SourceUpdatedAt: time.Now().UTC(),
	}
}

func TestResolveByProviderID(t *testing.T) {
	cg := "bitcoin"
	store := &memMappingStore{mappings: []model.AssetMapping{
		{AssetUID: "bitcoin", CoinGeckoID: &cg, Symbol: "BTC", Name: "Bitcoin"},
	}}
	r := New(store, nil, nil, 100, nil)

	id, err := r.Resolve(context.Background(), model.SourceCoinGecko, record("btc", "Bitcoin", "bitcoin"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if id.AssetUID != "bitcoin" {
		t.Errorf("AssetUID = %q, want %q", id.AssetUID, "bitcoin")
	}
	if id.CoinGeckoID == nil || *id.CoinGeckoID != "bitcoin" {
		t.Errorf("CoinGeckoID = %v, want bitcoin", id.CoinGeckoID)
	}
	if store.createCalls != 0 {
		t.Errorf("createCalls = %d, want 0", store.createCalls)
	}
}

func TestResolveStableAcrossCacheClear(t *testing.T) {
	store := &memMappingStore{}
	r := New(store, nil, nil, 100, nil)
	ctx := context.Background()

	rec := record("DOGE", "Dogecoin", "dogecoin")
	first, err := r.Resolve(ctx, model.SourceCoinGecko, rec)
	if err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}

	r.ClearCache()

	second, err := r.Resolve(ctx, model.SourceCoinGecko, rec)
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}
	if first.AssetUID != second.AssetUID {
		t.Errorf("asset_uid changed across cache clear: %q vs %q", first.AssetUID, second.AssetUID)
	}
	if store.createCalls != 1 {
		t.Errorf("createCalls = %d, want 1 (second resolve must hit the store, not create)", store.createCalls)
	}
}

func TestResolveEnrichesBySymbol(t *testing.T) {
	cg := "bitcoin"
	store := &memMappingStore{mappings: []model.AssetMapping{
		{AssetUID: "bitcoin", CoinGeckoID: &cg, Symbol: "BTC", Name: "Bitcoin"},
	}}
	r := New(store, nil, nil, 100, nil)

	id, err := r.Resolve(context.Background(), model.SourceCoinPaprika, record("BTC", "Bitcoin", "btc-bitcoin"))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if id.AssetUID != "bitcoin" {
		t.Errorf("AssetUID = %q, want %q", id.AssetUID, "bitcoin")
	}

	m := store.byUID("bitcoin")
	if m == nil {
		t.Fatal("mapping bitcoin missing")
	}
	if m.CoinPaprikaID == nil || *m.CoinPaprikaID != "btc-bitcoin" {
		t.Errorf("CoinPaprikaID = %v, want btc-bitcoin", m.CoinPaprikaID)
	}
	if m.CoinGeckoID == nil || *m.CoinGeckoID != "bitcoin" {
		t.Errorf("CoinGeckoID = %v, want bitcoin (must not be cleared)", m.CoinGeckoID)
	}
}

func TestResolveEnrichNeverOverwrites(t *testing.T) {
	cp := "btc-bitcoin"
	store := &memMappingStore{mappings: []model.AssetMapping{
		{AssetUID: "bitcoin", CoinPaprikaID: &cp, Symbol: "BTC", Name: "Bitcoin"},
	}}
	r := New(store, nil, nil, 100, nil)

	if _, err := r.Resolve(context.Background(), model.SourceCoinPaprika, record("BTC", "Bitcoin", "other-btc")); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	m := store.byUID("bitcoin")
	if m.CoinPaprikaID == nil || *m.CoinPaprikaID != "btc-bitcoin" {
		t.Errorf("CoinPaprikaID = %v, want btc-bitcoin untouched", m.CoinPaprikaID)
	}
}

func TestResolveSymbolNameTieBreak(t *testing.T) {
	store := &memMappingStore{mappings: []model.AssetMapping{
		{AssetUID: "uniswap", Symbol: "UNI", Name: "Uniswap"},
		{AssetUID: "unicorn-token", Symbol: "UNI", Name: "UNICORN Token"},
	}}
	r := New(store, nil, nil, 100, nil)

	id, err := r.Resolve(context.Background(), model.SourceCSV, record("UNI", "unicorn token", ""))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if id.AssetUID != "unicorn-token" {
		t.Errorf("AssetUID = %q, want unicorn-token (normalized name match)", id.AssetUID)
	}
}

func TestResolveAmbiguousSymbolFirstWins(t *testing.T) {
	store := &memMappingStore{mappings: []model.AssetMapping{
		{AssetUID: "uniswap", Symbol: "UNI", Name: "Uniswap"},
		{AssetUID: "unicorn-token", Symbol: "UNI", Name: "UNICORN Token"},
	}}
	r := New(store, nil, nil, 100, nil)

	id, err := r.Resolve(context.Background(), model.SourceCSV, record("UNI", "Something Else", ""))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if id.AssetUID != "uniswap" {
		t.Errorf("AssetUID = %q, want uniswap (first candidate in creation order)", id.AssetUID)
	}
}

func TestResolveSynthesizesFromCSV(t *testing.T) {
	store := &memMappingStore{}
	r := New(store, nil, nil, 100, nil)

	id, err := r.Resolve(context.Background(), model.SourceCSV, record("NEWCOIN", "Brand New Coin", ""))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if id.AssetUID != "brand-new-coin" {
		t.Errorf("AssetUID = %q, want brand-new-coin", id.AssetUID)
	}
	m := store.byUID("brand-new-coin")
	if m == nil {
		t.Fatal("synthesized mapping not persisted")
	}
	if m.Symbol != "NEWCOIN" {
		t.Errorf("mapping symbol = %q, want NEWCOIN", m.Symbol)
	}
}

func TestSynthesizeUID(t *testing.T) {
	tests := []struct {
		providerID, symbol, name string
		want                     string
	}{
		{"Bitcoin", "BTC", "Bitcoin", "bitcoin"},
		{"", "BTC", "Bitcoin Cash", "bitcoin-cash"},
		{"", " XRP ", "", "xrp"},
	}
	for _, tt := range tests {
		if got := synthesizeUID(tt.providerID, tt.symbol, tt.name); got != tt.want {
			t.Errorf("synthesizeUID(%q, %q, %q) = %q, want %q", tt.providerID, tt.symbol, tt.name, got, tt.want)
		}
	}
}

func TestResolveCacheHitSkipsStore(t *testing.T) {
	cg := "ethereum"
	store := &memMappingStore{mappings: []model.AssetMapping{
		{AssetUID: "ethereum", CoinGeckoID: &cg, Symbol: "ETH", Name: "Ethereum"},
	}}
	r := New(store, nil, nil, 100, nil)
	ctx := context.Background()

	rec := record("ETH", "Ethereum", "ethereum")
	if _, err := r.Resolve(ctx, model.SourceCoinGecko, rec); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	before := store.lookupCalls
	if _, err := r.Resolve(ctx, model.SourceCoinGecko, rec); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if store.lookupCalls != before {
		t.Errorf("lookupCalls = %d, want %d (cached resolve must not query)", store.lookupCalls, before)
	}
}
