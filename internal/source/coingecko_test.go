package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const geckoMarketsBody = `[
	{"id":"bitcoin","symbol":"btc","name":"Bitcoin","current_price":43000.5,"market_cap":840000000000,"market_cap_rank":1,"last_updated":"2024-01-15T12:00:00Z"},
	{"id":"ethereum","symbol":"eth","name":"Ethereum","current_price":2500,"market_cap":300000000000,"market_cap_rank":2,"last_updated":"2024-01-15T12:01:00Z"},
	{"id":"broken","symbol":"brk","name":"Broken","current_price":1,"market_cap":2,"market_cap_rank":3,"last_updated":"yesterday"},
	{"id":"nullish","symbol":"nul","name":"Nullish","current_price":null,"market_cap":null,"market_cap_rank":null,"last_updated":"2024-01-15T12:02:00Z"}
]`

func newGeckoTestServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/markets" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("vs_currency"); got != "usd" {
			t.Errorf("vs_currency = %q, want usd", got)
		}
		w.Write([]byte(body))
	}))
}

func TestCoinGeckoFetch(t *testing.T) {
	srv := newGeckoTestServer(t, geckoMarketsBody)
	defer srv.Close()

	g := NewCoinGecko(NewClient(), srv.URL, nil)

	records, err := g.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	// "broken" has an unparsable timestamp and is dropped.
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want 3", len(records))
	}

	btc := records[0]
	if btc.Symbol != "BTC" {
		t.Errorf("Symbol = %q, want BTC", btc.Symbol)
	}
	if btc.SourceID != "bitcoin" {
		t.Errorf("SourceID = %q, want bitcoin", btc.SourceID)
	}
	if btc.PriceUSD == nil || *btc.PriceUSD != 43000.5 {
		t.Errorf("PriceUSD = %v, want 43000.5", btc.PriceUSD)
	}
	want := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	if !btc.SourceUpdatedAt.Equal(want) {
		t.Errorf("SourceUpdatedAt = %v, want %v", btc.SourceUpdatedAt, want)
	}
	if len(btc.Payload) == 0 {
		t.Error("Payload is empty, want raw provider element")
	}

	// Null numerics coerce to absent, record survives.
	nul := records[2]
	if nul.PriceUSD != nil || nul.MarketCapUSD != nil || nul.Rank != nil {
		t.Errorf("nullish numerics = (%v, %v, %v), want all nil", nul.PriceUSD, nul.MarketCapUSD, nul.Rank)
	}
}

func TestCoinGeckoFetchTotalFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := NewCoinGecko(NewClient(WithRetries(0, time.Millisecond)), srv.URL, nil)

	if _, err := g.Fetch(context.Background()); err == nil {
		t.Fatal("Fetch = nil, want error on total failure")
	}
}

func TestCoinGeckoTopAssets(t *testing.T) {
	srv := newGeckoTestServer(t, geckoMarketsBody)
	defer srv.Close()

	g := NewCoinGecko(NewClient(), srv.URL, nil)

	assets, err := g.TopAssets(context.Background(), 100)
	if err != nil {
		t.Fatalf("TopAssets failed: %v", err)
	}

	// TopAssets keeps entries regardless of timestamp; all four have id+symbol.
	if len(assets) != 4 {
		t.Fatalf("len(assets) = %d, want 4", len(assets))
	}
	if assets[0].ID != "bitcoin" || assets[0].Rank != 1 {
		t.Errorf("assets[0] = %+v, want bitcoin rank 1", assets[0])
	}
	if assets[0].MarketCapUSD != 840000000000 {
		t.Errorf("MarketCapUSD = %v, want 840000000000", assets[0].MarketCapUSD)
	}
}
