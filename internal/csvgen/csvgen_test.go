package csvgen

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kasparro/crypto-etl/internal/source"
)

type mockLister struct {
	assets []source.CoinCapAsset
	err    error
}

func (m *mockLister) Assets(ctx context.Context, limit int) ([]source.CoinCapAsset, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.assets, nil
}

func TestRefreshWritesDrop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.csv")
	lister := &mockLister{assets: []source.CoinCapAsset{
		{Symbol: "BTC", Name: "Bitcoin", PriceUSD: "65000.12", MarketCapUSD: "1280000000000", Rank: "1"},
		{Symbol: "ETH", Name: "Ethereum", PriceUSD: "3500.50", MarketCapUSD: "420000000000", Rank: "2"},
	}}

	g := New(lister, path, 100, nil)
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g.now = func() time.Time { return fixed }

	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open drop: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read drop: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want header + 2", len(rows))
	}

	wantHeader := []string{"symbol", "name", "price_usd", "market_cap_usd", "rank", "source_updated_at"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, rows[0][i], col)
		}
	}
	if rows[1][0] != "BTC" || rows[1][2] != "65000.12" {
		t.Errorf("row 1 = %v", rows[1])
	}
	if rows[1][5] != "2025-06-01T12:00:00Z" {
		t.Errorf("source_updated_at = %q, want generation time", rows[1][5])
	}
}

func TestRefreshReplacesExistingDrop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.csv")
	if err := os.WriteFile(path, []byte("stale"), 0o644); err != nil {
		t.Fatal(err)
	}

	lister := &mockLister{assets: []source.CoinCapAsset{
		{Symbol: "BTC", Name: "Bitcoin", PriceUSD: "1", MarketCapUSD: "2", Rank: "1"},
	}}
	g := New(lister, path, 100, nil)

	if err := g.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "stale" {
		t.Error("drop was not replaced")
	}
}

func TestRefreshFetchFailureKeepsDrop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "market.csv")
	if err := os.WriteFile(path, []byte("previous"), 0o644); err != nil {
		t.Fatal(err)
	}

	g := New(&mockLister{err: errors.New("listing down")}, path, 100, nil)

	if err := g.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh() succeeded despite fetch failure")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "previous" {
		t.Error("existing drop was disturbed by failed refresh")
	}
}
