package store

import (
	"testing"

	"github.com/kasparro/crypto-etl/internal/model"
)

func TestRawTableFor(t *testing.T) {
	tests := []struct {
		source  model.SourceName
		want    string
		wantErr bool
	}{
		{model.SourceCoinGecko, "raw_coingecko", false},
		{model.SourceCoinPaprika, "raw_coinpaprika", false},
		{model.SourceCSV, "raw_csv", false},
		{"binance", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := rawTableFor(tt.source)
		if (err != nil) != tt.wantErr {
			t.Errorf("rawTableFor(%q) error = %v, wantErr %v", tt.source, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("rawTableFor(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestProviderIDColumn(t *testing.T) {
	tests := []struct {
		source  model.SourceName
		want    string
		wantErr bool
	}{
		{model.SourceCoinGecko, "coingecko_id", false},
		{model.SourceCoinPaprika, "coinpaprika_id", false},
		{model.SourceCSV, "", true},
	}
	for _, tt := range tests {
		got, err := providerIDColumn(tt.source)
		if (err != nil) != tt.wantErr {
			t.Errorf("providerIDColumn(%q) error = %v, wantErr %v", tt.source, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("providerIDColumn(%q) = %q, want %q", tt.source, got, tt.want)
		}
	}
}
