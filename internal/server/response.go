package server

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/kasparro/crypto-etl/internal/model"
)

type assetResponse struct {
	AssetUID        string    `json:"asset_uid"`
	Symbol          string    `json:"symbol"`
	Name            string    `json:"name"`
	PriceUSD        *float64  `json:"price_usd"`
	MarketCapUSD    *float64  `json:"market_cap_usd"`
	Rank            *int      `json:"rank"`
	Source          string    `json:"source"`
	CoinGeckoID     *string   `json:"coingecko_id,omitempty"`
	CoinPaprikaID   *string   `json:"coinpaprika_id,omitempty"`
	SourceUpdatedAt time.Time `json:"source_updated_at"`
	IngestedAt      time.Time `json:"ingested_at"`
}

func toAssetResponse(a model.CanonicalAsset) assetResponse {
	return assetResponse{
		AssetUID:        a.AssetUID,
		Symbol:          a.Symbol,
		Name:            a.Name,
		PriceUSD:        a.PriceUSD,
		MarketCapUSD:    a.MarketCapUSD,
		Rank:            a.Rank,
		Source:          string(a.Source),
		CoinGeckoID:     a.CoinGeckoID,
		CoinPaprikaID:   a.CoinPaprikaID,
		SourceUpdatedAt: a.SourceUpdatedAt,
		IngestedAt:      a.IngestedAt,
	}
}

type rawResponse struct {
	ID              uuid.UUID       `json:"id"`
	Payload         json.RawMessage `json:"payload"`
	SourceUpdatedAt time.Time       `json:"source_updated_at"`
	IngestedAt      time.Time       `json:"ingested_at"`
}

func toRawResponse(r model.RawRecord) rawResponse {
	return rawResponse{
		ID:              r.ID,
		Payload:         r.Payload,
		SourceUpdatedAt: r.SourceUpdatedAt,
		IngestedAt:      r.IngestedAt,
	}
}

type mappingResponse struct {
	AssetUID      string    `json:"asset_uid"`
	CoinGeckoID   *string   `json:"coingecko_id"`
	CoinPaprikaID *string   `json:"coinpaprika_id"`
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toMappingResponse(m model.AssetMapping) mappingResponse {
	return mappingResponse{
		AssetUID:      m.AssetUID,
		CoinGeckoID:   m.CoinGeckoID,
		CoinPaprikaID: m.CoinPaprikaID,
		Symbol:        m.Symbol,
		Name:          m.Name,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

type runResponse struct {
	RunID            uuid.UUID       `json:"run_id"`
	SourceName       string          `json:"source_name"`
	Status           string          `json:"status"`
	RecordsProcessed int             `json:"records_processed"`
	ErrorMessage     *string         `json:"error_message,omitempty"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
	StartedAt        time.Time       `json:"started_at"`
	EndedAt          *time.Time      `json:"ended_at"`
}

func toRunResponse(r model.Run) runResponse {
	return runResponse{
		RunID:            r.RunID,
		SourceName:       string(r.SourceName),
		Status:           string(r.Status),
		RecordsProcessed: r.RecordsProcessed,
		ErrorMessage:     r.ErrorMessage,
		Metadata:         r.Metadata,
		StartedAt:        r.StartedAt,
		EndedAt:          r.EndedAt,
	}
}

type checkpointResponse struct {
	SourceName    string    `json:"source_name"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toCheckpointResponse(c model.Checkpoint) checkpointResponse {
	return checkpointResponse{
		SourceName:    string(c.SourceName),
		LastUpdatedAt: c.LastUpdatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type resultResponse struct {
	Source           string    `json:"source"`
	RunID            uuid.UUID `json:"run_id,omitempty"`
	Success          bool      `json:"success"`
	RecordsProcessed int       `json:"records_processed"`
	Error            string    `json:"error,omitempty"`
}
