package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SourceName identifies a configured data provider.
type SourceName string

const (
	SourceCoinGecko   SourceName = "coingecko"
	SourceCoinPaprika SourceName = "coinpaprika"
	SourceCSV         SourceName = "csv"
)

// AllSources lists the providers in their canonical ETL order.
func AllSources() []SourceName {
	return []SourceName{SourceCoinGecko, SourceCoinPaprika, SourceCSV}
}

// Valid reports whether s names a known provider.
func (s SourceName) Valid() bool {
	switch s {
	case SourceCoinGecko, SourceCoinPaprika, SourceCSV:
		return true
	}
	return false
}

// Record is the uniform in-flight shape every adapter produces.
// Numeric fields are pointers: a provider value that fails permissive
// coercion becomes absent rather than dropping the record.
type Record struct {
	Symbol          string          // Trading symbol (e.g. "BTC")
	Name            string          // Display name (e.g. "Bitcoin")
	PriceUSD        *float64        // Spot price in USD
	MarketCapUSD    *float64        // Market capitalization in USD
	Rank            *int            // Provider market-cap rank
	SourceID        string          // Provider-internal id ("" when the source has none, e.g. csv)
	SourceUpdatedAt time.Time       // Provider-asserted update time
	Payload         json.RawMessage // Full unparsed provider record
}

// RawRecord is one archived provider payload. Raw tables are append-only
// and exist solely for audit and replay.
type RawRecord struct {
	ID              uuid.UUID
	Payload         json.RawMessage
	SourceUpdatedAt time.Time
	IngestedAt      time.Time
}

// CanonicalAsset is one row of normalized_crypto_assets: the unified,
// deduplicated representation of a real-world asset across providers.
type CanonicalAsset struct {
	AssetUID        string // Stable cross-source identifier
	Symbol          string
	Name            string
	PriceUSD        *float64
	MarketCapUSD    *float64
	Rank            *int
	Source          SourceName // Source that contributed the current values
	CoinGeckoID     *string    // Provider ids kept for traceability
	CoinPaprikaID   *string
	SourceUpdatedAt time.Time
	IngestedAt      time.Time
}

// AssetMapping links provider-specific ids to one canonical asset_uid.
// A mapping may carry a single provider id when the asset is
// source-exclusive; missing ids are filled in later (never overwritten)
// as the other provider's id is discovered.
type AssetMapping struct {
	AssetUID      string
	CoinGeckoID   *string
	CoinPaprikaID *string
	Symbol        string
	Name          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Checkpoint is the high-water mark of fully ingested provider time for
// one source. LastUpdatedAt is monotonically non-decreasing.
type Checkpoint struct {
	SourceName    SourceName
	LastUpdatedAt time.Time
	UpdatedAt     time.Time
}

// RunStatus is the lifecycle state of an ETL run.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailure RunStatus = "failure"
)

// Run is the append-only observability record of one ETL execution.
// A run is created in RunRunning and transitions exactly once to a
// terminal state.
type Run struct {
	RunID            uuid.UUID
	SourceName       SourceName
	Status           RunStatus
	RecordsProcessed int
	ErrorMessage     *string
	Metadata         json.RawMessage
	StartedAt        time.Time
	EndedAt          *time.Time
}

// ListedAsset is one entry of a provider's top-N ranked listing, used by
// the mapping bootstrap.
type ListedAsset struct {
	ID           string
	Symbol       string
	Name         string
	MarketCapUSD float64
	Rank         int // 0 when the provider reported no rank
}
