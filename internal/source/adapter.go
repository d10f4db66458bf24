package source

import (
	"context"
	"time"

	"github.com/kasparro/crypto-etl/internal/model"
)

// Adapter is the single capability every source implements: return all
// currently available records with provider-asserted timestamps. Adapters
// never filter against checkpoints; that belongs to the ingestion runner.
//
// Individual malformed entries are skipped, not fatal. An error return
// means the fetch as a whole failed (network, auth, rate limit).
type Adapter interface {
	Name() model.SourceName
	Fetch(ctx context.Context) ([]model.Record, error)
}

// parseTimestamp parses a provider timestamp. Records without a parsable
// timestamp are dropped by the adapters, never defaulted.
func parseTimestamp(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}
