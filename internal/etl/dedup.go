package etl

import (
	"time"

	"github.com/kasparro/crypto-etl/internal/model"
)

// DedupByFreshness collapses assets sharing an asset_uid down to the one
// with the greatest source_updated_at. On a timestamp tie the first
// occurrence wins. Output preserves first-seen order.
func DedupByFreshness(assets []model.CanonicalAsset) []model.CanonicalAsset {
	if len(assets) < 2 {
		return assets
	}

	index := make(map[string]int, len(assets))
	out := make([]model.CanonicalAsset, 0, len(assets))

	for _, a := range assets {
		i, seen := index[a.AssetUID]
		if !seen {
			index[a.AssetUID] = len(out)
			out = append(out, a)
			continue
		}
		if a.SourceUpdatedAt.After(out[i].SourceUpdatedAt) {
			out[i] = a
		}
	}
	return out
}

// maxSourceTime returns the greatest source_updated_at in the batch.
// The checkpoint advances to this value, computed over the full fresh
// batch so records displaced by dedup still count as ingested.
func maxSourceTime(records []model.Record) time.Time {
	var max time.Time
	for _, r := range records {
		if r.SourceUpdatedAt.After(max) {
			max = r.SourceUpdatedAt
		}
	}
	return max
}
