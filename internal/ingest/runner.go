// Package ingest drives source adapters and applies checkpoint-based
// incremental filtering. The runner is stateless: it never reads or
// writes the checkpoint store, so checkpoints only advance after the
// orchestrator has durably persisted a batch.
package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/kasparro/crypto-etl/internal/model"
	"github.com/kasparro/crypto-etl/internal/source"
)

// Runner fetches full batches and filters them down to fresh records.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a Runner.
func NewRunner(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{logger: logger}
}

// FetchFresh fetches the adapter's full batch and keeps records whose
// source_updated_at is strictly greater than the checkpoint. Without a
// checkpoint the full batch passes through (initial load).
func (r *Runner) FetchFresh(ctx context.Context, adapter source.Adapter, checkpoint time.Time, hasCheckpoint bool) ([]model.Record, error) {
	records, err := adapter.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	fresh := Filter(records, checkpoint, hasCheckpoint)
	r.logger.Debug("incremental filter",
		"source", adapter.Name(),
		"fetched", len(records),
		"fresh", len(fresh),
	)
	return fresh, nil
}

// Filter keeps records strictly newer than the checkpoint.
func Filter(records []model.Record, checkpoint time.Time, hasCheckpoint bool) []model.Record {
	if !hasCheckpoint {
		return records
	}

	fresh := make([]model.Record, 0, len(records))
	for _, rec := range records {
		if rec.SourceUpdatedAt.After(checkpoint) {
			fresh = append(fresh, rec)
		}
	}
	return fresh
}
