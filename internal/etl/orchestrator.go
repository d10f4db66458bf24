package etl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kasparro/crypto-etl/internal/ingest"
	"github.com/kasparro/crypto-etl/internal/model"
	"github.com/kasparro/crypto-etl/internal/resolver"
	"github.com/kasparro/crypto-etl/internal/source"
)

// ErrRunInProgress is returned when a run is requested for a source that
// already has one executing.
var ErrRunInProgress = errors.New("run already in progress for source")

// Store is the persistence the orchestrator needs outside a transaction.
type Store interface {
	GetCheckpoint(ctx context.Context, source model.SourceName) (time.Time, bool, error)
	CreateRun(ctx context.Context, source model.SourceName) (*model.Run, error)
	FinishRun(ctx context.Context, runID uuid.UUID, status model.RunStatus, recordsProcessed int, errorMessage *string, metadata json.RawMessage) error
	Begin(ctx context.Context) (Tx, error)
}

// Tx is the transactional slice of the store a cycle commits through.
type Tx interface {
	InsertRawRecords(ctx context.Context, source model.SourceName, records []model.RawRecord) error
	UpsertAssets(ctx context.Context, assets []model.CanonicalAsset) error
	AdvanceCheckpoint(ctx context.Context, source model.SourceName, to time.Time) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// IdentityResolver maps records to canonical identities.
type IdentityResolver interface {
	Resolve(ctx context.Context, src model.SourceName, rec model.Record) (resolver.Identity, error)
}

// Result is the outcome of one ETL cycle for one source.
type Result struct {
	Source           model.SourceName `json:"source"`
	RunID            uuid.UUID        `json:"run_id"`
	Success          bool             `json:"success"`
	RecordsProcessed int              `json:"records_processed"`
	Err              error            `json:"-"`
}

// runMetadata is persisted on the run row for observability.
type runMetadata struct {
	Fetched    int        `json:"fetched"`
	Normalized int        `json:"normalized"`
	Upserted   int        `json:"upserted"`
	Checkpoint *time.Time `json:"checkpoint,omitempty"`
}

// Orchestrator executes ETL cycles with at most one in flight per
// source.
type Orchestrator struct {
	store    Store
	resolver IdentityResolver
	runner   *ingest.Runner
	adapters map[model.SourceName]source.Adapter
	order    []model.SourceName
	logger   *slog.Logger

	mu       sync.Mutex
	inFlight map[model.SourceName]bool
}

// New creates an Orchestrator over the given adapters. RunAll executes
// sources in the order given.
func New(st Store, res IdentityResolver, adapters []source.Adapter, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[model.SourceName]source.Adapter, len(adapters))
	order := make([]model.SourceName, 0, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
		order = append(order, a.Name())
	}
	return &Orchestrator{
		store:    st,
		resolver: res,
		runner:   ingest.NewRunner(logger),
		adapters: byName,
		order:    order,
		logger:   logger.With("component", "etl"),
		inFlight: make(map[model.SourceName]bool),
	}
}

// Sources lists the configured sources in run order.
func (o *Orchestrator) Sources() []model.SourceName {
	out := make([]model.SourceName, len(o.order))
	copy(out, o.order)
	return out
}

// Run executes one full cycle for a source. Concurrent calls for the
// same source beyond the first fail fast with ErrRunInProgress.
func (o *Orchestrator) Run(ctx context.Context, src model.SourceName) Result {
	adapter, ok := o.adapters[src]
	if !ok {
		return Result{Source: src, Err: fmt.Errorf("source %q is not configured", src)}
	}

	if !o.acquire(src) {
		return Result{Source: src, Err: ErrRunInProgress}
	}
	defer o.release(src)

	run, err := o.store.CreateRun(ctx, src)
	if err != nil {
		return Result{Source: src, Err: fmt.Errorf("create run: %w", err)}
	}

	logger := o.logger.With("source", src, "run_id", run.RunID)
	logger.Info("etl cycle starting")
	start := time.Now()

	processed, meta, err := o.cycle(ctx, src, adapter)
	if err != nil {
		o.finish(ctx, run.RunID, model.RunFailure, 0, err, meta)
		logger.Error("etl cycle failed", "error", err, "elapsed", time.Since(start))
		return Result{Source: src, RunID: run.RunID, Err: err}
	}

	o.finish(ctx, run.RunID, model.RunSuccess, processed, nil, meta)
	logger.Info("etl cycle complete",
		"records_processed", processed,
		"elapsed", time.Since(start),
	)
	return Result{Source: src, RunID: run.RunID, Success: true, RecordsProcessed: processed}
}

// RunAll executes one cycle per configured source, sequentially in run
// order. One source failing does not stop the rest.
func (o *Orchestrator) RunAll(ctx context.Context) []Result {
	results := make([]Result, 0, len(o.order))
	for _, src := range o.order {
		results = append(results, o.Run(ctx, src))
	}
	return results
}

// cycle runs fetch through commit and returns the processed-record
// count and metadata for the run row.
func (o *Orchestrator) cycle(ctx context.Context, src model.SourceName, adapter source.Adapter) (int, runMetadata, error) {
	var meta runMetadata

	checkpoint, hasCheckpoint, err := o.store.GetCheckpoint(ctx, src)
	if err != nil {
		return 0, meta, fmt.Errorf("load checkpoint: %w", err)
	}

	fresh, err := o.runner.FetchFresh(ctx, adapter, checkpoint, hasCheckpoint)
	if err != nil {
		return 0, meta, fmt.Errorf("fetch: %w", err)
	}
	meta.Fetched = len(fresh)

	if len(fresh) == 0 {
		o.logger.Info("no fresh records, checkpoint unchanged", "source", src)
		return 0, meta, nil
	}

	raw := make([]model.RawRecord, 0, len(fresh))
	for _, rec := range fresh {
		raw = append(raw, model.RawRecord{
			ID:              uuid.New(),
			Payload:         rec.Payload,
			SourceUpdatedAt: rec.SourceUpdatedAt,
		})
	}

	assets, normalized, err := o.normalize(ctx, src, fresh)
	if err != nil {
		return 0, meta, err
	}
	meta.Normalized = normalized

	deduped := DedupByFreshness(assets)
	meta.Upserted = len(deduped)

	watermark := maxSourceTime(fresh)
	meta.Checkpoint = &watermark

	tx, err := o.store.Begin(ctx)
	if err != nil {
		return 0, meta, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx))

	if err := tx.InsertRawRecords(ctx, src, raw); err != nil {
		return 0, meta, fmt.Errorf("archive raw payloads: %w", err)
	}
	if err := tx.UpsertAssets(ctx, deduped); err != nil {
		return 0, meta, fmt.Errorf("upsert assets: %w", err)
	}
	if err := tx.AdvanceCheckpoint(ctx, src, watermark); err != nil {
		return 0, meta, fmt.Errorf("advance checkpoint: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, meta, fmt.Errorf("commit: %w", err)
	}

	return normalized, meta, nil
}

// normalize resolves identities and builds canonical rows. Records with
// no symbol cannot be resolved and are dropped with a warning; they
// still reach the raw archive.
func (o *Orchestrator) normalize(ctx context.Context, src model.SourceName, records []model.Record) ([]model.CanonicalAsset, int, error) {
	assets := make([]model.CanonicalAsset, 0, len(records))
	for _, rec := range records {
		if rec.Symbol == "" {
			o.logger.Warn("dropping record with empty symbol", "source", src, "name", rec.Name)
			continue
		}

		identity, err := o.resolver.Resolve(ctx, src, rec)
		if err != nil {
			return nil, 0, fmt.Errorf("resolve %s/%s: %w", src, rec.Symbol, err)
		}

		assets = append(assets, model.CanonicalAsset{
			AssetUID:        identity.AssetUID,
			Symbol:          rec.Symbol,
			Name:            rec.Name,
			PriceUSD:        rec.PriceUSD,
			MarketCapUSD:    rec.MarketCapUSD,
			Rank:            rec.Rank,
			Source:          src,
			CoinGeckoID:     identity.CoinGeckoID,
			CoinPaprikaID:   identity.CoinPaprikaID,
			SourceUpdatedAt: rec.SourceUpdatedAt,
		})
	}
	return assets, len(assets), nil
}

// finish records the terminal run state. It uses a detached context so
// a canceled cycle still gets its failure row.
func (o *Orchestrator) finish(ctx context.Context, runID uuid.UUID, status model.RunStatus, processed int, runErr error, meta runMetadata) {
	var errMsg *string
	if runErr != nil {
		msg := runErr.Error()
		errMsg = &msg
	}

	metadata, err := json.Marshal(meta)
	if err != nil {
		metadata = nil
	}

	if err := o.store.FinishRun(context.WithoutCancel(ctx), runID, status, processed, errMsg, metadata); err != nil {
		o.logger.Error("failed to record run outcome", "run_id", runID, "error", err)
	}
}

func (o *Orchestrator) acquire(src model.SourceName) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight[src] {
		return false
	}
	o.inFlight[src] = true
	return true
}

func (o *Orchestrator) release(src model.SourceName) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, src)
}
