package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kasparro/crypto-etl/internal/etl"
	"github.com/kasparro/crypto-etl/internal/model"
	"github.com/kasparro/crypto-etl/internal/resolver"
	"github.com/kasparro/crypto-etl/internal/store"
)

// Datastore is the read surface the handlers serve. *store.Store
// satisfies it.
type Datastore interface {
	ListAssets(ctx context.Context, f store.AssetFilter) ([]model.CanonicalAsset, error)
	GetAsset(ctx context.Context, assetUID string) (*model.CanonicalAsset, error)
	ListRawRecords(ctx context.Context, source model.SourceName, limit, offset int) ([]model.RawRecord, error)
	GetRawRecord(ctx context.Context, source model.SourceName, id uuid.UUID) (*model.RawRecord, error)
	ListMappings(ctx context.Context, limit, offset int) ([]model.AssetMapping, error)
	ListRuns(ctx context.Context, f store.RunFilter) ([]model.Run, error)
	ListCheckpoints(ctx context.Context) ([]model.Checkpoint, error)
	Stats(ctx context.Context) (*store.Stats, error)
}

// Pipeline triggers ETL cycles. *etl.Orchestrator satisfies it.
type Pipeline interface {
	Run(ctx context.Context, src model.SourceName) etl.Result
	RunAll(ctx context.Context) []etl.Result
}

// Bootstrapper rebuilds the identity table. *resolver.Resolver
// satisfies it.
type Bootstrapper interface {
	Bootstrap(ctx context.Context) resolver.BootstrapResult
}

// Handler carries the dependencies behind the HTTP surface.
type Handler struct {
	store    Datastore
	pipeline Pipeline
	boot     Bootstrapper
	logger   *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(ds Datastore, pipeline Pipeline, boot Bootstrapper, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:    ds,
		pipeline: pipeline,
		boot:     boot,
		logger:   logger.With("component", "server"),
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listAssets serves GET /v1/data with filter, sort and pagination query
// parameters.
func (h *Handler) listAssets(c *gin.Context) {
	f := store.AssetFilter{
		Source:   model.SourceName(c.Query("source")),
		Symbol:   c.Query("symbol"),
		NameLike: c.Query("name"),
		Sort:     c.Query("sort"),
		Limit:    intQuery(c, "limit", 100),
		Offset:   intQuery(c, "offset", 0),
	}
	if f.Source != "" && !f.Source.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown source"})
		return
	}
	if !store.ValidSort(f.Sort) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sort"})
		return
	}
	if v := c.Query("min_rank"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.MinRank = &n
		}
	}
	if v := c.Query("max_rank"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.MaxRank = &n
		}
	}

	assets, err := h.store.ListAssets(c.Request.Context(), f)
	if err != nil {
		h.serverError(c, err)
		return
	}

	out := make([]assetResponse, 0, len(assets))
	for _, a := range assets {
		out = append(out, toAssetResponse(a))
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "count": len(out)})
}

func (h *Handler) getAsset(c *gin.Context) {
	asset, err := h.store.GetAsset(c.Request.Context(), c.Param("asset_uid"))
	if err != nil {
		h.serverError(c, err)
		return
	}
	if asset == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "asset not found"})
		return
	}
	c.JSON(http.StatusOK, toAssetResponse(*asset))
}

func (h *Handler) listRaw(c *gin.Context) {
	src := model.SourceName(c.Param("source"))
	if !src.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown source"})
		return
	}

	records, err := h.store.ListRawRecords(c.Request.Context(), src,
		intQuery(c, "limit", 100), intQuery(c, "offset", 0))
	if err != nil {
		h.serverError(c, err)
		return
	}

	out := make([]rawResponse, 0, len(records))
	for _, r := range records {
		out = append(out, toRawResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "count": len(out)})
}

func (h *Handler) getRaw(c *gin.Context) {
	src := model.SourceName(c.Param("source"))
	if !src.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown source"})
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	record, err := h.store.GetRawRecord(c.Request.Context(), src, id)
	if err != nil {
		h.serverError(c, err)
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	c.JSON(http.StatusOK, toRawResponse(*record))
}

func (h *Handler) listMappings(c *gin.Context) {
	mappings, err := h.store.ListMappings(c.Request.Context(),
		intQuery(c, "limit", 100), intQuery(c, "offset", 0))
	if err != nil {
		h.serverError(c, err)
		return
	}

	out := make([]mappingResponse, 0, len(mappings))
	for _, m := range mappings {
		out = append(out, toMappingResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "count": len(out)})
}

func (h *Handler) listRuns(c *gin.Context) {
	f := store.RunFilter{
		Source: model.SourceName(c.Query("source")),
		Status: model.RunStatus(c.Query("status")),
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}

	runs, err := h.store.ListRuns(c.Request.Context(), f)
	if err != nil {
		h.serverError(c, err)
		return
	}

	out := make([]runResponse, 0, len(runs))
	for _, r := range runs {
		out = append(out, toRunResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "count": len(out)})
}

func (h *Handler) listCheckpoints(c *gin.Context) {
	checkpoints, err := h.store.ListCheckpoints(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}

	out := make([]checkpointResponse, 0, len(checkpoints))
	for _, cp := range checkpoints {
		out = append(out, toCheckpointResponse(cp))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// runSource serves POST /v1/etl/run/:source.
func (h *Handler) runSource(c *gin.Context) {
	src := model.SourceName(c.Param("source"))
	if !src.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown source"})
		return
	}

	res := h.pipeline.Run(c.Request.Context(), src)
	if errors.Is(res.Err, etl.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": res.Err.Error()})
		return
	}

	status := http.StatusOK
	if res.Err != nil {
		status = http.StatusInternalServerError
	}
	c.JSON(status, toResultResponse(res))
}

// runAll serves POST /v1/etl/run-all. Per-source failures are reported
// in the body, not as an HTTP error.
func (h *Handler) runAll(c *gin.Context) {
	results := h.pipeline.RunAll(c.Request.Context())

	out := make([]resultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, toResultResponse(r))
	}
	c.JSON(http.StatusOK, gin.H{"results": out})
}

// bootstrap serves POST /v1/etl/bootstrap.
func (h *Handler) bootstrap(c *gin.Context) {
	res := h.boot.Bootstrap(c.Request.Context())

	body := gin.H{
		"success":      res.Success,
		"mappings":     res.Mappings,
		"full_matches": res.FullMatches,
	}
	if res.Err != nil {
		body["error"] = res.Err.Error()
	}

	// A failed fetch with fallback seeding still installed mappings, so
	// it is not an HTTP error.
	status := http.StatusOK
	if !res.Success && res.Mappings == 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, body)
}

func toResultResponse(r etl.Result) resultResponse {
	out := resultResponse{
		Source:           string(r.Source),
		RunID:            r.RunID,
		Success:          r.Success,
		RecordsProcessed: r.RecordsProcessed,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func (h *Handler) serverError(c *gin.Context, err error) {
	h.logger.Error("request failed", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func intQuery(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
