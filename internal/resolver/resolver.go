package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/kasparro/crypto-etl/internal/model"
)

// MappingStore is the authoritative persistence behind the resolver.
type MappingStore interface {
	// MappingByProviderID looks up a mapping by the provider-specific id
	// column for source. Returns (nil, nil) when absent.
	MappingByProviderID(ctx context.Context, source model.SourceName, providerID string) (*model.AssetMapping, error)

	// MappingsBySymbol returns all mappings for a normalized symbol in
	// stable (creation) order.
	MappingsBySymbol(ctx context.Context, symbol string) ([]model.AssetMapping, error)

	// CreateMapping inserts a new mapping. On asset_uid conflict the
	// provider ids are filled additively, never overwritten.
	CreateMapping(ctx context.Context, m model.AssetMapping) error

	// FillProviderID back-fills a missing provider id onto an existing
	// mapping. Populated ids are left untouched.
	FillProviderID(ctx context.Context, assetUID string, source model.SourceName, providerID string) error

	// UpsertMappings bulk-upserts bootstrap results, overwriting provider
	// ids and display fields so a re-run refreshes the table.
	UpsertMappings(ctx context.Context, mappings []model.AssetMapping) error

	// SeedMappings inserts fallback mappings, skipping existing rows.
	SeedMappings(ctx context.Context, mappings []model.AssetMapping) error
}

// Catalog is a provider's top-N ranked asset listing, consumed by the
// bootstrap.
type Catalog interface {
	Name() model.SourceName
	TopAssets(ctx context.Context, limit int) ([]model.ListedAsset, error)
}

// Identity is a resolved canonical identity for one incoming record.
type Identity struct {
	AssetUID      string
	CoinGeckoID   *string
	CoinPaprikaID *string
}

// Resolver maintains the canonical identity table and resolves incoming
// records to asset_uids. The in-memory cache is advisory only: entries
// may be dropped at any time and the mapping table is authoritative on
// every miss.
type Resolver struct {
	store       MappingStore
	coingecko   Catalog
	coinpaprika Catalog
	topN        int
	logger      *slog.Logger

	mu    sync.Mutex
	cache map[string]string // cache key -> asset_uid
}

// New creates a Resolver. The catalogs are only used by Bootstrap and may
// be nil in resolution-only contexts (tests).
func New(store MappingStore, coingecko, coinpaprika Catalog, topN int, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		store:       store,
		coingecko:   coingecko,
		coinpaprika: coinpaprika,
		topN:        topN,
		logger:      logger.With("component", "resolver"),
		cache:       make(map[string]string),
	}
}

// Resolve maps one normalized record to its canonical identity, creating
// a mapping when none exists. Strategies in order: provider id lookup,
// symbol lookup with name tie-break, synthesis of a new asset_uid.
func (r *Resolver) Resolve(ctx context.Context, src model.SourceName, rec model.Record) (Identity, error) {
	id := Identity{}
	switch src {
	case model.SourceCoinGecko:
		if rec.SourceID != "" {
			id.CoinGeckoID = &rec.SourceID
		}
	case model.SourceCoinPaprika:
		if rec.SourceID != "" {
			id.CoinPaprikaID = &rec.SourceID
		}
	}

	key := cacheKey(src, rec.Symbol, id)
	if uid, ok := r.cacheGet(key); ok {
		id.AssetUID = uid
		return id, nil
	}

	// Strategy 1: exact provider id lookup.
	if rec.SourceID != "" && src != model.SourceCSV {
		m, err := r.store.MappingByProviderID(ctx, src, rec.SourceID)
		if err != nil {
			return Identity{}, fmt.Errorf("lookup by provider id: %w", err)
		}
		if m != nil {
			id.AssetUID = m.AssetUID
			r.cachePut(key, m.AssetUID)
			return id, nil
		}
	}

	// Strategy 2: symbol lookup with normalized-name tie-break.
	m, err := r.lookupBySymbolName(ctx, rec.Symbol, rec.Name)
	if err != nil {
		return Identity{}, err
	}
	if m != nil {
		if err := r.enrich(ctx, m, src, rec.SourceID); err != nil {
			return Identity{}, err
		}
		id.AssetUID = m.AssetUID
		r.cachePut(key, m.AssetUID)
		return id, nil
	}

	// Strategy 3: synthesize a new canonical id and mapping.
	uid := synthesizeUID(rec.SourceID, rec.Symbol, rec.Name)
	mapping := model.AssetMapping{
		AssetUID:      uid,
		CoinGeckoID:   id.CoinGeckoID,
		CoinPaprikaID: id.CoinPaprikaID,
		Symbol:        NormalizeSymbol(rec.Symbol),
		Name:          rec.Name,
	}
	if err := r.store.CreateMapping(ctx, mapping); err != nil {
		return Identity{}, fmt.Errorf("create mapping: %w", err)
	}
	r.logger.Info("created asset mapping", "asset_uid", uid, "symbol", mapping.Symbol, "source", src)

	id.AssetUID = uid
	r.cachePut(key, uid)
	return id, nil
}

// ClearCache drops all advisory cache entries.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]string)
}

func (r *Resolver) lookupBySymbolName(ctx context.Context, symbol, name string) (*model.AssetMapping, error) {
	mappings, err := r.store.MappingsBySymbol(ctx, NormalizeSymbol(symbol))
	if err != nil {
		return nil, fmt.Errorf("lookup by symbol: %w", err)
	}
	if len(mappings) == 0 {
		return nil, nil
	}
	if len(mappings) == 1 {
		return &mappings[0], nil
	}

	wantName := NormalizeName(name)
	for i := range mappings {
		if NormalizeName(mappings[i].Name) == wantName {
			return &mappings[i], nil
		}
	}
	// No name match: first candidate wins.
	return &mappings[0], nil
}

// enrich back-fills the current provider's id onto a mapping found via
// symbol matching. Existing ids are never overwritten.
func (r *Resolver) enrich(ctx context.Context, m *model.AssetMapping, src model.SourceName, providerID string) error {
	if providerID == "" {
		return nil
	}

	switch src {
	case model.SourceCoinGecko:
		if m.CoinGeckoID != nil {
			return nil
		}
	case model.SourceCoinPaprika:
		if m.CoinPaprikaID != nil {
			return nil
		}
	default:
		return nil
	}

	if err := r.store.FillProviderID(ctx, m.AssetUID, src, providerID); err != nil {
		return fmt.Errorf("enrich mapping %s: %w", m.AssetUID, err)
	}
	r.logger.Info("enriched asset mapping", "asset_uid", m.AssetUID, "source", src, "provider_id", providerID)
	return nil
}

// synthesizeUID prefers the provider id, then a name slug, then the
// lowercased symbol.
func synthesizeUID(providerID, symbol, name string) string {
	if providerID != "" {
		return strings.ToLower(providerID)
	}
	if slug := Slug(name); slug != "" {
		return slug
	}
	return strings.ToLower(strings.TrimSpace(symbol))
}

func cacheKey(src model.SourceName, symbol string, id Identity) string {
	cg, cp := "", ""
	if id.CoinGeckoID != nil {
		cg = *id.CoinGeckoID
	}
	if id.CoinPaprikaID != nil {
		cp = *id.CoinPaprikaID
	}
	return string(src) + "|" + NormalizeSymbol(symbol) + "|" + cg + "|" + cp
}

func (r *Resolver) cacheGet(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	uid, ok := r.cache[key]
	return uid, ok
}

func (r *Resolver) cachePut(key, uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[key] = uid
}
