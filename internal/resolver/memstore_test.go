package resolver

import (
	"context"
	"sync"

	"github.com/kasparro/crypto-etl/internal/model"
)

// memMappingStore is an in-memory MappingStore for tests. Lookup and
// write behavior mirrors the SQL implementation, including additive
// conflict handling.
type memMappingStore struct {
	mu       sync.Mutex
	mappings []model.AssetMapping

	createCalls int
	lookupCalls int
}

func (s *memMappingStore) MappingByProviderID(ctx context.Context, source model.SourceName, providerID string) (*model.AssetMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookupCalls++
	for i := range s.mappings {
		m := &s.mappings[i]
		switch source {
		case model.SourceCoinGecko:
			if m.CoinGeckoID != nil && *m.CoinGeckoID == providerID {
				clone := *m
				return &clone, nil
			}
		case model.SourceCoinPaprika:
			if m.CoinPaprikaID != nil && *m.CoinPaprikaID == providerID {
				clone := *m
				return &clone, nil
			}
		}
	}
	return nil, nil
}

func (s *memMappingStore) MappingsBySymbol(ctx context.Context, symbol string) ([]model.AssetMapping, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.AssetMapping
	for _, m := range s.mappings {
		if m.Symbol == symbol {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memMappingStore) CreateMapping(ctx context.Context, m model.AssetMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	for i := range s.mappings {
		if s.mappings[i].AssetUID == m.AssetUID {
			if s.mappings[i].CoinGeckoID == nil {
				s.mappings[i].CoinGeckoID = m.CoinGeckoID
			}
			if s.mappings[i].CoinPaprikaID == nil {
				s.mappings[i].CoinPaprikaID = m.CoinPaprikaID
			}
			return nil
		}
	}
	s.mappings = append(s.mappings, m)
	return nil
}

func (s *memMappingStore) FillProviderID(ctx context.Context, assetUID string, source model.SourceName, providerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.mappings {
		if s.mappings[i].AssetUID != assetUID {
			continue
		}
		switch source {
		case model.SourceCoinGecko:
			if s.mappings[i].CoinGeckoID == nil {
				s.mappings[i].CoinGeckoID = &providerID
			}
		case model.SourceCoinPaprika:
			if s.mappings[i].CoinPaprikaID == nil {
				s.mappings[i].CoinPaprikaID = &providerID
			}
		}
		return nil
	}
	return nil
}

func (s *memMappingStore) UpsertMappings(ctx context.Context, mappings []model.AssetMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
outer:
	for _, m := range mappings {
		for i := range s.mappings {
			if s.mappings[i].AssetUID == m.AssetUID {
				s.mappings[i] = m
				continue outer
			}
		}
		s.mappings = append(s.mappings, m)
	}
	return nil
}

func (s *memMappingStore) SeedMappings(ctx context.Context, mappings []model.AssetMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()
outer:
	for _, m := range mappings {
		for i := range s.mappings {
			if s.mappings[i].AssetUID == m.AssetUID {
				continue outer
			}
		}
		s.mappings = append(s.mappings, m)
	}
	return nil
}

func (s *memMappingStore) byUID(uid string) *model.AssetMapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.mappings {
		if s.mappings[i].AssetUID == uid {
			clone := s.mappings[i]
			return &clone
		}
	}
	return nil
}

// memCatalog is a fixed provider listing for bootstrap tests.
type memCatalog struct {
	name   model.SourceName
	assets []model.ListedAsset
	err    error
}

func (c *memCatalog) Name() model.SourceName { return c.name }

func (c *memCatalog) TopAssets(ctx context.Context, limit int) ([]model.ListedAsset, error) {
	if c.err != nil {
		return nil, c.err
	}
	if len(c.assets) > limit {
		return c.assets[:limit], nil
	}
	return c.assets, nil
}
