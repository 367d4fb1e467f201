package repository

import (
	"context"
	"sync"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	"TradePulse/pkg/cache"
)

// trendHashKey is the single hash holding symbol -> direction mappings.
const trendHashKey = "trends"

// CacheTrendStore persists confirmed trend directions in the cache layer
// (Redis in production, memory in tests).
type CacheTrendStore struct {
	cache cache.Service
}

// NewCacheTrendStore creates a trend store backed by a cache service.
func NewCacheTrendStore(c cache.Service) repository.TrendStore {
	return &CacheTrendStore{cache: c}
}

func (s *CacheTrendStore) Get(ctx context.Context, symbol string) (models.Direction, error) {
	v, err := s.cache.HGet(ctx, trendHashKey, symbol)
	if err != nil {
		return models.DirectionUnknown, err
	}
	return parseDirection(v), nil
}

func (s *CacheTrendStore) Set(ctx context.Context, symbol string, dir models.Direction) error {
	return s.cache.HSet(ctx, trendHashKey, symbol, string(dir))
}

func (s *CacheTrendStore) ListAll(ctx context.Context) (map[string]models.Direction, error) {
	raw, err := s.cache.HGetAll(ctx, trendHashKey)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.Direction, len(raw))
	for sym, v := range raw {
		if d := parseDirection(v); d != models.DirectionUnknown {
			out[sym] = d
		}
	}
	return out, nil
}

func parseDirection(s string) models.Direction {
	switch models.Direction(s) {
	case models.DirectionBullish:
		return models.DirectionBullish
	case models.DirectionBearish:
		return models.DirectionBearish
	default:
		return models.DirectionUnknown
	}
}

// MemoryTrendStore keeps trend state in-process. Used when Redis is
// disabled; state does not survive a restart.
type MemoryTrendStore struct {
	mu sync.RWMutex
	m  map[string]models.Direction
}

func NewMemoryTrendStore() *MemoryTrendStore {
	return &MemoryTrendStore{m: make(map[string]models.Direction)}
}

func (s *MemoryTrendStore) Get(_ context.Context, symbol string) (models.Direction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.m[symbol]
	if !ok {
		return models.DirectionUnknown, cache.ErrCacheMiss
	}
	return d, nil
}

func (s *MemoryTrendStore) Set(_ context.Context, symbol string, dir models.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[symbol] = dir
	return nil
}

func (s *MemoryTrendStore) ListAll(_ context.Context) (map[string]models.Direction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]models.Direction, len(s.m))
	for k, v := range s.m {
		out[k] = v
	}
	return out, nil
}
