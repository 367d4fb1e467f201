package trend

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePulse/internal/domain/models"
	"TradePulse/pkg/logger"
)

type stubStore struct {
	mu   sync.Mutex
	sets map[string]models.Direction
	all  map[string]models.Direction
}

func newStubStore() *stubStore {
	return &stubStore{sets: make(map[string]models.Direction)}
}

func (s *stubStore) Get(_ context.Context, symbol string) (models.Direction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets[symbol], nil
}

func (s *stubStore) Set(_ context.Context, symbol string, dir models.Direction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[symbol] = dir
	return nil
}

func (s *stubStore) ListAll(_ context.Context) (map[string]models.Direction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.all, nil
}

func TestUpdateConfirmsAtThreshold(t *testing.T) {
	m := New(Config{ConfirmThreshold: 2}, nil, logger.NewNop())
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	flipped, old := m.Update("BTCUSDT", "bullish momentum", now)
	assert.False(t, flipped)
	assert.Equal(t, models.DirectionUnknown, old)
	assert.Equal(t, models.DirectionUnknown, m.Current("BTCUSDT"))
	assert.Equal(t, 1, m.PendingCount("BTCUSDT"))

	flipped, old = m.Update("BTCUSDT", "bullish breakout", now.Add(time.Minute))
	assert.True(t, flipped)
	assert.Equal(t, models.DirectionUnknown, old)
	assert.Equal(t, models.DirectionBullish, m.Current("BTCUSDT"))
	// Confirmation spends the pool.
	assert.Equal(t, 0, m.PendingCount("BTCUSDT"))
}

func TestUpdateDuplicateTextDoesNotAdvance(t *testing.T) {
	m := New(Config{ConfirmThreshold: 2}, nil, logger.NewNop())
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	m.Update("BTCUSDT", "bullish momentum", now)
	flipped, _ := m.Update("BTCUSDT", "bullish momentum", now.Add(time.Second))
	assert.False(t, flipped)
	assert.Equal(t, 1, m.PendingCount("BTCUSDT"))
}

func TestUpdateOppositeDirectionResetsPool(t *testing.T) {
	m := New(Config{ConfirmThreshold: 2}, nil, logger.NewNop())
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	m.Update("BTCUSDT", "bullish momentum", now)
	flipped, _ := m.Update("BTCUSDT", "bearish divergence", now.Add(time.Second))
	assert.False(t, flipped)
	assert.Equal(t, 1, m.PendingCount("BTCUSDT"))

	// The bearish pool is fresh; one more distinct bearish text confirms.
	flipped, _ = m.Update("BTCUSDT", "bearish volume", now.Add(2*time.Second))
	assert.True(t, flipped)
	assert.Equal(t, models.DirectionBearish, m.Current("BTCUSDT"))
}

func TestUpdateRejectsUnknownDirection(t *testing.T) {
	m := New(Config{ConfirmThreshold: 1}, nil, logger.NewNop())
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	flipped, _ := m.Update("BTCUSDT", "sideways chop", now)
	assert.False(t, flipped)
	assert.Equal(t, 0, m.PendingCount("BTCUSDT"))
	assert.Equal(t, models.DirectionUnknown, m.Current("BTCUSDT"))
}

func TestReconfirmSameDirectionIsNotAFlip(t *testing.T) {
	m := New(Config{ConfirmThreshold: 1}, nil, logger.NewNop())
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	flipped, _ := m.Update("BTCUSDT", "bullish momentum", now)
	require.True(t, flipped)

	flipped, old := m.Update("BTCUSDT", "bullish continuation", now.Add(time.Minute))
	assert.False(t, flipped)
	assert.Equal(t, models.DirectionBullish, old)
}

func TestConfirmPersistsToStore(t *testing.T) {
	store := newStubStore()
	m := New(Config{ConfirmThreshold: 1}, store, logger.NewNop())
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	m.Update("ETHUSDT", "bearish breakdown", now)
	assert.Equal(t, models.DirectionBearish, store.sets["ETHUSDT"])
}

func TestWarmStart(t *testing.T) {
	store := newStubStore()
	store.all = map[string]models.Direction{
		"BTCUSDT": models.DirectionBullish,
		"ETHUSDT": models.DirectionBearish,
		"BROKEN":  models.DirectionUnknown,
	}
	m := New(Config{ConfirmThreshold: 2}, store, logger.NewNop())
	m.WarmStart(context.Background())

	assert.Equal(t, models.DirectionBullish, m.Current("BTCUSDT"))
	assert.Equal(t, models.DirectionBearish, m.Current("ETHUSDT"))
	assert.Equal(t, models.DirectionUnknown, m.Current("BROKEN"))
}

func TestDirectionOf(t *testing.T) {
	assert.Equal(t, models.DirectionBullish, DirectionOf("uptrend started"))
	assert.Equal(t, models.DirectionBearish, DirectionOf("downtrend started"))
	assert.Equal(t, models.DirectionBullish, DirectionOf("Bullish Trend"))
	assert.Equal(t, models.DirectionUnknown, DirectionOf("sideways"))
}
