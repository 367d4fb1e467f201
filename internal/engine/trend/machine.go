// Package trend holds the per-symbol trend state machine: distinct signal
// texts accumulate toward a confirmation threshold, opposite-direction
// evidence restarts the pool.
package trend

import (
	"context"
	"strings"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	"TradePulse/pkg/logger"
)

// storeTimeout bounds trend store round-trips so persistence can never stall
// signal processing for long.
const storeTimeout = 2 * time.Second

// Config controls trend confirmation.
type Config struct {
	// ConfirmThreshold is the number of distinct signal texts required to
	// confirm a directional flip. 1 confirms on every valid signal.
	ConfirmThreshold int
}

type pool struct {
	candidate models.Direction
	seen      map[string]time.Time
}

// Machine is the per-symbol trend state machine. Confirmed directions are
// persisted to an optional TrendStore and recoverable at startup.
type Machine struct {
	mu        sync.RWMutex
	threshold int
	pools     map[string]*pool
	confirmed map[string]models.Direction
	store     repository.TrendStore
	log       *logger.Logger
}

func New(cfg Config, store repository.TrendStore, log *logger.Logger) *Machine {
	if cfg.ConfirmThreshold < 1 {
		cfg.ConfirmThreshold = 1
	}
	return &Machine{
		threshold: cfg.ConfirmThreshold,
		pools:     make(map[string]*pool),
		confirmed: make(map[string]models.Direction),
		store:     store,
		log:       log,
	}
}

// WarmStart loads previously confirmed directions from the trend store.
// A missing or failing store degrades to "unknown everywhere".
func (m *Machine) WarmStart(ctx context.Context) {
	if m.store == nil {
		return
	}
	all, err := m.store.ListAll(ctx)
	if err != nil {
		if m.log != nil {
			m.log.Warn("trend warm start failed", logger.Error(err))
		}
		return
	}
	m.mu.Lock()
	for sym, dir := range all {
		if dir == models.DirectionBullish || dir == models.DirectionBearish {
			m.confirmed[sym] = dir
		}
	}
	m.mu.Unlock()
	if m.log != nil {
		m.log.Info("trend warm start", logger.Int("symbols", len(all)))
	}
}

// Update records a trend signal. Text whose direction cannot be determined
// is rejected with no state change. Returns whether the confirmed direction
// flipped and the direction confirmed before this call.
func (m *Machine) Update(symbol, text string, now time.Time) (flipped bool, old models.Direction) {
	dir := DirectionOf(text)

	m.mu.Lock()
	old = m.currentLocked(symbol)
	if dir == models.DirectionUnknown {
		m.mu.Unlock()
		return false, old
	}

	p, ok := m.pools[symbol]
	if !ok || p.candidate != dir {
		// A direction change restarts evidence collection from zero; prior
		// evidence never carries over across a flip.
		p = &pool{candidate: dir, seen: make(map[string]time.Time)}
		m.pools[symbol] = p
	}
	if _, dup := p.seen[text]; !dup {
		p.seen[text] = now
	}

	if len(p.seen) < m.threshold {
		m.mu.Unlock()
		return false, old
	}

	// Confirmed: promote, clear the pool.
	m.confirmed[symbol] = dir
	delete(m.pools, symbol)
	m.mu.Unlock()

	m.persist(symbol, dir)
	return old != dir, old
}

// Current returns the last confirmed direction for the symbol, or unknown.
func (m *Machine) Current(symbol string) models.Direction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentLocked(symbol)
}

// PendingCount reports distinct evidence collected for the symbol so far.
func (m *Machine) PendingCount(symbol string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.pools[symbol]; ok {
		return len(p.seen)
	}
	return 0
}

func (m *Machine) currentLocked(symbol string) models.Direction {
	if dir, ok := m.confirmed[symbol]; ok {
		return dir
	}
	return models.DirectionUnknown
}

// persist writes the confirmed direction without holding the machine lock.
func (m *Machine) persist(symbol string, dir models.Direction) {
	if m.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := m.store.Set(ctx, symbol, dir); err != nil && m.log != nil {
		m.log.Warn("trend persist failed",
			logger.String("symbol", symbol),
			logger.Error(err),
		)
	}
}

// DirectionOf derives a candidate direction from signal text.
func DirectionOf(text string) models.Direction {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "bull"), strings.Contains(t, "up"):
		return models.DirectionBullish
	case strings.Contains(t, "bear"), strings.Contains(t, "down"):
		return models.DirectionBearish
	default:
		return models.DirectionUnknown
	}
}
