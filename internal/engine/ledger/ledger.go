// Package ledger tracks synthetic open/closed trades per symbol and enforces
// the per-symbol, global, and per-combination caps.
package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"TradePulse/internal/domain/models"
)

var (
	ErrSymbolBusy     = errors.New("ledger: symbol already has an open trade")
	ErrSymbolCap      = errors.New("ledger: per-symbol trade cap reached")
	ErrGlobalCap      = errors.New("ledger: global open trade cap reached")
	ErrCombinationCap = errors.New("ledger: per-combination trade cap reached")
)

// Config holds the trade caps. Zero means unlimited, except MaxOpenPerSymbol
// which defaults to 1.
type Config struct {
	MaxOpenPerSymbol  int
	MaxPerSymbol      int
	MaxOpenGlobal     int
	MaxPerCombination int
}

// Ledger is the in-memory trade book.
type Ledger struct {
	mu     sync.RWMutex
	cfg    Config
	trades []*models.Trade

	openBySymbol   map[string]int
	totalBySymbol  map[string]int
	totalByCombo   map[string]int // symbol + "|" + combination
	openGlobal     int
}

func New(cfg Config) *Ledger {
	if cfg.MaxOpenPerSymbol <= 0 {
		cfg.MaxOpenPerSymbol = 1
	}
	return &Ledger{
		cfg:           cfg,
		openBySymbol:  make(map[string]int),
		totalBySymbol: make(map[string]int),
		totalByCombo:  make(map[string]int),
	}
}

// Open records a new trade, or returns the cap violation that refused it.
func (l *Ledger) Open(symbol string, dir models.Direction, combination string, groups []int, consumed map[int][]string, now time.Time) (*models.Trade, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.openBySymbol[symbol] >= l.cfg.MaxOpenPerSymbol {
		return nil, ErrSymbolBusy
	}
	if l.cfg.MaxPerSymbol > 0 && l.totalBySymbol[symbol] >= l.cfg.MaxPerSymbol {
		return nil, ErrSymbolCap
	}
	if l.cfg.MaxOpenGlobal > 0 && l.openGlobal >= l.cfg.MaxOpenGlobal {
		return nil, ErrGlobalCap
	}
	comboKey := symbol + "|" + combination
	if l.cfg.MaxPerCombination > 0 && l.totalByCombo[comboKey] >= l.cfg.MaxPerCombination {
		return nil, ErrCombinationCap
	}

	t := &models.Trade{
		ID:              uuid.NewString(),
		Symbol:          symbol,
		Direction:       dir,
		Combination:     combination,
		Groups:          append([]int(nil), groups...),
		ConsumedSignals: consumed,
		OpenedAt:        now,
		Status:          models.TradeOpen,
	}
	l.trades = append(l.trades, t)
	l.openBySymbol[symbol]++
	l.totalBySymbol[symbol]++
	l.totalByCombo[comboKey]++
	l.openGlobal++
	return t, nil
}

// CloseForExit closes every open trade for the symbol, whichever combination
// opened it. Zero open trades is a no-op, explicitly not an error.
func (l *Ledger) CloseForExit(symbol, exitText string, now time.Time) []*models.Trade {
	return l.closeWhere(symbol, now, "exit: "+exitText, func(*models.Trade) bool { return true })
}

// CloseCounterTrend closes open trades whose direction no longer matches a
// freshly confirmed trend.
func (l *Ledger) CloseCounterTrend(symbol string, newDir models.Direction, now time.Time) []*models.Trade {
	return l.closeWhere(symbol, now, "trend flip to "+string(newDir), func(t *models.Trade) bool {
		return t.Direction == newDir.Opposite()
	})
}

func (l *Ledger) closeWhere(symbol string, now time.Time, reason string, match func(*models.Trade) bool) []*models.Trade {
	l.mu.Lock()
	defer l.mu.Unlock()

	var closed []*models.Trade
	for _, t := range l.trades {
		if t.Symbol != symbol || t.Status != models.TradeOpen || !match(t) {
			continue
		}
		t.Status = models.TradeClosed
		t.ClosedAt = now
		t.CloseReason = reason
		l.openBySymbol[symbol]--
		l.openGlobal--
		closed = append(closed, t)
	}
	return closed
}

// OpenCount reports currently open trades, globally or for one symbol.
func (l *Ledger) OpenCount(symbol string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if symbol == "" {
		return l.openGlobal
	}
	return l.openBySymbol[symbol]
}

// List returns trade summaries filtered by symbol and status, newest first.
func (l *Ledger) List(symbol string, status models.TradeStatus, limit int) []models.TradeSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.TradeSummary, 0, limit)
	for i := len(l.trades) - 1; i >= 0 && len(out) < limit; i-- {
		t := l.trades[i]
		if symbol != "" && t.Symbol != symbol {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, t.Summary())
	}
	return out
}

// Reset drops all records. Full-system cleanup only.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trades = nil
	l.openBySymbol = make(map[string]int)
	l.totalBySymbol = make(map[string]int)
	l.totalByCombo = make(map[string]int)
	l.openGlobal = 0
}
