// Package confirm routes classified entry signals into per-group pending
// buffers and opens trades when one or more strategy combinations have
// accumulated enough diverse, non-duplicated evidence.
package confirm

import (
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	"TradePulse/internal/engine/dedup"
	"TradePulse/internal/engine/ledger"
	"TradePulse/internal/engine/trend"
	"TradePulse/pkg/logger"
)

// TrendMode controls how a group treats the confirmed trend.
type TrendMode string

const (
	// TrendRespect rejects signals against a confirmed trend.
	TrendRespect TrendMode = "respect"
	// TrendCounter admits counter-trend signals.
	TrendCounter TrendMode = "counter"
)

// GroupConfig is one confirmation group.
type GroupConfig struct {
	ID       int
	Enabled  bool
	Required int
	Mode     TrendMode
	// StoreContrarian keeps trend-misaligned signals buffered for later use
	// instead of dropping them. Either way no trade opens on that call.
	StoreContrarian bool
}

// Combination is a named ordered set of groups whose joint confirmation
// authorizes a trade.
type Combination struct {
	Name   string
	Groups []int
}

// Config holds group definitions, active combinations, and buffer bounds.
type Config struct {
	Groups       []GroupConfig
	Combinations []Combination
	PendingTTL   time.Duration
	MaxPerBucket int
}

// Engine evaluates every active combination independently on each routed
// signal; one inbound event may open several trades, each subject to the
// ledger caps.
type Engine struct {
	cfg     Config
	groups  map[int]GroupConfig
	pending *buffers
	dedup   *dedup.Cache
	trend   *trend.Machine
	ledger  *ledger.Ledger
	metrics repository.Metrics
	log     *logger.Logger
}

func New(cfg Config, dd *dedup.Cache, tm *trend.Machine, lg *ledger.Ledger, metrics repository.Metrics, log *logger.Logger) *Engine {
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = 10 * time.Minute
	}
	if cfg.MaxPerBucket <= 0 {
		cfg.MaxPerBucket = 50
	}
	if metrics == nil {
		metrics = repository.NopMetrics{}
	}
	groups := make(map[int]GroupConfig, len(cfg.Groups))
	for _, g := range cfg.Groups {
		if g.Required < 1 {
			g.Required = 1
		}
		groups[g.ID] = g
	}
	return &Engine{
		cfg:     cfg,
		groups:  groups,
		pending: newBuffers(cfg.PendingTTL, cfg.MaxPerBucket),
		dedup:   dd,
		trend:   tm,
		ledger:  lg,
		metrics: metrics,
		log:     log,
	}
}

// Route processes one classified entry signal and returns the trades it
// opened, possibly none.
func (e *Engine) Route(sig *models.Signal) []*models.Trade {
	cat := sig.Category
	if !cat.IsEntry() || sig.Symbol == "" {
		return nil
	}

	gcfg, ok := e.groups[cat.Group]
	if !ok || !gcfg.Enabled {
		e.log.Debug("signal for disabled group dropped",
			logger.String("symbol", sig.Symbol),
			logger.Int("group", cat.Group),
		)
		return nil
	}

	if e.dedup.Seen(sig.Symbol, sig.Normalized, cat.Group, sig.ReceivedAt) {
		e.metrics.RecordDuplicate(sig.Symbol)
		e.log.Debug("duplicate signal suppressed",
			logger.String("symbol", sig.Symbol),
			logger.String("signal", sig.Normalized),
			logger.Int("group", cat.Group),
		)
		return nil
	}

	// Stale evidence goes first, then the new signal is buffered.
	e.pending.expire(sig.Symbol, sig.ReceivedAt)
	e.pending.append(sig)

	// Trend alignment. Contrarian signals stay buffered only when the group
	// opts in; no trade opens on this call either way.
	if gcfg.Mode != TrendCounter {
		cur := e.trend.Current(sig.Symbol)
		if cur != models.DirectionUnknown && cur != cat.Direction {
			if !gcfg.StoreContrarian {
				e.pending.remove(sig)
			}
			e.log.Debug("counter-trend signal held",
				logger.String("symbol", sig.Symbol),
				logger.String("trend", string(cur)),
				logger.String("signal_direction", string(cat.Direction)),
				logger.Bool("stored", gcfg.StoreContrarian),
			)
			return nil
		}
	}

	var opened []*models.Trade
	for _, combo := range e.cfg.Combinations {
		t, err := e.evaluateCombination(sig.Symbol, cat.Direction, combo, sig.ReceivedAt)
		if err != nil {
			// One failing combination never aborts the rest.
			e.metrics.RecordError("combination")
			e.log.Error("combination evaluation failed",
				logger.String("symbol", sig.Symbol),
				logger.String("combination", combo.Name),
				logger.Error(err),
			)
			continue
		}
		if t != nil {
			opened = append(opened, t)
		}
	}
	return opened
}

// evaluateCombination checks one combination and opens a trade on success.
// Panics inside the evaluation are contained here and surfaced as errors.
func (e *Engine) evaluateCombination(symbol string, dir models.Direction, combo Combination, now time.Time) (t *models.Trade, err error) {
	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("combination %q panicked: %v", combo.Name, r)
		}
	}()

	if len(combo.Groups) == 0 {
		return nil, nil
	}

	consumed := make(map[int][]string, len(combo.Groups))
	for _, gid := range combo.Groups {
		gcfg, ok := e.groups[gid]
		if !ok || !gcfg.Enabled {
			// Configuration problem: combination references a disabled group.
			e.log.Warn("combination references disabled group",
				logger.String("combination", combo.Name),
				logger.Int("group", gid),
			)
			return nil, nil
		}
		texts := e.pending.texts(symbol, gid, dir, now)
		if len(texts) < gcfg.Required {
			return nil, nil
		}
		consumed[gid] = texts
	}

	if len(combo.Groups) >= 2 && !diverse(consumed) {
		return nil, nil
	}

	t, err = e.ledger.Open(symbol, dir, combo.Name, combo.Groups, consumed, now)
	if err != nil {
		// Cap refusals are expected; they are not evaluation failures.
		e.log.Debug("trade refused",
			logger.String("symbol", symbol),
			logger.String("combination", combo.Name),
			logger.Error(err),
		)
		return nil, nil
	}

	// The evidence is spent: clear the consumed buckets so the same signals
	// cannot justify a second trade.
	for _, gid := range combo.Groups {
		e.pending.clear(symbol, gid, dir)
	}
	e.metrics.RecordTradeOpened(symbol, combo.Name)
	return t, nil
}

// diverse verifies the multi-group diversity invariant: at least two groups
// contributed, and no signal text appears in more than one group.
func diverse(consumed map[int][]string) bool {
	contributing := 0
	owner := make(map[string]int)
	for gid, texts := range consumed {
		if len(texts) == 0 {
			continue
		}
		contributing++
		for _, txt := range texts {
			if prev, ok := owner[txt]; ok && prev != gid {
				return false
			}
			owner[txt] = gid
		}
	}
	return contributing >= 2
}

// ExpireAll drops stale pending evidence for every symbol. Called from the
// background maintenance loop.
func (e *Engine) ExpireAll(now time.Time) int {
	return e.pending.expireAll(now)
}

// PendingCount reports buffered signals for (symbol, group, direction).
func (e *Engine) PendingCount(symbol string, group int, dir models.Direction) int {
	return e.pending.count(symbol, group, dir)
}
