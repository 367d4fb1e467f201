package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
	"TradePulse/internal/engine/classify"
	"TradePulse/internal/engine/confirm"
	"TradePulse/internal/engine/dedup"
	"TradePulse/internal/engine/ledger"
	"TradePulse/internal/engine/trend"
	"TradePulse/pkg/logger"
)

// emitTimeout bounds backend writes made off the signal path.
const emitTimeout = 5 * time.Second

// effect is an audit event plus its notification payload, collected while
// the symbol lock is held and flushed after it is released.
type effect struct {
	kind    string
	event   *models.TradeEvent
	payload any
}

// SignalProcessor is the ingest pipeline: classify the raw text, then route
// it into the trend machine, the confirmation engine, or the ledger's exit
// path. Routing for one symbol runs under that symbol's mutex, so the
// append-count-open-clear sequence inside the confirmation engine can never
// interleave with another signal for the same symbol. Audit events and
// notifications leave on background workers after the lock is released.
type SignalProcessor struct {
	classifier  *classify.Classifier
	dedup       *dedup.Cache
	trend       *trend.Machine
	confirm     *confirm.Engine
	ledger      *ledger.Ledger
	events      *EventSink
	notifier    drepo.Notifier
	metrics     drepo.Metrics
	closeOnFlip bool
	log         *logger.Logger

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewSignalProcessor wires the engine components into one pipeline.
func NewSignalProcessor(
	classifier *classify.Classifier,
	dd *dedup.Cache,
	tm *trend.Machine,
	ce *confirm.Engine,
	lg *ledger.Ledger,
	events *EventSink,
	notifier drepo.Notifier,
	metrics drepo.Metrics,
	closeOnFlip bool,
	log *logger.Logger,
) *SignalProcessor {
	if metrics == nil {
		metrics = drepo.NopMetrics{}
	}
	return &SignalProcessor{
		classifier:  classifier,
		dedup:       dd,
		trend:       tm,
		confirm:     ce,
		ledger:      lg,
		events:      events,
		notifier:    notifier,
		metrics:     metrics,
		closeOnFlip: closeOnFlip,
		log:         log,
		locks:       make(map[string]*sync.Mutex),
	}
}

// symbolLock returns the mutex serializing all engine mutation for one
// symbol. Locks are never freed; the universe of symbols is small.
func (p *SignalProcessor) symbolLock(symbol string) *sync.Mutex {
	p.lockMu.Lock()
	defer p.lockMu.Unlock()
	lk, ok := p.locks[symbol]
	if !ok {
		lk = &sync.Mutex{}
		p.locks[symbol] = lk
	}
	return lk
}

// Process handles one inbound signal and reports what it changed.
func (p *SignalProcessor) Process(ctx context.Context, symbol, rawText string, receivedAt time.Time) (*models.ProcessingResult, error) {
	start := time.Now()
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	cat := p.classifier.Classify(rawText)
	sig := &models.Signal{
		Symbol:     symbol,
		RawText:    rawText,
		Normalized: classify.Normalize(rawText),
		Category:   cat,
		ReceivedAt: receivedAt,
	}

	p.metrics.RecordSignal(symbol, cat.String())
	res := &models.ProcessingResult{
		Symbol:         symbol,
		Classification: cat.String(),
	}

	var fx []effect
	lk := p.symbolLock(symbol)
	lk.Lock()
	switch cat.Kind {
	case models.KindTrend, models.KindTrendConfirm:
		fx = p.processTrend(sig, res)
	case models.KindEntry:
		fx = p.processEntry(sig, res)
	case models.KindExit:
		fx = p.processExit(sig, res)
	default:
		p.log.Debug("unclassified signal dropped",
			logger.String("symbol", symbol),
			logger.String("text", sig.Normalized))
	}
	lk.Unlock()

	for _, e := range fx {
		p.emit(e.event, e.kind)
		p.notify(e.kind, e.payload)
	}

	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return res, nil
}

// processTrend feeds the trend machine. Duplicate trend texts inside the
// block window never advance the confirmation count.
func (p *SignalProcessor) processTrend(sig *models.Signal, res *models.ProcessingResult) []effect {
	// Trend and exit texts share the zero group in the dedup keyspace.
	if p.dedup.Seen(sig.Symbol, sig.Normalized, 0, sig.ReceivedAt) {
		p.metrics.RecordDuplicate(sig.Symbol)
		return nil
	}

	flipped, old := p.trend.Update(sig.Symbol, sig.Normalized, sig.ReceivedAt)
	cur := p.trend.Current(sig.Symbol)
	res.TrendDirection = cur
	if !flipped {
		return nil
	}

	res.TrendChanged = true
	p.metrics.RecordTrendFlip(sig.Symbol, string(cur))
	p.log.Info("trend confirmed",
		logger.String("symbol", sig.Symbol),
		logger.String("from", string(old)),
		logger.String("to", string(cur)))

	var fx []effect
	if p.closeOnFlip {
		closed := p.ledger.CloseCounterTrend(sig.Symbol, cur, sig.ReceivedAt)
		res.ClosedTrades += len(closed)
		for _, t := range closed {
			p.metrics.RecordTradeClosed(t.Symbol, t.CloseReason)
			fx = append(fx, p.afterClose(t))
		}
	}

	flip := &models.TradeEvent{
		Type:      "trend_flip",
		Symbol:    sig.Symbol,
		Direction: cur,
		At:        sig.ReceivedAt,
	}
	return append(fx, effect{kind: "trend_flip", event: flip, payload: flip})
}

func (p *SignalProcessor) processEntry(sig *models.Signal, res *models.ProcessingResult) []effect {
	opened := p.confirm.Route(sig)
	var fx []effect
	for _, t := range opened {
		res.TradesOpened = append(res.TradesOpened, t.Summary())
		p.log.Info("trade opened",
			logger.String("symbol", t.Symbol),
			logger.String("trade_id", t.ID),
			logger.String("direction", string(t.Direction)),
			logger.String("combination", t.Combination))
		fx = append(fx, effect{
			kind: "trade_opened",
			event: &models.TradeEvent{
				Type:        "trade_opened",
				Symbol:      t.Symbol,
				TradeID:     t.ID,
				Direction:   t.Direction,
				Combination: t.Combination,
				At:          t.OpenedAt,
			},
			// The ledger keeps mutating the live record; background
			// marshalers get a snapshot.
			payload: t.Clone(),
		})
	}
	return fx
}

func (p *SignalProcessor) processExit(sig *models.Signal, res *models.ProcessingResult) []effect {
	if p.dedup.Seen(sig.Symbol, sig.Normalized, 0, sig.ReceivedAt) {
		p.metrics.RecordDuplicate(sig.Symbol)
		return nil
	}

	closed := p.ledger.CloseForExit(sig.Symbol, sig.Normalized, sig.ReceivedAt)
	res.ClosedTrades = len(closed)
	var fx []effect
	for _, t := range closed {
		p.metrics.RecordTradeClosed(t.Symbol, t.CloseReason)
		fx = append(fx, p.afterClose(t))
	}
	if len(closed) == 0 {
		p.log.Debug("exit signal with no open trades",
			logger.String("symbol", sig.Symbol),
			logger.String("text", sig.Normalized))
	}
	return fx
}

func (p *SignalProcessor) afterClose(t *models.Trade) effect {
	p.log.Info("trade closed",
		logger.String("symbol", t.Symbol),
		logger.String("trade_id", t.ID),
		logger.String("reason", t.CloseReason))
	return effect{
		kind: "trade_closed",
		event: &models.TradeEvent{
			Type:        "trade_closed",
			Symbol:      t.Symbol,
			TradeID:     t.ID,
			Direction:   t.Direction,
			Combination: t.Combination,
			Reason:      t.CloseReason,
			At:          t.ClosedAt,
		},
		payload: t.Clone(),
	}
}

// emit writes audit events off the signal path. Failures are logged and
// swallowed.
func (p *SignalProcessor) emit(e *models.TradeEvent, kind string) {
	if p.events == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := p.events.Emit(ctx, e); err != nil {
			p.log.Warn("event emit failed",
				logger.String("kind", kind),
				logger.String("symbol", e.Symbol),
				logger.Error(err))
		}
	}()
}

func (p *SignalProcessor) notify(kind string, payload any) {
	if p.notifier == nil {
		return
	}
	// The dispatcher queues and returns; a full queue is already logged there.
	_ = p.notifier.Notify(context.Background(), kind, payload)
}
