package repository

import (
	"context"

	"TradePulse/internal/domain/models"
)

// TrendStore persists confirmed trend directions so the engine can warm-start
// after a restart. Implementations must tolerate being absent: callers treat
// every error as "no stored trend".
type TrendStore interface {
	Get(ctx context.Context, symbol string) (models.Direction, error)
	Set(ctx context.Context, symbol string, dir models.Direction) error
	ListAll(ctx context.Context) (map[string]models.Direction, error)
}

// EventPublisher pushes trade lifecycle events to a streaming backend.
type EventPublisher interface {
	Publish(ctx context.Context, e *models.TradeEvent) error
	Close() error
}

// EventStorage writes trade lifecycle events to a durable store.
type EventStorage interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, e *models.TradeEvent) error
	Health(ctx context.Context) error
	Close() error
}

// Notifier delivers human-facing notifications. Fire-and-forget: failures
// never affect engine state or the ingest result.
type Notifier interface {
	Notify(ctx context.Context, kind string, payload any) error
}

// Metrics records engine counters and latencies.
type Metrics interface {
	RecordSignal(symbol, classification string)
	RecordDuplicate(symbol string)
	RecordTradeOpened(symbol, combination string)
	RecordTradeClosed(symbol, reason string)
	RecordTrendFlip(symbol string, direction string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

// NopMetrics discards all observations. Used in tests and when metrics are
// disabled.
type NopMetrics struct{}

func (NopMetrics) RecordSignal(string, string)     {}
func (NopMetrics) RecordDuplicate(string)          {}
func (NopMetrics) RecordTradeOpened(string, string) {}
func (NopMetrics) RecordTradeClosed(string, string) {}
func (NopMetrics) RecordTrendFlip(string, string)  {}
func (NopMetrics) RecordError(string)              {}
func (NopMetrics) RecordLatency(string, float64)   {}
