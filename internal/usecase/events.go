package usecase

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/models"
	drepo "TradePulse/internal/domain/repository"
)

// EventSink routes trade lifecycle events to the configured audit backend.
// With backend "none" every event is silently dropped.
type EventSink struct {
	pub     drepo.EventPublisher
	store   drepo.EventStorage
	metrics drepo.Metrics
	backend string
}

// NewEventSink creates an EventSink for the given backend.
func NewEventSink(
	pub drepo.EventPublisher,
	store drepo.EventStorage,
	metrics drepo.Metrics,
	backend string,
) *EventSink {
	if backend == "" {
		backend = "none"
	}
	return &EventSink{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Emit routes a single event to the configured backend.
func (s *EventSink) Emit(ctx context.Context, e *models.TradeEvent) error {
	if e == nil {
		return fmt.Errorf("event is nil")
	}

	start := time.Now()
	var err error

	switch s.backend {
	case "kafka":
		err = s.pub.Publish(ctx, e)
	case "clickhouse":
		err = s.store.Store(ctx, e)
	case "none":
		return nil
	default:
		err = fmt.Errorf("unknown backend: %s", s.backend)
	}

	if err != nil {
		s.metrics.RecordError("event_emit")
		return fmt.Errorf("emit event: %w", err)
	}

	s.metrics.RecordLatency("event_emit", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (s *EventSink) Close() {
	if s.pub != nil {
		_ = s.pub.Close()
	}
	if s.store != nil {
		_ = s.store.Close()
	}
}
