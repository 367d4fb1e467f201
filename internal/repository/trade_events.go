package repository

import (
	"context"
	"database/sql"
	"fmt"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	pkgkafka "TradePulse/pkg/kafka"
)

// KafkaEventPublisher implements EventPublisher over a Kafka topic.
// Messages are keyed by symbol so per-symbol ordering survives partitioning.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) repository.EventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, e *models.TradeEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.Symbol), e)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// ClickHouseEventStorage implements EventStorage for ClickHouse.
type ClickHouseEventStorage struct {
	db    *sql.DB
	table string
}

func NewClickHouseEventStorage(db *sql.DB, table string) repository.EventStorage {
	if table == "" {
		table = "trade_events"
	}
	return &ClickHouseEventStorage{db: db, table: table}
}

func (s *ClickHouseEventStorage) Init(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		at          DateTime64(3),
		type        LowCardinality(String),
		symbol      LowCardinality(String),
		trade_id    String,
		direction   LowCardinality(String),
		combination String,
		reason      String
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMM(at)
	ORDER BY (symbol, at)`, s.table)
	_, err := s.db.ExecContext(ctx, q)
	if err != nil {
		return fmt.Errorf("init trade events table: %w", err)
	}
	return nil
}

func (s *ClickHouseEventStorage) Store(ctx context.Context, e *models.TradeEvent) error {
	q := fmt.Sprintf("INSERT INTO %s (at, type, symbol, trade_id, direction, combination, reason) VALUES (?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		e.At,
		e.Type,
		e.Symbol,
		e.TradeID,
		string(e.Direction),
		e.Combination,
		e.Reason,
	)
	return err
}

func (s *ClickHouseEventStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseEventStorage) Close() error {
	return nil // pool managed by pkg/clickhouse
}
