package di

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/repository"
	"TradePulse/internal/engine/classify"
	"TradePulse/internal/engine/confirm"
	"TradePulse/internal/engine/dedup"
	"TradePulse/internal/engine/ledger"
	"TradePulse/internal/engine/trend"
	"TradePulse/internal/handler/api"
	internalrepo "TradePulse/internal/repository"
	"TradePulse/internal/service/notify"
	"TradePulse/internal/usecase"
	"TradePulse/pkg/cache"
	pkgch "TradePulse/pkg/clickhouse"
	"TradePulse/pkg/config"
	xhttp "TradePulse/pkg/http"
	pkgkafka "TradePulse/pkg/kafka"
	"TradePulse/pkg/logger"
	"TradePulse/pkg/metrics"
	"TradePulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder, or a no-op when
// metrics are disabled.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return repository.NopMetrics{}
	}
	return metrics.New()
}

// ProvideCache creates the cache service. Redis with an in-memory L1 in
// production; plain memory when Redis is disabled.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return cache.NewLayeredCache(rc), nil
}

// ProvideTrendStore persists confirmed trends through the cache service.
func ProvideTrendStore(c cache.Service) repository.TrendStore {
	return internalrepo.NewCacheTrendStore(c)
}

// ProvideClassifier builds the signal classifier from the configured lists.
func ProvideClassifier(cfg *config.Config) *classify.Classifier {
	ccfg := classify.Config{
		Trend:        cfg.Engine.Signals.Trend,
		TrendConfirm: cfg.Engine.Signals.TrendConfirm,
		Exit:         cfg.Engine.Signals.Exit,
	}
	for _, g := range cfg.Engine.Groups {
		ccfg.Groups = append(ccfg.Groups, classify.GroupSignals{
			ID:      g.ID,
			Bullish: g.Bullish,
			Bearish: g.Bearish,
		})
	}
	return classify.New(ccfg)
}

// ProvideDedup creates the duplicate-suppression cache.
func ProvideDedup(cfg *config.Config) *dedup.Cache {
	return dedup.New(dedup.Config{
		BlockWindow:     cfg.Engine.Dedup.BlockWindow,
		CleanupInterval: cfg.Engine.Dedup.CleanupInterval,
		CleanupFactor:   cfg.Engine.Dedup.CleanupFactor,
	})
}

// ProvideTrendMachine creates the per-symbol trend state machine.
func ProvideTrendMachine(cfg *config.Config, store repository.TrendStore, log *logger.Logger) *trend.Machine {
	return trend.New(trend.Config{
		ConfirmThreshold: cfg.Engine.Trend.ConfirmThreshold,
	}, store, log)
}

// ProvideLedger creates the trade ledger with its caps.
func ProvideLedger(cfg *config.Config) *ledger.Ledger {
	return ledger.New(ledger.Config{
		MaxOpenPerSymbol:  cfg.Engine.Trades.MaxOpenPerSymbol,
		MaxPerSymbol:      cfg.Engine.Trades.MaxPerSymbol,
		MaxOpenGlobal:     cfg.Engine.Trades.MaxOpenGlobal,
		MaxPerCombination: cfg.Engine.Trades.MaxPerCombination,
	})
}

// ProvideConfirmEngine creates the multi-group confirmation engine.
func ProvideConfirmEngine(
	cfg *config.Config,
	dd *dedup.Cache,
	tm *trend.Machine,
	lg *ledger.Ledger,
	m repository.Metrics,
	log *logger.Logger,
) *confirm.Engine {
	ccfg := confirm.Config{
		PendingTTL:   cfg.Engine.Pending.TTL,
		MaxPerBucket: cfg.Engine.Pending.MaxPerBucket,
	}
	for _, g := range cfg.Engine.Groups {
		mode := confirm.TrendRespect
		if g.TrendMode == "counter" {
			mode = confirm.TrendCounter
		}
		ccfg.Groups = append(ccfg.Groups, confirm.GroupConfig{
			ID:              g.ID,
			Enabled:         g.Enabled,
			Required:        g.Required,
			Mode:            mode,
			StoreContrarian: g.StoreContrarian,
		})
	}
	for _, combo := range cfg.Engine.Combinations {
		ccfg.Combinations = append(ccfg.Combinations, confirm.Combination{
			Name:   combo.Name,
			Groups: combo.Groups,
		})
	}
	return confirm.New(ccfg, dd, tm, lg, m, log)
}

// ProvideEventSink creates the audit backend for trade lifecycle events.
func ProvideEventSink(cfg *config.Config, m repository.Metrics) (*usecase.EventSink, error) {
	switch cfg.Events.Backend {
	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
			pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
			pkgkafka.WithAsync(cfg.Kafka.Async),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		pub := internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
		return usecase.NewEventSink(pub, nil, m, "kafka"), nil

	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		store := internalrepo.NewClickHouseEventStorage(client.DB(), "trade_events")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Init(ctx); err != nil {
			_ = client.Close()
			return nil, err
		}
		return usecase.NewEventSink(nil, store, m, "clickhouse"), nil

	default:
		return usecase.NewEventSink(nil, nil, m, "none"), nil
	}
}

// ProvideDispatcher creates the async notification dispatcher with the
// configured sinks.
func ProvideDispatcher(cfg *config.Config, log *logger.Logger) (*notify.Dispatcher, error) {
	var sinks []repository.Notifier
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, tg)
	}
	if cfg.Notify.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhookNotifier(cfg.Notify.WebhookURL, cfg.Notify.Timeout))
	}
	return notify.NewDispatcher(notify.Config{
		Workers:    cfg.Notify.Workers,
		QueueSize:  cfg.Notify.QueueSize,
		RetryLimit: cfg.Notify.RetryLimit,
		RetryDelay: cfg.Notify.RetryDelay,
		Timeout:    cfg.Notify.Timeout,
	}, log, sinks...), nil
}

// ProvideSignalProcessor wires the ingest pipeline.
func ProvideSignalProcessor(
	cfg *config.Config,
	classifier *classify.Classifier,
	dd *dedup.Cache,
	tm *trend.Machine,
	ce *confirm.Engine,
	lg *ledger.Ledger,
	events *usecase.EventSink,
	dispatcher *notify.Dispatcher,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.SignalProcessor {
	return usecase.NewSignalProcessor(
		classifier, dd, tm, ce, lg, events, dispatcher, m,
		cfg.Engine.Trend.CloseOnFlip, log,
	)
}

// ProvideMaintainer creates the background sweep loop.
func ProvideMaintainer(cfg *config.Config, dd *dedup.Cache, ce *confirm.Engine, log *logger.Logger) *usecase.Maintainer {
	return usecase.NewMaintainer(cfg.Engine.Maintenance.Interval, dd, ce, log)
}

// ProvideHandler creates the Echo route handler.
func ProvideHandler(
	cfg *config.Config,
	log *logger.Logger,
	processor *usecase.SignalProcessor,
	lg *ledger.Ledger,
	tm *trend.Machine,
	cs cache.Service,
) xhttp.Handler {
	return api.NewWebhookHandler(log, processor, lg, tm, api.RateLimitConfig{
		Enabled:      cfg.RateLimit.Enabled,
		Capacity:     cfg.RateLimit.Capacity,
		RefillPerSec: cfg.RateLimit.RefillPerSec,
	}, cs)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	handler xhttp.Handler,
	tm *trend.Machine,
	maintainer *usecase.Maintainer,
	events *usecase.EventSink,
	dispatcher *notify.Dispatcher,
	cacheSvc cache.Service,
) *server.App {
	return server.New(cfg, log, handler, tm, maintainer, events, dispatcher, cacheSvc)
}
