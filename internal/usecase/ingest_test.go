package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePulse/internal/domain/models"
	"TradePulse/internal/domain/repository"
	"TradePulse/internal/engine/classify"
	"TradePulse/internal/engine/confirm"
	"TradePulse/internal/engine/dedup"
	"TradePulse/internal/engine/ledger"
	"TradePulse/internal/engine/trend"
	"TradePulse/pkg/logger"
)

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestProcessor(t *testing.T, closeOnFlip bool) (*SignalProcessor, *ledger.Ledger, *trend.Machine) {
	t.Helper()

	classifier := classify.New(classify.Config{
		Trend: []string{"uptrend started", "downtrend started"},
		Exit:  []string{"take profit"},
		Groups: []classify.GroupSignals{
			{ID: 1, Bullish: []string{"rsi oversold", "macd bullish cross"}, Bearish: []string{"rsi overbought", "macd bearish cross"}},
		},
	})
	dd := dedup.New(dedup.Config{BlockWindow: 30 * time.Second})
	tm := trend.New(trend.Config{ConfirmThreshold: 1}, nil, logger.NewNop())
	lg := ledger.New(ledger.Config{})
	ce := confirm.New(confirm.Config{
		Groups:       []confirm.GroupConfig{{ID: 1, Enabled: true, Required: 2, Mode: confirm.TrendRespect}},
		Combinations: []confirm.Combination{{Name: "momentum", Groups: []int{1}}},
	}, dd, tm, lg, repository.NopMetrics{}, logger.NewNop())

	p := NewSignalProcessor(classifier, dd, tm, ce, lg, nil, nil, repository.NopMetrics{}, closeOnFlip, logger.NewNop())
	return p, lg, tm
}

func TestProcessEntryOpensTrade(t *testing.T) {
	p, lg, _ := newTestProcessor(t, true)
	ctx := context.Background()

	res, err := p.Process(ctx, "btcusdt", "RSI Oversold", t0)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", res.Symbol)
	assert.Equal(t, "group1_bullish", res.Classification)
	assert.Empty(t, res.TradesOpened)

	res, err = p.Process(ctx, "BTCUSDT", "MACD Bullish Cross", t0.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, res.TradesOpened, 1)
	assert.Equal(t, "momentum", res.TradesOpened[0].Combination)
	assert.Equal(t, 1, lg.OpenCount("BTCUSDT"))
}

func TestProcessDuplicateEntry(t *testing.T) {
	p, lg, _ := newTestProcessor(t, true)
	ctx := context.Background()

	p.Process(ctx, "BTCUSDT", "rsi oversold", t0)
	// The identical alert again cannot serve as the second confirmation.
	res, err := p.Process(ctx, "BTCUSDT", "rsi oversold", t0.Add(5*time.Second))
	require.NoError(t, err)
	assert.Empty(t, res.TradesOpened)
	assert.Equal(t, 0, lg.OpenCount("BTCUSDT"))
}

func TestProcessTrendFlipClosesCounterTrades(t *testing.T) {
	p, lg, tm := newTestProcessor(t, true)
	ctx := context.Background()

	res, err := p.Process(ctx, "BTCUSDT", "uptrend started", t0)
	require.NoError(t, err)
	assert.True(t, res.TrendChanged)
	assert.Equal(t, models.DirectionBullish, res.TrendDirection)
	assert.Equal(t, models.DirectionBullish, tm.Current("BTCUSDT"))

	p.Process(ctx, "BTCUSDT", "rsi oversold", t0.Add(time.Second))
	p.Process(ctx, "BTCUSDT", "macd bullish cross", t0.Add(2*time.Second))
	require.Equal(t, 1, lg.OpenCount("BTCUSDT"))

	res, err = p.Process(ctx, "BTCUSDT", "downtrend started", t0.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, res.TrendChanged)
	assert.Equal(t, models.DirectionBearish, res.TrendDirection)
	assert.Equal(t, 1, res.ClosedTrades)
	assert.Equal(t, 0, lg.OpenCount("BTCUSDT"))
}

func TestProcessTrendFlipKeepsTradesWhenDisabled(t *testing.T) {
	p, lg, _ := newTestProcessor(t, false)
	ctx := context.Background()

	p.Process(ctx, "BTCUSDT", "uptrend started", t0)
	p.Process(ctx, "BTCUSDT", "rsi oversold", t0.Add(time.Second))
	p.Process(ctx, "BTCUSDT", "macd bullish cross", t0.Add(2*time.Second))
	require.Equal(t, 1, lg.OpenCount("BTCUSDT"))

	res, err := p.Process(ctx, "BTCUSDT", "downtrend started", t0.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, res.TrendChanged)
	assert.Equal(t, 0, res.ClosedTrades)
	assert.Equal(t, 1, lg.OpenCount("BTCUSDT"))
}

func TestProcessExitClosesTrades(t *testing.T) {
	p, lg, _ := newTestProcessor(t, true)
	ctx := context.Background()

	p.Process(ctx, "BTCUSDT", "rsi oversold", t0)
	p.Process(ctx, "BTCUSDT", "macd bullish cross", t0.Add(time.Second))
	require.Equal(t, 1, lg.OpenCount("BTCUSDT"))

	res, err := p.Process(ctx, "BTCUSDT", "Take Profit", t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "exit", res.Classification)
	assert.Equal(t, 1, res.ClosedTrades)
	assert.Equal(t, 0, lg.OpenCount("BTCUSDT"))

	// Exit with nothing open is accepted and does nothing.
	res, err = p.Process(ctx, "BTCUSDT", "take profit", t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, res.ClosedTrades)
}

func TestProcessUnknownSignal(t *testing.T) {
	p, lg, _ := newTestProcessor(t, true)

	res, err := p.Process(context.Background(), "BTCUSDT", "hello world", t0)
	require.NoError(t, err)
	assert.Equal(t, "unknown", res.Classification)
	assert.Empty(t, res.TradesOpened)
	assert.Equal(t, 0, lg.OpenCount("BTCUSDT"))
}

type captureNotifier struct {
	mu       sync.Mutex
	kinds    []string
	payloads []any
}

func (n *captureNotifier) Notify(_ context.Context, kind string, payload any) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
	n.payloads = append(n.payloads, payload)
	return nil
}

// Two signals for the same symbol arriving at once must be serialized: the
// shared evidence set opens exactly one trade, never two.
func TestProcessConcurrentEntriesOpenOnce(t *testing.T) {
	classifierCfg := classify.Config{
		Groups: []classify.GroupSignals{
			{ID: 1, Bullish: []string{"rsi oversold", "macd bullish cross"}},
		},
	}

	for i := 0; i < 200; i++ {
		classifier := classify.New(classifierCfg)
		dd := dedup.New(dedup.Config{BlockWindow: 30 * time.Second})
		tm := trend.New(trend.Config{ConfirmThreshold: 1}, nil, logger.NewNop())
		lg := ledger.New(ledger.Config{MaxOpenPerSymbol: 2})
		ce := confirm.New(confirm.Config{
			Groups:       []confirm.GroupConfig{{ID: 1, Enabled: true, Required: 2, Mode: confirm.TrendRespect}},
			Combinations: []confirm.Combination{{Name: "momentum", Groups: []int{1}}},
		}, dd, tm, lg, repository.NopMetrics{}, logger.NewNop())
		p := NewSignalProcessor(classifier, dd, tm, ce, lg, nil, nil, repository.NopMetrics{}, false, logger.NewNop())

		var wg sync.WaitGroup
		for _, text := range []string{"rsi oversold", "macd bullish cross"} {
			wg.Add(1)
			go func(text string) {
				defer wg.Done()
				p.Process(context.Background(), "BTCUSDT", text, t0)
			}(text)
		}
		wg.Wait()

		require.Equal(t, 1, lg.OpenCount("BTCUSDT"),
			"the same evidence set opened more than one trade")
	}
}

// Notification payloads are snapshots: closing the trade afterwards must not
// bleed into the record handed out when it opened.
func TestProcessNotificationPayloadIsSnapshot(t *testing.T) {
	classifier := classify.New(classify.Config{
		Exit: []string{"take profit"},
		Groups: []classify.GroupSignals{
			{ID: 1, Bullish: []string{"rsi oversold", "macd bullish cross"}},
		},
	})
	dd := dedup.New(dedup.Config{BlockWindow: 30 * time.Second})
	tm := trend.New(trend.Config{ConfirmThreshold: 1}, nil, logger.NewNop())
	lg := ledger.New(ledger.Config{})
	ce := confirm.New(confirm.Config{
		Groups:       []confirm.GroupConfig{{ID: 1, Enabled: true, Required: 2, Mode: confirm.TrendRespect}},
		Combinations: []confirm.Combination{{Name: "momentum", Groups: []int{1}}},
	}, dd, tm, lg, repository.NopMetrics{}, logger.NewNop())
	notifier := &captureNotifier{}
	p := NewSignalProcessor(classifier, dd, tm, ce, lg, nil, notifier, repository.NopMetrics{}, false, logger.NewNop())
	ctx := context.Background()

	p.Process(ctx, "BTCUSDT", "rsi oversold", t0)
	p.Process(ctx, "BTCUSDT", "macd bullish cross", t0.Add(time.Second))
	p.Process(ctx, "BTCUSDT", "take profit", t0.Add(time.Minute))

	require.Equal(t, []string{"trade_opened", "trade_closed"}, notifier.kinds)

	opened, ok := notifier.payloads[0].(*models.Trade)
	require.True(t, ok)
	closed, ok := notifier.payloads[1].(*models.Trade)
	require.True(t, ok)

	// The open-time snapshot stays open even though the trade has closed.
	assert.Equal(t, models.TradeOpen, opened.Status)
	assert.Empty(t, opened.CloseReason)
	assert.Equal(t, models.TradeClosed, closed.Status)
	assert.Equal(t, "exit: take profit", closed.CloseReason)
	assert.Equal(t, opened.ID, closed.ID)

	// Snapshots are deep: mutating one never reaches the other.
	opened.ConsumedSignals[1][0] = "mutated"
	assert.NotEqual(t, "mutated", closed.ConsumedSignals[1][0])
}

func TestProcessDuplicateTrendSignal(t *testing.T) {
	p, _, tm := newTestProcessor(t, true)
	ctx := context.Background()

	p.Process(ctx, "BTCUSDT", "uptrend started", t0)
	require.Equal(t, models.DirectionBullish, tm.Current("BTCUSDT"))

	// Within the block window the repeated trend text is a duplicate.
	res, err := p.Process(ctx, "BTCUSDT", "uptrend started", t0.Add(5*time.Second))
	require.NoError(t, err)
	assert.False(t, res.TrendChanged)
}
