package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePulse/internal/domain/models"
)

var t0 = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func open(t *testing.T, l *Ledger, symbol string, dir models.Direction, combo string) *models.Trade {
	t.Helper()
	tr, err := l.Open(symbol, dir, combo, []int{1}, nil, t0)
	require.NoError(t, err)
	return tr
}

func TestOpenAssignsIDAndStatus(t *testing.T) {
	l := New(Config{})
	tr := open(t, l, "BTCUSDT", models.DirectionBullish, "momentum")

	assert.NotEmpty(t, tr.ID)
	assert.Equal(t, models.TradeOpen, tr.Status)
	assert.Equal(t, "momentum", tr.Combination)
	assert.Equal(t, 1, l.OpenCount("BTCUSDT"))
	assert.Equal(t, 1, l.OpenCount(""))
}

func TestOpenSymbolBusy(t *testing.T) {
	l := New(Config{MaxOpenPerSymbol: 1})
	open(t, l, "BTCUSDT", models.DirectionBullish, "momentum")

	_, err := l.Open("BTCUSDT", models.DirectionBullish, "momentum_volume", []int{1, 2}, nil, t0)
	assert.ErrorIs(t, err, ErrSymbolBusy)

	// Other symbols are unaffected.
	_, err = l.Open("ETHUSDT", models.DirectionBullish, "momentum", []int{1}, nil, t0)
	assert.NoError(t, err)
}

func TestOpenGlobalCap(t *testing.T) {
	l := New(Config{MaxOpenGlobal: 2})
	open(t, l, "AAA", models.DirectionBullish, "momentum")
	open(t, l, "BBB", models.DirectionBullish, "momentum")

	_, err := l.Open("CCC", models.DirectionBullish, "momentum", []int{1}, nil, t0)
	assert.ErrorIs(t, err, ErrGlobalCap)
}

func TestOpenPerSymbolTotalCap(t *testing.T) {
	l := New(Config{MaxPerSymbol: 1})
	tr := open(t, l, "BTCUSDT", models.DirectionBullish, "momentum")
	l.CloseForExit("BTCUSDT", "take profit", t0.Add(time.Minute))
	require.Equal(t, models.TradeClosed, tr.Status)

	// The total cap counts closed trades too.
	_, err := l.Open("BTCUSDT", models.DirectionBullish, "momentum", []int{1}, nil, t0.Add(2*time.Minute))
	assert.ErrorIs(t, err, ErrSymbolCap)
}

func TestOpenCombinationCap(t *testing.T) {
	l := New(Config{MaxPerCombination: 1})
	open(t, l, "BTCUSDT", models.DirectionBullish, "momentum")
	l.CloseForExit("BTCUSDT", "stop loss", t0.Add(time.Minute))

	_, err := l.Open("BTCUSDT", models.DirectionBullish, "momentum", []int{1}, nil, t0.Add(2*time.Minute))
	assert.ErrorIs(t, err, ErrCombinationCap)

	// A different combination for the same symbol still opens.
	_, err = l.Open("BTCUSDT", models.DirectionBullish, "momentum_volume", []int{1, 2}, nil, t0.Add(2*time.Minute))
	assert.NoError(t, err)
}

func TestCloseForExit(t *testing.T) {
	l := New(Config{MaxOpenPerSymbol: 2})
	open(t, l, "BTCUSDT", models.DirectionBullish, "momentum")
	open(t, l, "BTCUSDT", models.DirectionBearish, "momentum_volume")
	open(t, l, "ETHUSDT", models.DirectionBullish, "momentum")

	closed := l.CloseForExit("BTCUSDT", "take profit", t0.Add(time.Minute))
	require.Len(t, closed, 2)
	for _, tr := range closed {
		assert.Equal(t, models.TradeClosed, tr.Status)
		assert.Equal(t, "exit: take profit", tr.CloseReason)
		assert.Equal(t, t0.Add(time.Minute), tr.ClosedAt)
	}
	assert.Equal(t, 0, l.OpenCount("BTCUSDT"))
	assert.Equal(t, 1, l.OpenCount("ETHUSDT"))

	// Exit with nothing open is a no-op.
	assert.Empty(t, l.CloseForExit("BTCUSDT", "take profit", t0.Add(2*time.Minute)))
}

func TestCloseCounterTrend(t *testing.T) {
	l := New(Config{MaxOpenPerSymbol: 2})
	bull := open(t, l, "BTCUSDT", models.DirectionBullish, "momentum")
	bear := open(t, l, "BTCUSDT", models.DirectionBearish, "momentum_volume")

	closed := l.CloseCounterTrend("BTCUSDT", models.DirectionBearish, t0.Add(time.Minute))
	require.Len(t, closed, 1)
	assert.Equal(t, bull.ID, closed[0].ID)
	assert.Equal(t, "trend flip to bearish", closed[0].CloseReason)
	assert.Equal(t, models.TradeOpen, bear.Status)
}

func TestList(t *testing.T) {
	l := New(Config{MaxOpenPerSymbol: 3})
	first := open(t, l, "BTCUSDT", models.DirectionBullish, "momentum")
	second := open(t, l, "BTCUSDT", models.DirectionBullish, "momentum_volume")
	open(t, l, "ETHUSDT", models.DirectionBearish, "momentum")
	l.CloseForExit("ETHUSDT", "stop loss", t0.Add(time.Minute))

	all := l.List("", "", 100)
	assert.Len(t, all, 3)

	btc := l.List("BTCUSDT", "", 100)
	require.Len(t, btc, 2)
	// Newest first.
	assert.Equal(t, second.ID, btc[0].ID)
	assert.Equal(t, first.ID, btc[1].ID)

	assert.Len(t, l.List("", models.TradeOpen, 100), 2)
	assert.Len(t, l.List("", models.TradeClosed, 100), 1)
	assert.Len(t, l.List("", "", 1), 1)
}
