package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"TradePulse/internal/domain/models"
)

func testClassifier() *Classifier {
	return New(Config{
		Trend:        []string{"uptrend started", "downtrend started"},
		TrendConfirm: []string{"trend up confirmed"},
		Exit:         []string{"take profit", "stop loss"},
		Groups: []GroupSignals{
			{ID: 1, Bullish: []string{"rsi oversold", "macd bullish cross"}, Bearish: []string{"rsi overbought"}},
			{ID: 2, Bullish: []string{"volume spike up"}, Bearish: []string{"volume spike down"}},
		},
	})
}

func TestClassifyExact(t *testing.T) {
	c := testClassifier()

	cat := c.Classify("rsi oversold")
	assert.Equal(t, models.KindEntry, cat.Kind)
	assert.Equal(t, 1, cat.Group)
	assert.Equal(t, models.DirectionBullish, cat.Direction)

	cat = c.Classify("volume spike down")
	assert.Equal(t, models.KindEntry, cat.Kind)
	assert.Equal(t, 2, cat.Group)
	assert.Equal(t, models.DirectionBearish, cat.Direction)

	assert.Equal(t, models.KindTrend, c.Classify("uptrend started").Kind)
	assert.Equal(t, models.KindTrendConfirm, c.Classify("trend up confirmed").Kind)
	assert.Equal(t, models.KindExit, c.Classify("take profit").Kind)
}

func TestClassifyNormalization(t *testing.T) {
	c := testClassifier()

	// Case, bracketed noise, and bare numbers must not change the outcome.
	cat := c.Classify("  RSI Oversold [15m] (BTC) 3 ")
	assert.Equal(t, models.KindEntry, cat.Kind)
	assert.Equal(t, 1, cat.Group)
	assert.Equal(t, models.DirectionBullish, cat.Direction)
}

func TestClassifySubstring(t *testing.T) {
	c := testClassifier()

	cat := c.Classify("alert: macd bullish cross detected on btcusdt")
	assert.Equal(t, models.KindEntry, cat.Kind)
	assert.Equal(t, 1, cat.Group)
	assert.Equal(t, models.DirectionBullish, cat.Direction)
}

func TestClassifyKeywordFallback(t *testing.T) {
	c := testClassifier()

	cat := c.Classify("some new bearish pattern")
	assert.Equal(t, models.KindEntry, cat.Kind)
	assert.Equal(t, DefaultGroup, cat.Group)
	assert.Equal(t, models.DirectionBearish, cat.Direction)

	assert.Equal(t, models.KindTrend, c.Classify("fresh trend emerging").Kind)
	assert.Equal(t, models.KindExit, c.Classify("tp hit").Kind)
}

func TestClassifyUnknown(t *testing.T) {
	c := testClassifier()

	assert.Equal(t, models.Unclassified, c.Classify("hello world"))
	assert.Equal(t, models.Unclassified, c.Classify(""))
	assert.Equal(t, models.Unclassified, c.Classify("   [only] (noise) 123  "))
}

func TestCategoryString(t *testing.T) {
	cat := models.Category{Kind: models.KindEntry, Group: 3, Direction: models.DirectionBullish}
	assert.Equal(t, "group3_bullish", cat.String())
	assert.Equal(t, "trend", models.Category{Kind: models.KindTrend}.String())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "rsi oversold", Normalize("RSI  Oversold [1h]"))
	assert.Equal(t, "breakout", Normalize("Breakout (level 3) 42.5"))
	assert.Equal(t, "", Normalize("  "))
}
