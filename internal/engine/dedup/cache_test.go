package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeenWithinWindow(t *testing.T) {
	c := New(Config{BlockWindow: 30 * time.Second})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, c.Seen("BTCUSDT", "rsi oversold", 1, now))
	assert.True(t, c.Seen("BTCUSDT", "rsi oversold", 1, now.Add(10*time.Second)))
}

func TestSeenAfterWindow(t *testing.T) {
	c := New(Config{BlockWindow: 30 * time.Second})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, c.Seen("BTCUSDT", "rsi oversold", 1, now))
	assert.False(t, c.Seen("BTCUSDT", "rsi oversold", 1, now.Add(31*time.Second)))
}

func TestSeenKeyIsolation(t *testing.T) {
	c := New(Config{BlockWindow: 30 * time.Second})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, c.Seen("BTCUSDT", "rsi oversold", 1, now))
	// Same text in another group or for another symbol is a distinct key.
	assert.False(t, c.Seen("BTCUSDT", "rsi oversold", 2, now))
	assert.False(t, c.Seen("ETHUSDT", "rsi oversold", 1, now))
	assert.False(t, c.Seen("BTCUSDT", "macd bullish cross", 1, now))
}

func TestSeenSlidesWindow(t *testing.T) {
	c := New(Config{BlockWindow: 30 * time.Second})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	// Every sighting refreshes last-seen, duplicates included.
	assert.False(t, c.Seen("BTCUSDT", "rsi oversold", 1, now))
	assert.True(t, c.Seen("BTCUSDT", "rsi oversold", 1, now.Add(20*time.Second)))
	assert.True(t, c.Seen("BTCUSDT", "rsi oversold", 1, now.Add(40*time.Second)))
}

func TestSweep(t *testing.T) {
	c := New(Config{BlockWindow: 30 * time.Second, CleanupFactor: 2})
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	c.Seen("BTCUSDT", "old", 1, now)
	c.Seen("BTCUSDT", "fresh", 1, now.Add(50*time.Second))
	assert.Equal(t, 2, c.Len())

	removed := c.Sweep(now.Add(70 * time.Second))
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())
}
