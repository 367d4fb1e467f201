// Package dedup suppresses repeats of the same (symbol, signal, group)
// triple within a short block window, so one noisy webhook source cannot
// inflate confirmation counts by re-sending the same alert.
package dedup

import (
	"sync"
	"time"
)

type key struct {
	symbol string
	text   string
	group  int
}

// Config controls the suppression window and lazy cleanup cadence.
type Config struct {
	BlockWindow     time.Duration
	CleanupInterval time.Duration
	CleanupFactor   int
}

func (c *Config) normalize() {
	if c.BlockWindow <= 0 {
		c.BlockWindow = 30 * time.Second
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = time.Minute
	}
	if c.CleanupFactor <= 0 {
		c.CleanupFactor = 10
	}
}

// Cache tracks last-seen times per key.
type Cache struct {
	mu        sync.Mutex
	cfg       Config
	entries   map[key]time.Time
	lastSweep time.Time
}

func New(cfg Config) *Cache {
	cfg.normalize()
	return &Cache{cfg: cfg, entries: make(map[key]time.Time)}
}

// Seen marks the triple as seen at now and reports whether it was already
// seen within the block window. The first sighting returns false.
func (c *Cache) Seen(symbol, text string, group int, now time.Time) bool {
	k := key{symbol: symbol, text: text, group: group}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.maybeSweep(now)

	last, ok := c.entries[k]
	c.entries[k] = now
	return ok && now.Sub(last) < c.cfg.BlockWindow
}

// Sweep removes entries older than BlockWindow x CleanupFactor. Invoked
// lazily from Seen at most once per CleanupInterval; also callable from the
// background maintenance loop.
func (c *Cache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sweepLocked(now)
}

// Len reports the number of tracked entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) maybeSweep(now time.Time) {
	if now.Sub(c.lastSweep) < c.cfg.CleanupInterval {
		return
	}
	c.sweepLocked(now)
}

func (c *Cache) sweepLocked(now time.Time) int {
	maxAge := c.cfg.BlockWindow * time.Duration(c.cfg.CleanupFactor)
	removed := 0
	for k, seen := range c.entries {
		if now.Sub(seen) > maxAge {
			delete(c.entries, k)
			removed++
		}
	}
	c.lastSweep = now
	return removed
}
