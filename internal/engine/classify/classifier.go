// Package classify maps raw alert text to a signal category using a
// precomputed index built from the configured signal lists, with a bounded
// substring pass and a keyword fallback behind it.
package classify

import (
	"strings"
	"sync"
	"unicode"

	"TradePulse/internal/domain/models"
)

// DefaultGroup receives entry signals recognized only by keyword fallback.
const DefaultGroup = 1

// maxSubstringLen bounds the secondary containment pass. Hostile input longer
// than this skips straight to the keyword fallback.
const maxSubstringLen = 256

// GroupSignals is the configured signal vocabulary of one group.
type GroupSignals struct {
	ID      int
	Bullish []string
	Bearish []string
}

// Config holds the signal lists the index is built from.
type Config struct {
	Trend        []string
	TrendConfirm []string
	Exit         []string
	Groups       []GroupSignals
}

// Classifier resolves normalized signal text to a category. Lookups are
// read-mostly; substring discoveries are memoized back into the index so the
// next identical text resolves in O(1).
type Classifier struct {
	mu    sync.RWMutex
	index map[string]models.Category
}

func New(cfg Config) *Classifier {
	c := &Classifier{index: make(map[string]models.Category)}
	c.add(cfg.Trend, models.Category{Kind: models.KindTrend, Direction: models.DirectionUnknown})
	c.add(cfg.TrendConfirm, models.Category{Kind: models.KindTrendConfirm, Direction: models.DirectionUnknown})
	c.add(cfg.Exit, models.Category{Kind: models.KindExit, Direction: models.DirectionUnknown})
	for _, g := range cfg.Groups {
		c.add(g.Bullish, models.Category{Kind: models.KindEntry, Group: g.ID, Direction: models.DirectionBullish})
		c.add(g.Bearish, models.Category{Kind: models.KindEntry, Group: g.ID, Direction: models.DirectionBearish})
	}
	return c
}

func (c *Classifier) add(texts []string, cat models.Category) {
	for _, t := range texts {
		n := Normalize(t)
		if n == "" {
			continue
		}
		c.index[n] = cat
	}
}

// Classify resolves raw alert text to a category. Empty or unrecognizable
// input classifies as unknown; Classify never fails.
func (c *Classifier) Classify(raw string) models.Category {
	text := Normalize(raw)
	if text == "" {
		return models.Unclassified
	}

	// Exact match against the precomputed index.
	c.mu.RLock()
	cat, ok := c.index[text]
	c.mu.RUnlock()
	if ok {
		return cat
	}

	// Containment pass: configured signals embedded in longer alert strings.
	if len(text) <= maxSubstringLen {
		if cat, ok := c.findSubstring(text); ok {
			c.mu.Lock()
			c.index[text] = cat
			c.mu.Unlock()
			return cat
		}
	}

	return keywordFallback(text)
}

func (c *Classifier) findSubstring(text string) (models.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Prefer the longest indexed signal contained in the text so that e.g.
	// "macd cross bullish" beats a bare "macd" entry.
	var (
		best    models.Category
		bestLen int
	)
	for key, cat := range c.index {
		if len(key) <= bestLen || len(key) < 3 {
			continue
		}
		if strings.Contains(text, key) {
			best, bestLen = cat, len(key)
		}
	}
	return best, bestLen > 0
}

func keywordFallback(text string) models.Category {
	switch {
	case strings.Contains(text, "bearish"):
		return models.Category{Kind: models.KindEntry, Group: DefaultGroup, Direction: models.DirectionBearish}
	case strings.Contains(text, "bullish"):
		return models.Category{Kind: models.KindEntry, Group: DefaultGroup, Direction: models.DirectionBullish}
	case strings.Contains(text, "trend"):
		return models.Category{Kind: models.KindTrend, Direction: models.DirectionUnknown}
	case hasAnyWord(text, "exit", "close", "tp", "sl"):
		return models.Category{Kind: models.KindExit, Direction: models.DirectionUnknown}
	}
	return models.Unclassified
}

func hasAnyWord(text string, words ...string) bool {
	for _, f := range strings.Fields(text) {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}

// Normalize case-folds, strips bracketed and pure-number segments, and
// collapses whitespace so "RSI Oversold [15m] (1)" and "rsi oversold"
// resolve identically.
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = stripBrackets(s)

	fields := strings.Fields(s)
	out := fields[:0]
	for _, f := range fields {
		if isNumber(f) {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, " ")
}

func stripBrackets(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func isNumber(s string) bool {
	seen := false
	for _, r := range s {
		if unicode.IsDigit(r) {
			seen = true
			continue
		}
		if r != '.' && r != ',' && r != '%' && r != '-' && r != '+' {
			return false
		}
	}
	return seen
}
