package confirm

import (
	"sync"
	"time"

	"TradePulse/internal/domain/models"
)

type bucketKey struct {
	symbol string
	group  int
	dir    models.Direction
}

type pendingSignal struct {
	text       string
	receivedAt time.Time
}

// buffers holds the bounded FIFO of recent signals per (symbol, group,
// direction). Capacity bounds growth under signal floods; TTL bounds age.
type buffers struct {
	mu  sync.Mutex
	ttl time.Duration
	cap int
	m   map[bucketKey][]pendingSignal
}

func newBuffers(ttl time.Duration, capacity int) *buffers {
	return &buffers{ttl: ttl, cap: capacity, m: make(map[bucketKey][]pendingSignal)}
}

func (b *buffers) append(sig *models.Signal) {
	k := bucketKey{symbol: sig.Symbol, group: sig.Category.Group, dir: sig.Category.Direction}
	b.mu.Lock()
	defer b.mu.Unlock()

	q := b.m[k]
	if len(q) >= b.cap {
		q = q[1:] // oldest evicted
	}
	b.m[k] = append(q, pendingSignal{text: sig.Normalized, receivedAt: sig.ReceivedAt})
}

// remove drops the newest occurrence of the signal's text from its bucket.
func (b *buffers) remove(sig *models.Signal) {
	k := bucketKey{symbol: sig.Symbol, group: sig.Category.Group, dir: sig.Category.Direction}
	b.mu.Lock()
	defer b.mu.Unlock()

	q := b.m[k]
	for i := len(q) - 1; i >= 0; i-- {
		if q[i].text == sig.Normalized {
			b.m[k] = append(q[:i], q[i+1:]...)
			return
		}
	}
}

// texts returns the unexpired signal texts in a bucket, oldest first.
func (b *buffers) texts(symbol string, group int, dir models.Direction, now time.Time) []string {
	k := bucketKey{symbol: symbol, group: group, dir: dir}
	b.mu.Lock()
	defer b.mu.Unlock()

	q := b.m[k]
	out := make([]string, 0, len(q))
	for _, s := range q {
		if now.Sub(s.receivedAt) <= b.ttl {
			out = append(out, s.text)
		}
	}
	return out
}

func (b *buffers) count(symbol string, group int, dir models.Direction) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.m[bucketKey{symbol: symbol, group: group, dir: dir}])
}

func (b *buffers) clear(symbol string, group int, dir models.Direction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.m, bucketKey{symbol: symbol, group: group, dir: dir})
}

// expire drops aged-out entries for one symbol across all its buckets.
func (b *buffers) expire(symbol string, now time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k := range b.m {
		if k.symbol == symbol {
			b.expireBucketLocked(k, now)
		}
	}
}

// expireAll drops aged-out entries for every symbol and reports how many.
func (b *buffers) expireAll(now time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	removed := 0
	for k := range b.m {
		removed += b.expireBucketLocked(k, now)
	}
	return removed
}

func (b *buffers) expireBucketLocked(k bucketKey, now time.Time) int {
	q := b.m[k]
	kept := q[:0]
	for _, s := range q {
		if now.Sub(s.receivedAt) <= b.ttl {
			kept = append(kept, s)
		}
	}
	removed := len(q) - len(kept)
	if len(kept) == 0 {
		delete(b.m, k)
	} else {
		b.m[k] = kept
	}
	return removed
}
