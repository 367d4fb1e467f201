package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TradePulse/pkg/logger"
)

// stubSink counts deliveries and fails the first failures attempts.
type stubSink struct {
	mu       sync.Mutex
	failures int
	calls    int
}

func (s *stubSink) Notify(_ context.Context, _ string, _ any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return assert.AnError
	}
	return nil
}

func (s *stubSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestDispatcherDeliversToAllSinks(t *testing.T) {
	first := &stubSink{}
	second := &stubSink{}
	d := NewDispatcher(Config{Workers: 1, QueueSize: 8}, logger.NewNop(), first, second)

	require.NoError(t, d.Notify(context.Background(), "trade_opened", "payload"))
	d.Close()

	assert.Equal(t, 1, first.count())
	assert.Equal(t, 1, second.count())
}

// A retry triggered by one failing sink must not re-send to sinks that
// already accepted the notification.
func TestDispatcherRetriesOnlyFailedSinks(t *testing.T) {
	steady := &stubSink{}
	flaky := &stubSink{failures: 1}
	d := NewDispatcher(Config{
		Workers:    1,
		QueueSize:  8,
		RetryLimit: 2,
		RetryDelay: 5 * time.Millisecond,
	}, logger.NewNop(), steady, flaky)

	require.NoError(t, d.Notify(context.Background(), "trade_closed", "payload"))

	require.Eventually(t, func() bool {
		return flaky.count() == 2
	}, 2*time.Second, 5*time.Millisecond)
	d.Close()

	assert.Equal(t, 1, steady.count())
	assert.Equal(t, 2, flaky.count())
}

func TestDispatcherNoSinksIsNoop(t *testing.T) {
	d := NewDispatcher(Config{Workers: 1, QueueSize: 1}, logger.NewNop())
	require.NoError(t, d.Notify(context.Background(), "trend_flip", "payload"))
	d.Close()
}
