package queue

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishAndDeliver(t *testing.T) {
	var delivered int32
	q := New(Config{Workers: 2, QueueSize: 8}, func(_ context.Context, msg *Message) error {
		atomic.AddInt32(&delivered, 1)
		return nil
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Publish("test", i))
	}
	q.Close()

	assert.Equal(t, int32(5), atomic.LoadInt32(&delivered))
}

func TestRetryBudget(t *testing.T) {
	var attempts int32
	q := New(Config{Workers: 1, QueueSize: 1, RetryLimit: 2, RetryDelay: 5 * time.Millisecond},
		func(_ context.Context, msg *Message) error {
			atomic.AddInt32(&attempts, 1)
			return assert.AnError
		})

	require.NoError(t, q.Publish("test", "payload"))
	q.Close()

	// Initial attempt plus two retries.
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRetryStopsOnSuccess(t *testing.T) {
	var attempts int32
	q := New(Config{Workers: 1, QueueSize: 1, RetryLimit: 5, RetryDelay: 5 * time.Millisecond},
		func(_ context.Context, msg *Message) error {
			if atomic.AddInt32(&attempts, 1) < 2 {
				return assert.AnError
			}
			return nil
		})

	require.NoError(t, q.Publish("test", "payload"))
	q.Close()

	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}

func TestPublishQueueFull(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	q := New(Config{Workers: 1, QueueSize: 1}, func(_ context.Context, msg *Message) error {
		started <- struct{}{}
		<-release
		return nil
	})

	require.NoError(t, q.Publish("test", 1))
	<-started // worker holds message 1, channel is empty

	require.NoError(t, q.Publish("test", 2)) // fills the channel
	assert.ErrorIs(t, q.Publish("test", 3), ErrQueueFull)

	close(release)
	q.Close()
}

func TestMessageMetadata(t *testing.T) {
	got := make(chan *Message, 1)
	q := New(Config{Workers: 1, QueueSize: 1}, func(_ context.Context, msg *Message) error {
		got <- msg
		return nil
	})

	require.NoError(t, q.Publish("trade_opened", "payload"))
	q.Close()

	msg := <-got
	assert.NotEmpty(t, msg.ID)
	assert.Equal(t, "trade_opened", msg.Type)
	assert.Equal(t, "payload", msg.Payload)
	assert.Equal(t, 1, msg.Attempts)
}
