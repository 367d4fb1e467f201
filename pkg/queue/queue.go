// Package queue is a bounded in-process work queue with a worker pool and
// bounded retries. It backs fire-and-forget delivery (notifications, event
// publishing) so that slow sinks never block callers.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrQueueFull = errors.New("queue: full, message dropped")

// Handler processes one message. A returned error triggers a retry until
// the message's attempt budget is spent.
type Handler func(ctx context.Context, msg *Message) error

// Message is one queued work item.
type Message struct {
	ID        string
	Type      string
	Payload   interface{}
	Attempts  int
	Timestamp time.Time
}

// Config contains queue tuning.
type Config struct {
	Workers    int
	QueueSize  int
	RetryLimit int
	RetryDelay time.Duration
}

func (c *Config) normalize() {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
}

// Queue dispatches messages to a handler on a fixed worker pool.
type Queue struct {
	cfg     Config
	handler Handler
	ch      chan *Message
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
}

func New(cfg Config, h Handler) *Queue {
	cfg.normalize()
	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		cfg:     cfg,
		handler: h,
		ch:      make(chan *Message, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	for i := 0; i < cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Publish enqueues a message without blocking. A full queue drops the
// message and reports ErrQueueFull.
func (q *Queue) Publish(msgType string, payload interface{}) error {
	msg := &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
	select {
	case q.ch <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the workers after draining queued messages.
func (q *Queue) Close() {
	q.once.Do(func() {
		close(q.ch)
		q.wg.Wait()
		q.cancel()
	})
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for msg := range q.ch {
		q.deliver(msg)
	}
}

func (q *Queue) deliver(msg *Message) {
	for {
		msg.Attempts++
		if err := q.handler(q.ctx, msg); err == nil {
			return
		}
		if msg.Attempts > q.cfg.RetryLimit {
			return
		}
		select {
		case <-q.ctx.Done():
			return
		case <-time.After(q.cfg.RetryDelay):
		}
	}
}
