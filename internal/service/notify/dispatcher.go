// Package notify delivers human-facing notifications about trade and trend
// changes. Delivery is asynchronous: the dispatcher enqueues and returns,
// workers drain the queue with bounded retries, and sink failures never
// reach the signal path.
package notify

import (
	"context"
	"fmt"
	"time"

	"TradePulse/internal/domain/repository"
	"TradePulse/pkg/logger"
	"TradePulse/pkg/queue"
)

// Config tunes the dispatcher worker pool.
type Config struct {
	Workers    int
	QueueSize  int
	RetryLimit int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// envelope carries one notification through the queue. delivered marks the
// sinks that already accepted it, so a retry only revisits the failed ones.
// Retries of one message always run on the same worker, so no lock is needed.
type envelope struct {
	kind      string
	payload   any
	delivered []bool
}

// Dispatcher fans notifications out to the configured sinks from a worker
// pool. Implements repository.Notifier.
type Dispatcher struct {
	sinks   []repository.Notifier
	q       *queue.Queue
	timeout time.Duration
	log     *logger.Logger
}

// NewDispatcher creates a dispatcher over the given sinks. With no sinks
// every notification is a no-op.
func NewDispatcher(cfg Config, log *logger.Logger, sinks ...repository.Notifier) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	d := &Dispatcher{
		sinks:   sinks,
		timeout: cfg.Timeout,
		log:     log,
	}
	d.q = queue.New(queue.Config{
		Workers:    cfg.Workers,
		QueueSize:  cfg.QueueSize,
		RetryLimit: cfg.RetryLimit,
		RetryDelay: cfg.RetryDelay,
	}, d.deliver)
	return d
}

// Notify enqueues a notification without blocking. A full queue drops the
// notification and logs.
func (d *Dispatcher) Notify(_ context.Context, kind string, payload any) error {
	if len(d.sinks) == 0 {
		return nil
	}
	if err := d.q.Publish(kind, &envelope{kind: kind, payload: payload}); err != nil {
		d.log.Warn("notification dropped",
			logger.String("kind", kind),
			logger.Error(err))
		return err
	}
	return nil
}

// Close drains queued notifications and stops the workers.
func (d *Dispatcher) Close() {
	d.q.Close()
}

func (d *Dispatcher) deliver(ctx context.Context, msg *queue.Message) error {
	env, ok := msg.Payload.(*envelope)
	if !ok {
		return nil
	}
	if env.delivered == nil {
		env.delivered = make([]bool, len(d.sinks))
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var lastErr error
	for i, sink := range d.sinks {
		if env.delivered[i] {
			continue
		}
		if err := sink.Notify(ctx, env.kind, env.payload); err != nil {
			lastErr = err
			d.log.Warn("notification delivery failed",
				logger.String("kind", env.kind),
				logger.Int("attempt", msg.Attempts),
				logger.Error(err))
			continue
		}
		env.delivered[i] = true
	}
	if lastErr != nil {
		return fmt.Errorf("notify %s: %w", env.kind, lastErr)
	}
	return nil
}
