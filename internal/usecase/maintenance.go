package usecase

import (
	"context"
	"time"

	"TradePulse/internal/engine/confirm"
	"TradePulse/internal/engine/dedup"
	"TradePulse/pkg/logger"
)

// Maintainer periodically sweeps expired dedup entries and stale pending
// evidence so idle symbols do not pin memory.
type Maintainer struct {
	interval time.Duration
	dedup    *dedup.Cache
	confirm  *confirm.Engine
	log      *logger.Logger
}

func NewMaintainer(interval time.Duration, dd *dedup.Cache, ce *confirm.Engine, log *logger.Logger) *Maintainer {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Maintainer{interval: interval, dedup: dd, confirm: ce, log: log}
}

// Run blocks until ctx is done, sweeping once per interval.
func (m *Maintainer) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			swept := m.dedup.Sweep(now)
			expired := m.confirm.ExpireAll(now)
			if swept > 0 || expired > 0 {
				m.log.Debug("maintenance sweep",
					logger.Int("dedup_swept", swept),
					logger.Int("pending_expired", expired))
			}
		}
	}
}
