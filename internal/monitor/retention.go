package monitor

import (
	"context"
	"time"

	"github.com/p0l0/xknx/internal/infrastructure/logging"
)

// Pruner deletes stored captures older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// RunRetention prunes captures older than retention immediately and then
// every interval until ctx is cancelled. A zero retention returns at once.
func RunRetention(ctx context.Context, p Pruner, retention, interval time.Duration, logger *logging.Logger) {
	if retention <= 0 {
		return
	}

	prune := func() {
		n, err := p.Prune(ctx, time.Now().Add(-retention))
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("capture retention failed", "error", err)
			}
			return
		}
		if n > 0 {
			logger.Info("pruned old captures", "removed", n, "retention", retention.String())
		}
	}

	prune()
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prune()
		}
	}
}
