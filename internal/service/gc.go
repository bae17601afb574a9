package service

import (
	"context"
	"log/slog"
	"time"
)

// Purger removes blacklist entries whose token has already expired.
type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// RunBlacklistGC purges expired blacklist entries every interval until ctx is
// cancelled.  A non-positive interval returns immediately.
func RunBlacklistGC(ctx context.Context, p Purger, interval time.Duration, log *slog.Logger) {
	if interval <= 0 || p == nil {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := p.PurgeExpired(ctx)
			if err != nil {
				log.Warn("blacklist gc failed", "error", err)
				continue
			}
			if n > 0 {
				log.Debug("blacklist gc", "purged", n)
			}
		}
	}
}
