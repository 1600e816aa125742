package db

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ExpiredSessionPurger deletes sessions that expired before now and reports
// how many were removed.
type ExpiredSessionPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// StartSessionCleaner periodically removes expired sessions until ctx is
// cancelled. Expired sessions never resolve regardless; this only keeps the
// table small.
func StartSessionCleaner(
	ctx context.Context,
	purger ExpiredSessionPurger,
	interval time.Duration,
	log *zap.Logger,
) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := purger.DeleteExpired(ctx, time.Now())
				if err != nil {
					log.Error("failed to clean expired sessions", zap.Error(err))
					continue
				}
				if removed > 0 {
					log.Info("cleaned expired sessions", zap.Int64("removed", removed))
				}
			}
		}
	}()
}
