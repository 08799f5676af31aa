package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper drops expired cache entries and reports how many it removed
type Sweeper interface {
	CleanExpired() int
}

// NewCacheJanitor creates a worker sweeping cache on every interval
func NewCacheJanitor(cache Sweeper, interval time.Duration, logger *zap.Logger) Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ticker{
		name:     "CacheJanitor",
		interval: interval,
		logger:   logger,
		fn: func(ctx context.Context) {
			if n := cache.CleanExpired(); n > 0 {
				logger.Debug("Expired cache entries removed", zap.Int("count", n))
			}
		},
	}
}
