package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/presence/internal/index"
	"github.com/MrSnakeDoc/presence/internal/logger"
	redisstore "github.com/MrSnakeDoc/presence/internal/store/redis"
)

const (
	// DefaultForgetAfter is how long a device absent from every scan is
	// remembered.
	DefaultForgetAfter = 7 * 24 * time.Hour
)

// GarbageCollector forgets devices that have not been observed for a while.
type GarbageCollector struct {
	store     *redisstore.Store
	index     *index.MemoryIndex
	logger    logger.Logger
	interval  time.Duration
	threshold time.Duration
	now       func() time.Time
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewGarbageCollector creates a new garbage collector
func NewGarbageCollector(
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
	interval time.Duration,
	threshold time.Duration,
) *GarbageCollector {
	if threshold == 0 {
		threshold = DefaultForgetAfter
	}

	return &GarbageCollector{
		store:     store,
		index:     idx,
		logger:    log,
		interval:  interval,
		threshold: threshold,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the periodic garbage collection process
func (gc *GarbageCollector) Start(ctx context.Context) error {
	// Run immediately on start
	gc.Collect(ctx)

	ticker := time.NewTicker(gc.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				gc.Collect(ctx)
			case <-gc.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the garbage collector
func (gc *GarbageCollector) Stop() {
	gc.stopOnce.Do(func() { close(gc.stopCh) })
}

// Collect drops presence history older than the threshold and returns the
// forgotten device ids.
func (gc *GarbageCollector) Collect(ctx context.Context) []string {
	cutoff := gc.now().Add(-gc.threshold)
	removed := gc.index.PruneLastSeen(cutoff)

	if len(removed) == 0 {
		gc.logger.Debug("no devices to forget")
		return nil
	}

	// Delete from Redis store (best effort)
	if gc.store != nil {
		if err := gc.store.DeleteLastSeen(ctx, removed...); err != nil {
			gc.logger.Warn("failed to delete presence history from redis",
				logger.Int("count", len(removed)),
				logger.Error(err))
		}
	}

	gc.logger.Info("forgot absent devices",
		logger.Int("count", len(removed)),
		logger.Strings("device_ids", removed),
		logger.Duration("absent_for", gc.threshold))

	return removed
}
