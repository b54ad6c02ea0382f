package scheduler

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/presence/internal/index"
	"github.com/MrSnakeDoc/presence/internal/logger"
	redisstore "github.com/MrSnakeDoc/presence/internal/store/redis"
)

// RedisSyncer restores the last persisted scan into the memory index on
// startup, so results are served before the first scan completes.
type RedisSyncer struct {
	store  *redisstore.Store
	index  *index.MemoryIndex
	logger logger.Logger
}

// NewRedisSyncer creates a new Redis syncer
func NewRedisSyncer(
	store *redisstore.Store,
	idx *index.MemoryIndex,
	log logger.Logger,
) *RedisSyncer {
	return &RedisSyncer{
		store:  store,
		index:  idx,
		logger: log,
	}
}

// Sync loads the snapshot and presence history from Redis.
func (rs *RedisSyncer) Sync(ctx context.Context) error {
	if rs.store == nil {
		return nil
	}

	rs.logger.Info("restoring last scan from redis")

	lastSeen, err := rs.store.GetLastSeen(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore presence history: %w", err)
	}

	snap, err := rs.store.GetSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}

	if !rs.index.Restore(snap, lastSeen) {
		rs.logger.Info("no snapshot restored from redis",
			logger.Int("history", len(lastSeen)))
		return nil
	}

	rs.logger.Info("restored snapshot from redis",
		logger.String("scan_id", snap.ID),
		logger.Int("devices", len(snap.Devices)),
		logger.Int("history", len(lastSeen)),
		logger.Time("completed_at", snap.CompletedAt))

	return nil
}
