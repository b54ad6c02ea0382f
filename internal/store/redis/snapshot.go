package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/presence/internal/domain"
)

const (
	// DefaultSnapshotTTL bounds how long a stale scan survives restarts.
	DefaultSnapshotTTL = 48 * time.Hour
)

// Store persists scan snapshots and device presence history.
type Store struct {
	client      *redis.Client
	snapshotTTL time.Duration
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client:      client,
		snapshotTTL: DefaultSnapshotTTL,
	}
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// SaveSnapshot stores snap and records every device of it as seen at the
// snapshot completion time, in one round trip.
func (s *Store) SaveSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, SnapshotKey(), data, s.snapshotTTL)
	if len(snap.Devices) > 0 {
		seen := make(map[string]interface{}, len(snap.Devices))
		for id := range snap.Devices {
			seen[id] = encodeUnix(snap.CompletedAt)
		}
		pipe.HSet(ctx, LastSeenKey(), seen)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot returns the persisted snapshot, or nil when there is none.
func (s *Store) GetSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	data, err := s.client.Get(ctx, SnapshotKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// GetLastSeen returns the presence history. Corrupt entries are removed.
func (s *Store) GetLastSeen(ctx context.Context) (map[string]time.Time, error) {
	raw, err := s.client.HGetAll(ctx, LastSeenKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get last seen: %w", err)
	}

	seen, invalid := decodeLastSeen(raw)
	if len(invalid) > 0 {
		if err := s.DeleteLastSeen(ctx, invalid...); err != nil {
			return nil, err
		}
	}
	return seen, nil
}

// DeleteLastSeen forgets the given devices.
func (s *Store) DeleteLastSeen(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.client.HDel(ctx, LastSeenKey(), ids...).Err(); err != nil {
		return fmt.Errorf("failed to delete last seen: %w", err)
	}
	return nil
}
