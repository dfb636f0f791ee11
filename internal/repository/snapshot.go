package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domainErrors "dotcapture/internal/errors"
)

// SnapshotRepository is the storage collaborator: it serializes game
// snapshots into redis so reconnecting clients can catch up, and caches
// the leaderboard read model. Core truth stays in memory.
type SnapshotRepository struct {
	log    *zap.SugaredLogger
	client *redis.Client
}

const (
	snapshotTTL    = 48 * time.Hour
	leaderboardTTL = 30 * time.Second

	leaderboardKey = "leaderboard"
)

func NewSnapshotRepository(log *zap.SugaredLogger, client *redis.Client) *SnapshotRepository {
	return &SnapshotRepository{log: log, client: client}
}

func snapshotKey(gameID string) string { return "game:" + gameID }

func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, gameID string, snapshot any) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := r.client.Set(ctx, snapshotKey(gameID), data, snapshotTTL).Err(); err != nil {
		r.log.Errorw("snapshot save failed", "game_id", gameID, "error", err)
		return err
	}
	return nil
}

func (r *SnapshotRepository) LoadSnapshot(ctx context.Context, gameID string, dst any) error {
	data, err := r.client.Get(ctx, snapshotKey(gameID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainErrors.ErrGameNotFound
		}
		return err
	}
	return json.Unmarshal(data, dst)
}

func (r *SnapshotRepository) DeleteSnapshot(ctx context.Context, gameID string) {
	if err := r.client.Del(ctx, snapshotKey(gameID)).Err(); err != nil {
		r.log.Errorw("snapshot delete failed", "game_id", gameID, "error", err)
	}
}

// CacheLeaderboard stores the rendered leaderboard with a short TTL; the
// in-memory rating service remains authoritative.
func (r *SnapshotRepository) CacheLeaderboard(ctx context.Context, entries any) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("marshal leaderboard: %w", err)
	}
	return r.client.Set(ctx, leaderboardKey, data, leaderboardTTL).Err()
}

func (r *SnapshotRepository) CachedLeaderboard(ctx context.Context, dst any) (bool, error) {
	data, err := r.client.Get(ctx, leaderboardKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, json.Unmarshal(data, dst)
}
