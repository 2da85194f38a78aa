package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/quiz-trainer/trainer-service/internal/repositories"
)

// SnapshotRedis stores session snapshots as single opaque values under a
// fixed namespace. No TTL: a snapshot lives until overwritten or deleted.
type SnapshotRedis struct {
	client *redis.Client
}

func NewSnapshotStore(client *redis.Client) repositories.SnapshotStore {
	return &SnapshotRedis{client: client}
}

func (s *SnapshotRedis) Save(ctx context.Context, key string, blob []byte) error {
	if err := s.client.Set(ctx, key, blob, 0).Err(); err != nil {
		return fmt.Errorf("failed to write snapshot %q: %w", key, err)
	}
	return nil
}

func (s *SnapshotRedis) Load(ctx context.Context, key string) ([]byte, bool, error) {
	blob, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot %q: %w", key, err)
	}
	return blob, true, nil
}

func (s *SnapshotRedis) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot %q: %w", key, err)
	}
	return nil
}
