package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/diyanmhd/flygan-ecommerce-sub000/internal/domain"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: 5 * time.Minute,
		lockTTL: 2 * time.Minute,
	}
}

// RedisCache implements both SnapshotCache and AttemptLocker on one Redis
// connection. The lock TTL bounds how long a crashed attempt can wedge a user.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
	lockTTL time.Duration
}

func (r *RedisCache) Get(ctx context.Context, userID string) (*domain.CartSnapshot, error) {
	key := snapshotKey(userID)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var snapshot domain.CartSnapshot
	if err2 := json.Unmarshal(data, &snapshot); err2 != nil {
		return nil, fmt.Errorf("unmarshal snapshot failed: %w", err2)
	}

	return &snapshot, nil
}

func (r *RedisCache) Set(ctx context.Context, userID string, snapshot *domain.CartSnapshot) error {
	key := snapshotKey(userID)
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(30)) * time.Second
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, key, string(data), ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, snapshotKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Acquire takes the per-user submission lock. SET NX keeps it atomic across
// instances.
func (r *RedisCache) Acquire(ctx context.Context, userID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, lockKey(userID), "1", r.lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis lock failed: %w", err)
	}
	return ok, nil
}

func (r *RedisCache) Release(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, lockKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis unlock failed: %w", err)
	}
	return nil
}

func snapshotKey(userID string) string {
	return fmt.Sprintf("checkout:snapshot:%s", userID)
}

func lockKey(userID string) string {
	return fmt.Sprintf("checkout:lock:%s", userID)
}
