package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/logging"
	"github.com/HACKER777333/shree-khatu-shyam-ji-food-corner/internal/usecase"
)

// RedisSessionStore is page-session storage: JSON values per (checkout session,
// key), expiring after ttl of inactivity.
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionStore(rdb *redis.Client, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func sessionKey(scope, key string) string { return "session:" + scope + ":" + key }

// Get decodes the value into v. A value that no longer decodes is deleted and
// reported as absent.
func (s *RedisSessionStore) Get(ctx context.Context, scope, key string, v any) (bool, error) {
	k := sessionKey(scope, key)
	data, err := s.rdb.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		logging.FromCtx(ctx).Warn("dropping corrupted session value", "key", k, "err", err)
		if derr := s.rdb.Del(ctx, k).Err(); derr != nil {
			return false, fmt.Errorf("redis del %s: %w", key, derr)
		}
		return false, nil
	}
	return true, nil
}

func (s *RedisSessionStore) Put(ctx context.Context, scope, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, sessionKey(scope, key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, scope, key string) error {
	if err := s.rdb.Del(ctx, sessionKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

var _ usecase.SessionStorage = (*RedisSessionStore)(nil)
