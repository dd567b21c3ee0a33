package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// IdempotencyStore 幂等记录存储
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// RedisIdempotencyStore 基于 Redis 的幂等记录存储
type RedisIdempotencyStore struct {
	client *redis.Client
}

// NewIdempotencyStore 使用全局客户端创建存储，未启用 Redis 时返回 nil
func NewIdempotencyStore() IdempotencyStore {
	client := Client()
	if client == nil {
		return nil
	}
	return &RedisIdempotencyStore{client: client}
}

// Get 读取记录
func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, BuildKey(key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// SetNX 占位，已存在时返回 false
func (s *RedisIdempotencyStore) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return s.client.SetNX(ctx, BuildKey(key), value, ttl).Result()
}

// Set 覆盖写入
func (s *RedisIdempotencyStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, BuildKey(key), value, ttl).Err()
}

// Del 删除记录
func (s *RedisIdempotencyStore) Del(ctx context.Context, key string) error {
	return s.client.Del(ctx, BuildKey(key)).Err()
}
