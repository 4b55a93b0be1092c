package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix Redis 中验证码 key 前缀
const KeyPrefix = "mm:otp:"

// RedisStore 基于 Redis TTL 的实现，多实例部署共享
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore 创建Redis验证码存储
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, key, code string, ttl time.Duration) error {
	if err := s.client.Set(ctx, KeyPrefix+key, code, ttl).Err(); err != nil {
		return fmt.Errorf("save otp: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	code, err := s.client.Get(ctx, KeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get otp: %w", err)
	}
	return code, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, KeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("delete otp: %w", err)
	}
	return nil
}
