package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"safatyundangan/backend/internal/domain"
)

type RedisInvitationCache struct {
	client *redis.Client
}

func NewRedisInvitationCache(addr string, password string, db int) *RedisInvitationCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisInvitationCache{client: client}
}

func (c *RedisInvitationCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisInvitationCache) Close() error {
	return c.client.Close()
}

func (c *RedisInvitationCache) Get(ctx context.Context, key string) (*domain.InvitationResponse, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var resp domain.InvitationResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (c *RedisInvitationCache) Set(ctx context.Context, key string, value *domain.InvitationResponse, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
