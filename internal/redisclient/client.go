package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetCachedResponse returns a cached API response body, or redis.Nil when
// the key is absent
func (c *Client) GetCachedResponse(ctx context.Context, key string) ([]byte, error) {
	return c.rdb.Get(ctx, fmt.Sprintf("api:%s", key)).Bytes()
}

// SetCachedResponse stores an API response body with a TTL
func (c *Client) SetCachedResponse(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("api:%s", key), body, ttl).Err()
}

// IsCacheMiss reports whether the error is an absent-key read
func IsCacheMiss(err error) bool {
	return err == redis.Nil
}

// SetVerificationCode stores a phone verification code with a TTL
func (c *Client) SetVerificationCode(ctx context.Context, phone, code string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("smscode:%s", phone), code, ttl).Err()
}

// GetVerificationCode returns the stored code for a phone, or redis.Nil when
// no code is pending
func (c *Client) GetVerificationCode(ctx context.Context, phone string) (string, error) {
	return c.rdb.Get(ctx, fmt.Sprintf("smscode:%s", phone)).Result()
}

// DeleteVerificationCode removes a consumed or invalidated code
func (c *Client) DeleteVerificationCode(ctx context.Context, phone string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("smscode:%s", phone)).Err()
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
