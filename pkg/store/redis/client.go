package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/estagio/estagio/pkg/config"
)

type Client struct {
	rdb redis.UniversalClient
}

func NewClient(ctx context.Context, cfg *config.RedisConfig) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("redis.addresses is empty")
	}

	var rdb redis.UniversalClient
	if cfg.ClusterMode {
		rdb = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:    cfg.Addresses,
			Password: cfg.Password,
			PoolSize: cfg.PoolSize,
		})
	} else {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Addresses[0],
			Password: cfg.Password,
			DB:       cfg.DB,
			PoolSize: cfg.PoolSize,
		})
	}

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewFromUniversal(rdb), nil
}

// NewFromUniversal wraps an existing client.
func NewFromUniversal(rdb redis.UniversalClient) *Client {
	return &Client{rdb: rdb}
}

func (c *Client) Client() redis.UniversalClient {
	return c.rdb
}

// TryLock takes key for ttl if nobody holds it. The returned token releases
// the lock through Unlock.
func (c *Client) TryLock(ctx context.Context, key string, token string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	return ok, nil
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Unlock releases key only when it is still held with token.
func (c *Client) Unlock(ctx context.Context, key string, token string) error {
	if err := unlockScript.Run(ctx, c.rdb, []string{key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release lock %s: %w", key, err)
	}
	return nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}
