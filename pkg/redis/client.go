package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rahul711sharma/momentum-analysis/pkg/config"
)

// Client holds the go-redis connection. The zero-connection (disabled)
// client makes every cache call a no-op.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb *redis.Client
}

const dialCheckTimeout = 3 * time.Second

// Connect dials Redis when rc.Enabled and verifies it with PING.
// A disabled configuration yields Disabled() without touching the network.
func Connect(ctx context.Context, rc config.RedisConfig) (*Client, error) {
	if !rc.Enabled {
		return Disabled(), nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     rc.Addr(),
		Password: rc.Password,
		DB:       rc.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dialCheckTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", rc.Addr(), err)
	}
	return &Client{rdb: rdb}, nil
}

// Wrap adopts an already configured go-redis client
func Wrap(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

func Disabled() *Client {
	return &Client{}
}

// Enabled is false for nil and disabled clients
func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}
