package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTLs
const (
	TTLShort = 10 * time.Minute // API 응답
	TTLDaily = 24 * time.Hour   // 일별 종가
)

// Cache stores JSON values under "<prefix>:cache:<key>"
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

func NewCache(client *Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Enabled reports whether the backing client is live
func (c *Cache) Enabled() bool {
	return c != nil && c.client.Enabled()
}

// Get decodes the value at key into dest. found is false on a miss and
// always false when the cache is disabled.
func (c *Cache) Get(ctx context.Context, key string, dest any) (found bool, err error) {
	if !c.Enabled() {
		return false, nil
	}

	raw, err := c.client.rdb.Get(ctx, c.key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set encodes value as JSON and stores it for ttl
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.rdb.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys; missing keys are not an error
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}

	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.rdb.Del(ctx, full...).Err()
}

func (c *Cache) key(k string) string {
	return strings.Join([]string{c.prefix, "cache", k}, ":")
}

// SeriesKey is the cache key of a ticker's close series fetched on a given day
func SeriesKey(ticker string, day time.Time) string {
	return "series:" + ticker + ":" + day.Format("2006-01-02")
}

// MetricsKey is the cache key of the overall metrics table for a strategy hash and day
func MetricsKey(strategyHash string, day time.Time) string {
	return "metrics:" + strategyHash + ":" + day.Format("2006-01-02")
}
