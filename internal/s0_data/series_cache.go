package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/pkg/redis"
)

// SeriesCache keeps fetched series in Redis for the run day
type SeriesCache struct {
	cache *redis.Cache
	clock func() time.Time
}

// NewSeriesCache creates a Redis-backed series cache. A disabled cache always misses.
func NewSeriesCache(cache *redis.Cache, clock func() time.Time) *SeriesCache {
	return &SeriesCache{cache: cache, clock: clock}
}

func (c *SeriesCache) key(ticker string) string {
	return redis.SeriesKey(ticker, contracts.NormalizeDate(c.clock()))
}

// Name identifies the source in load results
func (c *SeriesCache) Name() string { return "redis" }

// Load returns the cached series clipped to [from, to]
func (c *SeriesCache) Load(ctx context.Context, ticker string, from, to time.Time) (*contracts.PriceSeries, error) {
	var points []contracts.PricePoint
	found, err := c.cache.Get(ctx, c.key(ticker), &points)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, ticker)
	}

	series, err := contracts.NewPriceSeries(ticker, points)
	if err != nil {
		return nil, err
	}
	return series.Between(from, to), nil
}

// Save stores the series for the rest of the day
func (c *SeriesCache) Save(ctx context.Context, series *contracts.PriceSeries, _ string) error {
	return c.cache.Set(ctx, c.key(series.Ticker), series.Points(), redis.TTLDaily)
}
