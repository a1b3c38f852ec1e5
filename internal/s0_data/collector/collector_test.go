package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/internal/s0_data"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
	"github.com/Rahul711sharma/momentum-analysis/pkg/metrics"
)

type stubFetcher struct {
	mu     sync.Mutex
	ranges []string
}

func (f *stubFetcher) Name() string { return "yahoo" }

func (f *stubFetcher) FetchRange(_ context.Context, ticker, rng string) (*contracts.PriceSeries, error) {
	f.mu.Lock()
	f.ranges = append(f.ranges, rng)
	f.mu.Unlock()

	if ticker == "BAD.NS" {
		return nil, errors.New("no data")
	}
	return contracts.NewPriceSeries(ticker, []contracts.PricePoint{
		{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Close: 1},
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Close: 2},
	})
}

func TestCollector_FetchAllPrices(t *testing.T) {
	dir := t.TempDir()
	day := time.Date(2024, 7, 27, 0, 0, 0, 0, time.UTC)
	cache := s0_data.NewCSVCache(dir, day)

	fetcher := &stubFetcher{}
	c := NewCollector(fetcher, []s0_data.SeriesSink{cache}, metrics.New(), logger.Nop())

	results, err := c.FetchAllPrices(context.Background(), []string{"ABB.NS", "BAD.NS", "TCS.NS"}, Config{Workers: 2})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "ABB.NS", results[0].Ticker)
	assert.Equal(t, 2, results[0].PriceCount)
	assert.NoError(t, results[0].Error)
	assert.Error(t, results[1].Error)
	assert.Equal(t, []string{"BAD.NS"}, FailedTickers(results))
	assert.Equal(t, []string{"2y", "2y", "2y"}, fetcher.ranges)

	series, err := cache.Load(context.Background(), "TCS.NS", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, series.Closes())
}

func TestCollector_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCollector(&stubFetcher{}, nil, nil, logger.Nop())
	results, err := c.FetchAllPrices(ctx, []string{"A", "B"}, Config{})
	assert.ErrorIs(t, err, context.Canceled)
	for _, r := range results {
		assert.ErrorIs(t, r.Error, context.Canceled)
	}
}
