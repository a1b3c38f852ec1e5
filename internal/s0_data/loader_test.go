package s0_data

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
	"github.com/Rahul711sharma/momentum-analysis/pkg/metrics"
	"github.com/Rahul711sharma/momentum-analysis/pkg/redis"
)

// memorySource is an in-memory source and sink
type memorySource struct {
	name   string
	mu     sync.Mutex
	series map[string]*contracts.PriceSeries
	saved  map[string]string
}

func newMemorySource(name string) *memorySource {
	return &memorySource{name: name, series: map[string]*contracts.PriceSeries{}, saved: map[string]string{}}
}

func (m *memorySource) Name() string { return m.name }

func (m *memorySource) Load(_ context.Context, ticker string, from, to time.Time) (*contracts.PriceSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.series[ticker]
	if !ok {
		return nil, ErrCacheMiss
	}
	return s.Between(from, to), nil
}

func (m *memorySource) Save(_ context.Context, series *contracts.PriceSeries, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[series.Ticker] = series
	m.saved[series.Ticker] = source
	return nil
}

func seriesOf(t *testing.T, ticker string, closes ...float64) *contracts.PriceSeries {
	t.Helper()
	points := make([]contracts.PricePoint, len(closes))
	for i, c := range closes {
		points[i] = contracts.PricePoint{Date: date(2024, 1, 1).AddDate(0, 0, i), Close: c}
	}
	s, err := contracts.NewPriceSeries(ticker, points)
	require.NoError(t, err)
	return s
}

func TestLoader_FallbackChainAndWriteBack(t *testing.T) {
	cache := newMemorySource("csv")
	remote := newMemorySource("yahoo")

	cache.series["A"] = seriesOf(t, "A", 1, 2, 3)
	remote.series["B"] = seriesOf(t, "B", 4, 5)

	reg := metrics.New()
	loader := NewLoader(
		[]contracts.SeriesSource{cache, remote},
		[]SeriesSink{cache},
		reg, logger.Nop(),
	).WithWorkers(2)

	results := loader.LoadAll(context.Background(), []string{"A", "B", "C"}, date(2023, 1, 1), date(2024, 12, 31))
	require.Len(t, results, 3)

	assert.Equal(t, "A", results[0].Ticker)
	assert.Equal(t, "csv", results[0].Source)
	assert.Equal(t, []float64{1, 2, 3}, results[0].Series.Closes())

	assert.Equal(t, "yahoo", results[1].Source)
	assert.Equal(t, "yahoo", cache.saved["B"], "remote hit is written back to the cache")
	_, rewritten := cache.saved["A"]
	assert.False(t, rewritten, "cache hit is not written back to itself")

	assert.False(t, results[2].Available())
	assert.True(t, errors.Is(results[2].Err, contracts.ErrSeriesUnavailable))
	assert.True(t, errors.Is(results[2].Err, ErrCacheMiss))
}

// dailySeries has one close per calendar day in [from, to]
func dailySeries(t *testing.T, ticker string, from, to time.Time) *contracts.PriceSeries {
	t.Helper()
	var points []contracts.PricePoint
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		points = append(points, contracts.PricePoint{Date: d, Close: float64(len(points) + 1)})
	}
	s, err := contracts.NewPriceSeries(ticker, points)
	require.NoError(t, err)
	return s
}

func TestLoader_PartialCacheHitFallsThrough(t *testing.T) {
	today := date(2024, 6, 15)
	cache := NewCSVCache(t.TempDir(), today)
	remote := newMemorySource("yahoo")
	remote.series["A.NS"] = dailySeries(t, "A.NS", date(2022, 1, 1), today)

	loader := NewLoader(
		[]contracts.SeriesSource{cache, remote},
		[]SeriesSink{cache},
		nil, logger.Nop(),
	)
	ctx := context.Background()

	// 1년 구간 실행이 캐시에 짧은 시계열을 기록
	short := loader.LoadAll(ctx, []string{"A.NS"}, date(2023, 6, 1), today)
	require.True(t, short[0].Available())
	assert.Equal(t, "yahoo", short[0].Source)

	// 같은 날 더 긴 구간은 캐시를 건너뛰고 원격에서 전체를 받아야 함
	long := loader.LoadAll(ctx, []string{"A.NS"}, date(2022, 1, 1), today)
	require.True(t, long[0].Available())
	assert.Equal(t, "yahoo", long[0].Source)
	first, _ := long[0].Series.First()
	assert.Equal(t, date(2022, 1, 1), first.Date)
	assert.Equal(t, remote.series["A.NS"].Len(), long[0].Series.Len())

	// 전체 구간이 기록된 뒤에는 캐시가 다시 적중
	again := loader.LoadAll(ctx, []string{"A.NS"}, date(2022, 1, 1), today)
	assert.Equal(t, "csv", again[0].Source)
	assert.Equal(t, remote.series["A.NS"].Len(), again[0].Series.Len())
}

func TestLoader_WidestPartialWhenNothingCovers(t *testing.T) {
	first := newMemorySource("csv")
	second := newMemorySource("yahoo")
	// 구간 중간에 상장된 종목: 어느 소스도 시작일을 덮지 못함
	first.series["N"] = dailySeries(t, "N", date(2024, 3, 1), date(2024, 6, 15))
	second.series["N"] = dailySeries(t, "N", date(2024, 1, 2), date(2024, 6, 15))

	loader := NewLoader([]contracts.SeriesSource{first, second}, []SeriesSink{first}, nil, logger.Nop())
	results := loader.LoadAll(context.Background(), []string{"N"}, date(2023, 6, 15), date(2024, 6, 15))

	require.True(t, results[0].Available())
	assert.Equal(t, "yahoo", results[0].Source)
	assert.Equal(t, "yahoo", first.saved["N"], "widest partial is written back")
}

func TestCovers(t *testing.T) {
	s := dailySeries(t, "A", date(2024, 1, 3), date(2024, 6, 12))
	assert.True(t, covers(s, date(2024, 1, 1), date(2024, 6, 15)), "weekend slack at both edges")
	assert.False(t, covers(s, date(2023, 12, 1), date(2024, 6, 15)))
	assert.False(t, covers(s, date(2024, 1, 1), date(2024, 7, 15)))
	assert.True(t, covers(s, time.Time{}, time.Time{}))
}

func TestLoader_EmptySeriesFallsThrough(t *testing.T) {
	first := newMemorySource("csv")
	second := newMemorySource("yahoo")
	first.series["A"] = seriesOf(t, "A")
	second.series["A"] = seriesOf(t, "A", 10, 11)

	loader := NewLoader([]contracts.SeriesSource{first, second}, nil, nil, logger.Nop())
	results := loader.LoadAll(context.Background(), []string{"A"}, date(2023, 1, 1), date(2024, 12, 31))

	require.True(t, results[0].Available())
	assert.Equal(t, "yahoo", results[0].Source)
}

func TestLoader_LoadUniverse(t *testing.T) {
	src := newMemorySource("csv")
	src.series["A"] = seriesOf(t, "A", 1, 2)
	src.series["C"] = seriesOf(t, "C", 3, 4)

	loader := NewLoader([]contracts.SeriesSource{src}, nil, nil, logger.Nop()).WithWorkers(8)
	u, err := loader.LoadUniverse(context.Background(), []string{"C", "B", "A"}, date(2023, 1, 1), date(2024, 12, 31))
	require.NoError(t, err)

	assert.Equal(t, []string{"C", "A"}, u.Tickers, "input order preserved")
	assert.Equal(t, []string{"B"}, u.UnavailableTickers())
}

func TestLoader_Cancelled(t *testing.T) {
	src := newMemorySource("csv")
	src.series["A"] = seriesOf(t, "A", 1, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := NewLoader([]contracts.SeriesSource{src}, nil, nil, logger.Nop())
	_, err := loader.LoadUniverse(ctx, []string{"A"}, date(2023, 1, 1), date(2024, 12, 31))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSeriesCache_DisabledAlwaysMisses(t *testing.T) {
	cache := NewSeriesCache(redis.NewCache(redis.Disabled(), "momentum"), time.Now)
	assert.Equal(t, "redis", cache.Name())

	require.NoError(t, cache.Save(context.Background(), seriesOf(t, "A", 1), "yahoo"))

	_, err := cache.Load(context.Background(), "A", date(2024, 1, 1), date(2024, 12, 31))
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSeriesCache_Hit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	day := date(2024, 6, 14)
	cache := NewSeriesCache(redis.NewCache(redis.Wrap(db), "momentum"), func() time.Time {
		return day.Add(9 * time.Hour)
	})

	mock.ExpectGet("momentum:cache:series:A.NS:2024-06-14").
		SetVal(`[{"date":"2024-06-12T00:00:00Z","close":10},{"date":"2024-06-13T00:00:00Z","close":11}]`)

	series, err := cache.Load(context.Background(), "A.NS", date(2024, 6, 13), day)
	require.NoError(t, err)
	assert.Equal(t, []float64{11}, series.Closes())
	assert.NoError(t, mock.ExpectationsWereMet())
}
