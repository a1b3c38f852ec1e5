package brain

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/internal/strategyconfig"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
	"github.com/Rahul711sharma/momentum-analysis/pkg/metrics"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// fakeLoader serves synthetic daily series and records the requested window
type fakeLoader struct {
	series   map[string]*contracts.PriceSeries
	from, to time.Time
}

func (f *fakeLoader) LoadUniverse(_ context.Context, tickers []string, from, to time.Time) (*contracts.Universe, error) {
	f.from, f.to = from, to
	results := make([]contracts.SeriesResult, 0, len(tickers))
	for _, t := range tickers {
		s, ok := f.series[t]
		if !ok {
			results = append(results, contracts.SeriesResult{Ticker: t, Err: contracts.ErrSeriesUnavailable})
			continue
		}
		results = append(results, contracts.SeriesResult{Ticker: t, Series: s.Between(from, to), Source: "fake"})
	}
	return contracts.NewUniverse(results), nil
}

func synthetic(t *testing.T, ticker string, rate float64) *contracts.PriceSeries {
	t.Helper()
	var points []contracts.PricePoint
	for day, i := d(2022, 1, 1), 0; !day.After(d(2024, 6, 15)); day, i = day.AddDate(0, 0, 1), i+1 {
		x := float64(i)
		points = append(points, contracts.PricePoint{
			Date:  day,
			Close: 100 * math.Exp(rate*x) * (1 + 0.01*math.Sin(x*0.7)),
		})
	}
	s, err := contracts.NewPriceSeries(ticker, points)
	require.NoError(t, err)
	return s
}

func newFixture(t *testing.T) (*fakeLoader, *strategyconfig.Config) {
	t.Helper()
	loader := &fakeLoader{series: map[string]*contracts.PriceSeries{
		"A.NS": synthetic(t, "A.NS", 0.0010),
		"B.NS": synthetic(t, "B.NS", 0.0007),
		"C.NS": synthetic(t, "C.NS", 0.0004),
		"D.NS": synthetic(t, "D.NS", -0.0002),
	}}

	cfg := strategyconfig.Default()
	cfg.Universe.Tickers = []string{"A.NS", "B.NS", "MISSING.NS", "C.NS", "D.NS"}
	cfg.Backtest.TopK = 2
	cfg.Backtest.Today = "2024-06-15"
	return loader, cfg
}

func TestOrchestrator_Run(t *testing.T) {
	loader, cfg := newFixture(t)
	reg := metrics.New()
	o := NewOrchestrator(loader, reg, logger.Nop())

	exportDir := t.TempDir()
	result, err := o.Run(context.Background(), RunConfig{
		Strategy:  cfg,
		RawYAML:   []byte("meta: {}"),
		ExportDir: exportDir,
	})
	require.NoError(t, err)

	assert.Equal(t, d(2024, 6, 15), result.Today)
	assert.Equal(t, []string{"MISSING.NS"}, result.Unavailable)
	assert.Equal(t, d(2022, 5, 15), loader.from)
	assert.Equal(t, d(2024, 6, 15), loader.to)

	require.Len(t, result.Overall, 4)
	assert.Equal(t, "A.NS", result.Overall[0].Ticker, "overall metrics keep ticker order")

	bt := result.Backtest
	require.NotNil(t, bt)
	assert.Equal(t, bt.RunID, result.RunID)
	assert.Equal(t, result.RunID, result.Snapshot.RunID)
	assert.Equal(t, "meta: {}", result.Snapshot.ConfigYAML)
	require.NotEmpty(t, bt.TopK)
	assert.Equal(t, "A.NS", bt.TopK[len(bt.TopK)-1].Members[0].Ticker)

	require.NotNil(t, bt.Aggregate)
	require.NotNil(t, bt.Positions)
	assert.Equal(t, bt.Aggregate.TotalAmount, testutil.ToFloat64(reg.LastTotalAmount.WithLabelValues("monthly", "aggregate")))
	assert.Equal(t, bt.Positions.LegacyTotal, testutil.ToFloat64(reg.LastTotalAmount.WithLabelValues("monthly", "positions_legacy")))

	require.NotNil(t, result.Performance)
	assert.Equal(t, len(bt.PeriodReturns), result.Performance.Periods)
	assert.InDelta(t, bt.Aggregate.TotalReturn, result.Performance.TotalReturn, 1e-12)

	require.NotEmpty(t, result.Exported)
	assert.True(t, strings.HasSuffix(filepath.Base(result.Exported[len(result.Exported)-1]), "_performance.csv"))
	for _, path := range result.Exported {
		_, err := os.Stat(path)
		assert.NoError(t, err)
	}
}

func TestOrchestrator_RunRejectsInvalidStrategy(t *testing.T) {
	loader, cfg := newFixture(t)
	cfg.Backtest.TopK = 0

	_, err := NewOrchestrator(loader, nil, logger.Nop()).Run(context.Background(), RunConfig{Strategy: cfg})
	require.Error(t, err)

	var ve strategyconfig.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.True(t, loader.from.IsZero(), "nothing loaded for an invalid strategy")
}

func TestOrchestrator_OverallMetrics(t *testing.T) {
	loader, cfg := newFixture(t)
	o := NewOrchestrator(loader, nil, logger.Nop())

	overall, universe, err := o.OverallMetrics(context.Background(), cfg, time.Now())
	require.NoError(t, err)
	assert.Len(t, overall, 4)
	assert.Equal(t, []string{"A.NS", "B.NS", "C.NS", "D.NS"}, universe.Tickers)
	for _, m := range overall {
		assert.Len(t, m.Windows, 3)
		assert.True(t, m.HasScore(), m.Ticker)
	}
}

func TestBacktestConfig(t *testing.T) {
	cfg := strategyconfig.Default()
	cfg.Backtest.Cadence = "weekly"
	cfg.Backtest.Mode = "aggregate"
	cfg.Backtest.SelectionAnchor = "final"

	bc := BacktestConfig(cfg, d(2024, 6, 15))
	require.NoError(t, bc.Validate())
	assert.Equal(t, contracts.CadenceWeekly, bc.Cadence)
	assert.InDelta(t, 100000.0/52.0, bc.Budget(), 1e-9)

	mc := MetricsConfig(cfg)
	assert.Equal(t, []int{12, 6, 3}, mc.LookbackMonths)
	assert.Equal(t, 252, mc.TrailingBars)
}
