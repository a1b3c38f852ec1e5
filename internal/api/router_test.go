package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rahul711sharma/momentum-analysis/internal/api/handlers"
	"github.com/Rahul711sharma/momentum-analysis/internal/brain"
	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/internal/s0_data/collector"
	"github.com/Rahul711sharma/momentum-analysis/internal/strategyconfig"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
	"github.com/Rahul711sharma/momentum-analysis/pkg/metrics"
)

type memoryLoader struct {
	series map[string]*contracts.PriceSeries
}

func (m *memoryLoader) LoadUniverse(_ context.Context, tickers []string, from, to time.Time) (*contracts.Universe, error) {
	results := make([]contracts.SeriesResult, 0, len(tickers))
	for _, t := range tickers {
		s, ok := m.series[t]
		if !ok {
			results = append(results, contracts.SeriesResult{Ticker: t, Err: contracts.ErrSeriesUnavailable})
			continue
		}
		results = append(results, contracts.SeriesResult{Ticker: t, Series: s.Between(from, to), Source: "memory"})
	}
	return contracts.NewUniverse(results), nil
}

func series(t *testing.T, ticker string, rate float64, flat bool) *contracts.PriceSeries {
	t.Helper()
	var points []contracts.PricePoint
	start := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	for day, i := start, 0; !day.After(end); day, i = day.AddDate(0, 0, 1), i+1 {
		x := float64(i)
		c := 50.0
		if !flat {
			c = 100 * math.Exp(rate*x) * (1 + 0.01*math.Sin(x*0.7))
		}
		points = append(points, contracts.PricePoint{Date: day, Close: c})
	}
	s, err := contracts.NewPriceSeries(ticker, points)
	require.NoError(t, err)
	return s
}

type stubCollector struct {
	tickers []string
}

func (s *stubCollector) FetchAllPrices(_ context.Context, tickers []string, _ collector.Config) ([]collector.FetchResult, error) {
	s.tickers = tickers
	return []collector.FetchResult{
		{Ticker: tickers[0], PriceCount: 500},
		{Ticker: "BAD.NS", Error: errors.New("no data")},
	}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *stubCollector) {
	t.Helper()
	log := logger.Nop()
	loader := &memoryLoader{series: map[string]*contracts.PriceSeries{
		"A.NS":    series(t, "A.NS", 0.0010, false),
		"B.NS":    series(t, "B.NS", 0.0006, false),
		"C.NS":    series(t, "C.NS", 0.0002, false),
		"FLAT.NS": series(t, "FLAT.NS", 0, true),
	}}

	strategy := strategyconfig.Default()
	strategy.Universe.Tickers = []string{"A.NS", "B.NS", "C.NS", "FLAT.NS", "GONE.NS"}
	strategy.Backtest.TopK = 2
	strategy.Backtest.Today = "2024-06-15"

	reg := metrics.New()
	orch := brain.NewOrchestrator(loader, reg, log)
	col := &stubCollector{}

	router := NewRouter(
		handlers.NewBacktestHandler(orch, strategy, nil, log),
		handlers.NewDataHandler(col, strategy.Universe.Tickers, log),
		reg.Handler(),
		log,
	)
	return router, col
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestOverallMetrics_NaNScoreIsNull(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/api/metrics/overall", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.MetricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "2024-06-15", resp.Today)
	assert.Equal(t, []string{"GONE.NS"}, resp.Unavailable)
	require.Len(t, resp.Metrics, 4)
	assert.Equal(t, "FLAT.NS", resp.Metrics[3].Ticker)
	assert.Nil(t, resp.Metrics[3].Score, "zero risk gives an undefined score")
	assert.NotNil(t, resp.Metrics[0].Score)
}

func TestOverallMetrics_BadQuery(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/api/metrics/overall?cadence=daily", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "backtest.cadence")
}

func TestRunBacktest(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/backtest", `{"mode":"both","top_k":1}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handlers.BacktestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.RunID)
	assert.Len(t, resp.ConfigHash, 64)
	assert.Equal(t, "monthly", resp.Cadence)
	assert.Equal(t, 1, resp.TopK)
	assert.Equal(t, "2023-06-15", resp.Start)
	assert.Equal(t, "2024-06-15", resp.End)
	assert.Equal(t, []string{"GONE.NS"}, resp.Unavailable)
	require.NotEmpty(t, resp.TopKHistory)
	for _, e := range resp.TopKHistory {
		require.Len(t, e.Members, 1)
		assert.Equal(t, "A.NS", e.Members[0].Ticker)
	}
	require.NotNil(t, resp.Aggregate)
	require.NotNil(t, resp.Positions)
	require.NotNil(t, resp.TotalAmount)
	assert.InDelta(t, resp.Positions.LegacyTotal, *resp.TotalAmount, 1e-6)
	assert.NotEmpty(t, resp.Buys)
	assert.Contains(t, resp.ReturnGrid.Rows, "FLAT.NS")
	require.NotNil(t, resp.Performance)
	assert.Equal(t, len(resp.PeriodReturns), resp.Performance.Periods)
	require.NotNil(t, resp.Performance.TotalReturn)
	assert.InDelta(t, resp.Aggregate.TotalReturn, *resp.Performance.TotalReturn, 1e-9)
}

func TestRunBacktest_InvalidOverride(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(t, router, http.MethodPost, "/api/backtest", `{"top_k":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "backtest.top_k")

	rec = do(t, router, http.MethodPost, "/api/backtest", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunBacktest_EmptyBodyUsesBase(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/backtest", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"top_k":2`)
}

func TestCollect(t *testing.T) {
	router, col := newTestRouter(t)
	rec := do(t, router, http.MethodPost, "/api/data/collect", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.CollectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"BAD.NS"}, resp.Failed)
	assert.Equal(t, "no data", resp.Results[1].Error)
	assert.Len(t, col.tickers, 5, "defaults to the strategy universe")
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	do(t, router, http.MethodPost, "/api/backtest", "")

	rec := do(t, router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "momentum_backtest_duration_seconds")
	assert.Contains(t, rec.Body.String(), "momentum_last_total_amount")
}

func TestMethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/api/backtest", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}


func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := do(t, h, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
}

func TestNotFoundIsJSON(t *testing.T) {
	router, _ := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}
