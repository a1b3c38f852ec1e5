package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Counters(t *testing.T) {
	r := New()

	r.IncPeriod("monthly", "processed")
	r.IncPeriod("monthly", "processed")
	r.IncSkip("buy", "no_asof_price")
	r.IncSeriesLoad("csv", "hit")
	r.SetTotal("monthly", "positions", 1234.5)
	r.ObserveBacktest("monthly", "positions", 150*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.PeriodsProcessed.WithLabelValues("monthly", "processed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.TickersSkipped.WithLabelValues("buy", "no_asof_price")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SeriesLoads.WithLabelValues("csv", "hit")))
	assert.Equal(t, 1234.5, testutil.ToFloat64(r.LastTotalAmount.WithLabelValues("monthly", "positions")))
}

func TestRegistry_NilSafe(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.IncPeriod("weekly", "skipped")
		r.IncSkip("sell", "no_asof_price")
		r.ObserveBacktest("weekly", "aggregate", time.Second)
	})
}

func TestRegistry_Handler(t *testing.T) {
	r := New()
	r.IncSeriesLoad("yahoo", "error")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `momentum_series_loads_total{outcome="error",source="yahoo"} 1`)
}
