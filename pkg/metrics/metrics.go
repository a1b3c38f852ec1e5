package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the Prometheus collectors of the backtest service
// ⭐ SSOT: 모든 메트릭 정의는 여기서만
type Registry struct {
	reg *prometheus.Registry

	BacktestDuration *prometheus.HistogramVec
	PeriodsProcessed *prometheus.CounterVec
	TickersSkipped   *prometheus.CounterVec
	SeriesLoads      *prometheus.CounterVec
	LastTotalAmount  *prometheus.GaugeVec
}

// New creates a registry with all collectors registered
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		BacktestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "momentum_backtest_duration_seconds",
				Help:    "Wall time of a backtest run",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"cadence", "mode"},
		),

		PeriodsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentum_periods_processed_total",
				Help: "Rebalancing periods processed, by outcome",
			},
			[]string{"cadence", "outcome"},
		),

		TickersSkipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentum_tickers_skipped_total",
				Help: "Per-ticker skip events by phase and reason",
			},
			[]string{"phase", "reason"},
		),

		SeriesLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "momentum_series_loads_total",
				Help: "Price series loads by source and outcome",
			},
			[]string{"source", "outcome"},
		),

		LastTotalAmount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "momentum_last_total_amount",
				Help: "Total amount reported by the most recent run",
			},
			[]string{"cadence", "variant"},
		),
	}

	r.reg.MustRegister(
		r.BacktestDuration,
		r.PeriodsProcessed,
		r.TickersSkipped,
		r.SeriesLoads,
		r.LastTotalAmount,
	)
	return r
}

// ObserveBacktest records the duration of a run
func (r *Registry) ObserveBacktest(cadence, mode string, d time.Duration) {
	if r == nil {
		return
	}
	r.BacktestDuration.WithLabelValues(cadence, mode).Observe(d.Seconds())
}

// IncPeriod counts one processed or skipped period
func (r *Registry) IncPeriod(cadence, outcome string) {
	if r == nil {
		return
	}
	r.PeriodsProcessed.WithLabelValues(cadence, outcome).Inc()
}

// IncSkip counts one per-ticker skip event
func (r *Registry) IncSkip(phase, reason string) {
	if r == nil {
		return
	}
	r.TickersSkipped.WithLabelValues(phase, reason).Inc()
}

// IncSeriesLoad counts one series load attempt
func (r *Registry) IncSeriesLoad(source, outcome string) {
	if r == nil {
		return
	}
	r.SeriesLoads.WithLabelValues(source, outcome).Inc()
}

// SetTotal records the latest reported total amount
func (r *Registry) SetTotal(cadence, variant string, total float64) {
	if r == nil {
		return
	}
	r.LastTotalAmount.WithLabelValues(cadence, variant).Set(total)
}

// Handler exposes the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
