package s2_signals

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
)

// Config holds the metric window definitions
type Config struct {
	// LookbackMonths are the trailing calendar windows for monthly metrics.
	// The longest one is the risk window.
	LookbackMonths []int
	// TrailingBars caps the daily history fed into monthly metrics
	TrailingBars int
	// AnnualizationDays scales daily volatility (sqrt(days))
	AnnualizationDays int
	// Workers bounds per-ticker fan-out (0 = GOMAXPROCS)
	Workers int
}

// DefaultConfig returns 12/6/3-month windows over the last 252 bars
func DefaultConfig() Config {
	return Config{
		LookbackMonths:    []int{12, 6, 3},
		TrailingBars:      252,
		AnnualizationDays: 252,
	}
}

// WeeklyWindowLabel labels the single window of weekly metrics
const WeeklyWindowLabel = "1W"

// MomentumCalculator computes return-to-risk metrics per ticker
// ⭐ SSOT: 모멘텀 지표 계산은 여기서만
type MomentumCalculator struct {
	cfg    Config
	logger *logger.Logger
}

// NewMomentumCalculator creates a new momentum calculator
func NewMomentumCalculator(cfg Config, log *logger.Logger) *MomentumCalculator {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &MomentumCalculator{
		cfg:    cfg,
		logger: log,
	}
}

// TickerError is a ticker that produced no metric for one evaluation date
type TickerError struct {
	Ticker string
	Err    error
}

// CrossSection is the metric snapshot of a universe at one evaluation date.
// Metrics keep the universe's ticker order.
type CrossSection struct {
	AsOf    time.Time
	Metrics []*contracts.PeriodMetric
	Skipped []TickerError
}

// Calculate computes one ticker's metric as of asOf for the given cadence
func (c *MomentumCalculator) Calculate(series *contracts.PriceSeries, asOf time.Time, cadence contracts.Cadence) (*contracts.PeriodMetric, error) {
	switch cadence {
	case contracts.CadenceMonthly:
		return c.CalculateMonthly(series.Until(asOf).Tail(c.cfg.TrailingBars))
	case contracts.CadenceWeekly:
		return c.CalculateWeekly(series.Until(asOf))
	default:
		return nil, fmt.Errorf("unknown cadence %q", cadence)
	}
}

// CalculateMonthly computes calendar-window returns measured back from the
// last observation, with annualized daily volatility over the longest window.
func (c *MomentumCalculator) CalculateMonthly(series *contracts.PriceSeries) (*contracts.PeriodMetric, error) {
	last, ok := series.Last()
	if !ok {
		return nil, fmt.Errorf("%s: empty series: %w", series.Ticker, contracts.ErrInsufficientData)
	}

	metric := &contracts.PeriodMetric{
		Ticker:  series.Ticker,
		Windows: make([]contracts.WindowReturn, 0, len(c.cfg.LookbackMonths)),
	}

	var (
		riskWindow *contracts.PriceSeries
		longest    int
		sum        float64
	)
	for _, months := range c.cfg.LookbackMonths {
		window := series.Between(contracts.AddMonths(last.Date, -months), last.Date)
		ret, err := windowReturn(window)
		if err != nil {
			return nil, fmt.Errorf("%s %dM window: %w", series.Ticker, months, err)
		}
		metric.Windows = append(metric.Windows, contracts.WindowReturn{
			Label:  fmt.Sprintf("%dM", months),
			Return: ret,
		})
		sum += ret
		if months > longest {
			longest = months
			riskWindow = window
		}
	}
	metric.AverageReturn = sum / float64(len(metric.Windows))

	// 일간 % 수익률 표준편차(ddof=1) × √252
	changes := percentChanges(riskWindow.Closes())
	metric.Risk = sampleStdDev(changes) * math.Sqrt(float64(c.cfg.AnnualizationDays))
	metric.Score = riskAdjusted(metric.AverageReturn, metric.Risk)

	return metric, nil
}

// CalculateWeekly resamples to Sunday week-end closes and uses the mean and
// sample std of weekly % returns. No annualization is applied.
func (c *MomentumCalculator) CalculateWeekly(series *contracts.PriceSeries) (*contracts.PeriodMetric, error) {
	weekly := series.WeekEndCloses()
	if len(weekly) < 2 {
		return nil, fmt.Errorf("%s: %d weekly closes: %w", series.Ticker, len(weekly), contracts.ErrInsufficientData)
	}

	closes := make([]float64, len(weekly))
	for i, p := range weekly {
		closes[i] = p.Close
	}
	returns := percentChanges(closes)
	for _, r := range returns {
		if math.IsInf(r, 0) || math.IsNaN(r) {
			return nil, fmt.Errorf("%s: non-positive weekly close: %w", series.Ticker, contracts.ErrInsufficientData)
		}
	}

	avg := stat.Mean(returns, nil)
	risk := sampleStdDev(returns)

	return &contracts.PeriodMetric{
		Ticker:        series.Ticker,
		Windows:       []contracts.WindowReturn{{Label: WeeklyWindowLabel, Return: avg}},
		AverageReturn: avg,
		Risk:          risk,
		Score:         riskAdjusted(avg, risk),
	}, nil
}

// CalculateAll computes metrics for every ticker of the universe as of asOf.
// Tickers fan out over a bounded worker group, each writing its own slot;
// failures become Skipped entries and never abort the cross-section.
func (c *MomentumCalculator) CalculateAll(ctx context.Context, universe *contracts.Universe, asOf time.Time, cadence contracts.Cadence) (*CrossSection, error) {
	type slot struct {
		metric *contracts.PeriodMetric
		err    error
	}
	slots := make([]slot, len(universe.Tickers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Workers)

	for i, ticker := range universe.Tickers {
		i, series := i, universe.Series[ticker]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i].metric, slots[i].err = c.Calculate(series, asOf, cadence)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("calculate metrics as of %s: %w", asOf.Format("2006-01-02"), err)
	}

	cs := &CrossSection{
		AsOf:    asOf,
		Metrics: make([]*contracts.PeriodMetric, 0, len(slots)),
	}
	for i, s := range slots {
		if s.err != nil {
			cs.Skipped = append(cs.Skipped, TickerError{Ticker: universe.Tickers[i], Err: s.err})
			c.logger.WithFields(map[string]interface{}{
				"ticker": universe.Tickers[i],
				"as_of":  asOf.Format("2006-01-02"),
				"reason": contracts.ReasonOf(s.err),
			}).Debug("Skipped ticker metric")
			continue
		}
		cs.Metrics = append(cs.Metrics, s.metric)
	}

	return cs, nil
}

// windowReturn returns (last-first)/first*100 over a window of at least two closes
func windowReturn(window *contracts.PriceSeries) (float64, error) {
	if window.Len() < 2 {
		return 0, fmt.Errorf("%d observations: %w", window.Len(), contracts.ErrInsufficientData)
	}
	first, _ := window.First()
	last, _ := window.Last()
	if first.Close <= 0 {
		return 0, fmt.Errorf("non-positive first close: %w", contracts.ErrInsufficientData)
	}
	return (last.Close - first.Close) / first.Close * 100, nil
}

// percentChanges returns x[i]/x[i-1]-1, scaled by 100
func percentChanges(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out[i-1] = (closes[i]/closes[i-1] - 1) * 100
	}
	return out
}

// sampleStdDev is the ddof=1 standard deviation, NaN below two samples
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.StdDev(xs, nil)
}

// riskAdjusted is avg/risk, NaN when risk is zero or undefined
func riskAdjusted(avg, risk float64) float64 {
	if risk == 0 || math.IsNaN(risk) || math.IsInf(risk, 0) {
		return math.NaN()
	}
	return avg / risk
}
