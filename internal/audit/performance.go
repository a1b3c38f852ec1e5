package audit

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/Rahul711sharma/momentum-analysis/internal/backtest"
	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
)

// Analyzer summarizes a finished backtest
// ⭐ SSOT: 성과 분석 로직은 여기서만
type Analyzer struct {
	riskFreeRate float64 // annual, as a fraction
	logger       *logger.Logger
}

// NewAnalyzer creates a new performance analyzer
func NewAnalyzer(riskFreeRate float64, log *logger.Logger) *Analyzer {
	return &Analyzer{
		riskFreeRate: riskFreeRate,
		logger:       log,
	}
}

// PerformanceReport is computed from the period returns and, when positions
// were tracked, the closed round trips. Ratios are fractions, NaN when undefined.
type PerformanceReport struct {
	Periods        int `json:"periods"`
	DefinedPeriods int `json:"defined_periods"`

	// 수익률
	TotalReturn  float64 `json:"total_return"`
	AnnualReturn float64 `json:"annual_return"`
	BestPeriod   float64 `json:"best_period"`
	WorstPeriod  float64 `json:"worst_period"`

	// 리스크 지표
	Volatility  float64   `json:"volatility"`
	Sharpe      float64   `json:"sharpe"`
	Sortino     float64   `json:"sortino"`
	MaxDrawdown float64   `json:"max_drawdown"`
	VaR95       VaRResult `json:"var_95"`
	NormalVaR95 VaRResult `json:"normal_var_95"`

	// 트레이딩 지표 (positions)
	RoundTrips   int     `json:"round_trips"`
	WinRate      float64 `json:"win_rate"`
	AvgWin       float64 `json:"avg_win"`
	AvgLoss      float64 `json:"avg_loss"`
	ProfitFactor float64 `json:"profit_factor"`
}

// RoundTrip is a closed position
type RoundTrip struct {
	Ticker     string
	BuyPeriod  string
	SellPeriod string
	PnL        float64
}

// PeriodsPerYear is the annualization factor of a cadence
func PeriodsPerYear(c contracts.Cadence) float64 {
	if c == contracts.CadenceWeekly {
		return 52
	}
	return 12
}

// Analyze builds the report of one backtest result
func (a *Analyzer) Analyze(result *backtest.Result) *PerformanceReport {
	returns := definedReturns(result.PeriodReturns)
	perYear := PeriodsPerYear(result.Config.Cadence)

	report := &PerformanceReport{
		Periods:        len(result.PeriodReturns),
		DefinedPeriods: len(returns),
	}

	// 수익률
	report.TotalReturn = backtest.TotalReturn(result.PeriodReturns)
	report.AnnualReturn = annualize(report.TotalReturn, len(returns), perYear)
	report.BestPeriod, report.WorstPeriod = extremes(returns)

	// 리스크 지표
	report.Volatility = volatility(returns, perYear)
	report.Sharpe = ratio(report.AnnualReturn-a.riskFreeRate, report.Volatility)
	report.Sortino = ratio(report.AnnualReturn-a.riskFreeRate, downsideDeviation(returns, perYear))
	report.MaxDrawdown = maxDrawdown(returns)
	report.VaR95 = HistoricalVaR(returns, 0.95)
	report.NormalVaR95 = ParametricVaR(returns, 0.95)

	// 트레이딩 지표
	trips := RoundTrips(result.Buys, result.Sells)
	report.RoundTrips = len(trips)
	report.WinRate = winRate(trips)
	report.AvgWin, report.AvgLoss = avgWinLoss(trips)
	report.ProfitFactor = profitFactor(trips)

	a.logger.WithFields(map[string]interface{}{
		"periods":      report.Periods,
		"total_return": report.TotalReturn,
		"sharpe":       report.Sharpe,
		"max_drawdown": report.MaxDrawdown,
		"round_trips":  report.RoundTrips,
	}).Debug("Performance analysis completed")

	return report
}

// definedReturns converts percentage period returns to fractions, dropping NaN
func definedReturns(prs []backtest.PeriodReturn) []float64 {
	out := make([]float64, 0, len(prs))
	for _, pr := range prs {
		if math.IsNaN(pr.Return) {
			continue
		}
		out = append(out, pr.Return/100)
	}
	return out
}

// annualize converts a compounded return over n periods to an annual rate
func annualize(totalReturn float64, n int, perYear float64) float64 {
	if n == 0 {
		return math.NaN()
	}
	return math.Pow(1.0+totalReturn, perYear/float64(n)) - 1.0
}

func extremes(returns []float64) (float64, float64) {
	if len(returns) == 0 {
		return math.NaN(), math.NaN()
	}
	best, worst := returns[0], returns[0]
	for _, r := range returns[1:] {
		best = math.Max(best, r)
		worst = math.Min(worst, r)
	}
	return best, worst
}

// volatility is the annualized sample standard deviation
func volatility(returns []float64, perYear float64) float64 {
	if len(returns) < 2 {
		return math.NaN()
	}
	return stat.StdDev(returns, nil) * math.Sqrt(perYear)
}

// downsideDeviation only counts negative returns
func downsideDeviation(returns []float64, perYear float64) float64 {
	var sumSquaredNegative float64
	var countNegative int
	for _, r := range returns {
		if r < 0 {
			sumSquaredNegative += r * r
			countNegative++
		}
	}
	if countNegative == 0 {
		return math.NaN()
	}
	return math.Sqrt(sumSquaredNegative/float64(countNegative)) * math.Sqrt(perYear)
}

func ratio(num, den float64) float64 {
	if den == 0 || math.IsNaN(den) {
		return math.NaN()
	}
	return num / den
}

// maxDrawdown is the deepest peak-to-trough fall of the compounded curve (<= 0)
func maxDrawdown(returns []float64) float64 {
	cumValue := 1.0
	peak := 1.0
	maxDD := 0.0

	for _, r := range returns {
		cumValue *= 1.0 + r
		if cumValue > peak {
			peak = cumValue
		}
		if dd := (cumValue - peak) / peak; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// RoundTrips pairs every sell with the earliest open buy of the same ticker
func RoundTrips(buys, sells []contracts.Trade) []RoundTrip {
	open := make(map[string][]contracts.Trade)
	for _, b := range buys {
		open[b.Ticker] = append(open[b.Ticker], b)
	}

	trips := make([]RoundTrip, 0, len(sells))
	for _, s := range sells {
		queue := open[s.Ticker]
		if len(queue) == 0 {
			continue
		}
		buy := queue[0]
		open[s.Ticker] = queue[1:]
		trips = append(trips, RoundTrip{
			Ticker:     s.Ticker,
			BuyPeriod:  buy.Period,
			SellPeriod: s.Period,
			PnL:        s.Value() - buy.Value(),
		})
	}
	return trips
}

func winRate(trips []RoundTrip) float64 {
	if len(trips) == 0 {
		return math.NaN()
	}
	wins := 0
	for _, t := range trips {
		if t.PnL > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trips))
}

func avgWinLoss(trips []RoundTrip) (float64, float64) {
	var wins, losses []float64
	for _, t := range trips {
		if t.PnL > 0 {
			wins = append(wins, t.PnL)
		} else if t.PnL < 0 {
			losses = append(losses, t.PnL)
		}
	}
	return meanOrNaN(wins), meanOrNaN(losses)
}

func meanOrNaN(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	return stat.Mean(xs, nil)
}

func profitFactor(trips []RoundTrip) float64 {
	var totalWin, totalLoss float64
	for _, t := range trips {
		if t.PnL > 0 {
			totalWin += t.PnL
		} else if t.PnL < 0 {
			totalLoss += math.Abs(t.PnL)
		}
	}
	return ratio(totalWin, totalLoss)
}
