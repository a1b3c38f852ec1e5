package audit

import (
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"
)

// ReportRow is one metric of the performance table
type ReportRow struct {
	Metric string `csv:"metric"`
	Value  string `csv:"value"`
}

// Rows flattens the report in a fixed order. Undefined values are blank.
func (r *PerformanceReport) Rows() []ReportRow {
	f := func(v float64) string {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ""
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return []ReportRow{
		{"periods", strconv.Itoa(r.Periods)},
		{"defined_periods", strconv.Itoa(r.DefinedPeriods)},
		{"total_return", f(r.TotalReturn)},
		{"annual_return", f(r.AnnualReturn)},
		{"best_period", f(r.BestPeriod)},
		{"worst_period", f(r.WorstPeriod)},
		{"volatility", f(r.Volatility)},
		{"sharpe", f(r.Sharpe)},
		{"sortino", f(r.Sortino)},
		{"max_drawdown", f(r.MaxDrawdown)},
		{"var_95", f(r.VaR95.VaR)},
		{"cvar_95", f(r.VaR95.CVaR)},
		{"normal_var_95", f(r.NormalVaR95.VaR)},
		{"normal_cvar_95", f(r.NormalVaR95.CVaR)},
		{"round_trips", strconv.Itoa(r.RoundTrips)},
		{"win_rate", f(r.WinRate)},
		{"avg_win", f(r.AvgWin)},
		{"avg_loss", f(r.AvgLoss)},
		{"profit_factor", f(r.ProfitFactor)},
	}
}

// Export writes the report as a two-column CSV
func Export(path string, report *PerformanceReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	rows := report.Rows()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
