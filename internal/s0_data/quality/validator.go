package quality

import (
	"math"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
)

// Report summarizes what Clean removed from one ticker's raw closes
type Report struct {
	Ticker      string `json:"ticker"`
	Total       int    `json:"total"`
	Kept        int    `json:"kept"`
	NonFinite   int    `json:"non_finite"`
	NonPositive int    `json:"non_positive"`
}

// Dropped returns the number of rejected observations
func (r Report) Dropped() int {
	return r.NonFinite + r.NonPositive
}

// Coverage returns the kept share of observations (0 when there were none)
func (r Report) Coverage() float64 {
	if r.Total == 0 {
		return 0
	}
	return float64(r.Kept) / float64(r.Total)
}

// Clean drops NaN/Inf and non-positive closes
// ⭐ SSOT: S0 가격 품질 필터는 여기서만
func Clean(ticker string, points []contracts.PricePoint) ([]contracts.PricePoint, Report) {
	report := Report{Ticker: ticker, Total: len(points)}
	kept := make([]contracts.PricePoint, 0, len(points))
	for _, p := range points {
		switch {
		case math.IsNaN(p.Close) || math.IsInf(p.Close, 0):
			report.NonFinite++
		case p.Close <= 0:
			report.NonPositive++
		default:
			kept = append(kept, p)
		}
	}
	report.Kept = len(kept)
	return kept, report
}
