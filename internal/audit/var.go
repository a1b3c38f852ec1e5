package audit

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// VaRResult is a loss estimate at one confidence level.
// Losses are positive fractions (0.05 = 5% loss), NaN without data.
type VaRResult struct {
	Confidence float64 `json:"confidence"`
	VaR        float64 `json:"var"`
	CVaR       float64 `json:"cvar"`
}

// HistoricalVaR estimates VaR and CVaR (expected shortfall) from the empirical
// distribution of period returns
func HistoricalVaR(returns []float64, confidence float64) VaRResult {
	if len(returns) == 0 {
		return VaRResult{Confidence: confidence, VaR: math.NaN(), CVaR: math.NaN()}
	}

	// 수익률 정렬 (오름차순: 손실이 앞에)
	sorted := append([]float64(nil), returns...)
	sort.Float64s(sorted)

	idx := int(math.Floor((1.0 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}

	return VaRResult{
		Confidence: confidence,
		VaR:        lossOf(sorted[idx]),
		CVaR:       lossOf(stat.Mean(sorted[:idx+1], nil)),
	}
}

// ParametricVaR assumes normally distributed returns with the sample mean and deviation
func ParametricVaR(returns []float64, confidence float64) VaRResult {
	if len(returns) < 2 {
		return VaRResult{Confidence: confidence, VaR: math.NaN(), CVaR: math.NaN()}
	}
	mean, std := stat.MeanStdDev(returns, nil)

	unit := distuv.UnitNormal
	z := unit.Quantile(confidence)

	// CVaR = -mean + std * φ(z) / (1-confidence)
	return VaRResult{
		Confidence: confidence,
		VaR:        lossOf(mean - z*std),
		CVaR:       lossOf(mean - std*unit.Prob(z)/(1-confidence)),
	}
}

// lossOf reports a return as a non-negative loss
func lossOf(r float64) float64 {
	if r < 0 {
		return -r
	}
	return 0
}
