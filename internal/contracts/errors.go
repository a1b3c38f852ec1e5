package contracts

import "errors"

// Skip reasons. None of these abort a backtest run.
var (
	// ErrInsufficientData: series empty or too short for a required window
	ErrInsufficientData = errors.New("insufficient data")
	// ErrUndefinedRiskRatio: zero or undefined volatility, score propagates as NaN
	ErrUndefinedRiskRatio = errors.New("undefined risk ratio")
	// ErrNoAsOfPrice: no observation at or before the queried date
	ErrNoAsOfPrice = errors.New("no as-of price")
	// ErrEmptyCrossSection: no ticker has valid metrics in a period
	ErrEmptyCrossSection = errors.New("empty cross-section")
	// ErrSeriesUnavailable: the data collaborator could not supply a series
	ErrSeriesUnavailable = errors.New("series unavailable")
)

// Phase identifies where in a period a ticker was skipped
type Phase string

const (
	PhaseMetrics   Phase = "metrics"
	PhaseSell      Phase = "sell"
	PhaseBuy       Phase = "buy"
	PhaseValuation Phase = "valuation"
	PhasePeriod    Phase = "period"
)

// SkipEvent records a non-fatal skip during a run
type SkipEvent struct {
	Period string `json:"period" csv:"period"`
	Ticker string `json:"ticker,omitempty" csv:"ticker"`
	Phase  Phase  `json:"phase" csv:"phase"`
	Reason string `json:"reason" csv:"reason"`
}

// ReasonOf maps an error to its short skip reason
func ReasonOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrUndefinedRiskRatio):
		return "undefined_risk_ratio"
	case errors.Is(err, ErrNoAsOfPrice):
		return "no_asof_price"
	case errors.Is(err, ErrEmptyCrossSection):
		return "empty_cross_section"
	case errors.Is(err, ErrSeriesUnavailable):
		return "series_unavailable"
	default:
		return "error"
	}
}
