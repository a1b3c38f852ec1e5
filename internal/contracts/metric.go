package contracts

import "math"

// WindowReturn is the percentage return over one lookback window
type WindowReturn struct {
	Label  string  `json:"label"` // e.g. "12M", "6M", "3M", "1W"
	Return float64 `json:"return"`
}

// PeriodMetric is the ranking snapshot of one ticker at one evaluation date
// ⭐ SSOT: S2 → S4 랭킹 입력 전달
type PeriodMetric struct {
	Ticker        string         `json:"ticker"`
	Windows       []WindowReturn `json:"windows"`
	AverageReturn float64        `json:"average_return"`
	Risk          float64        `json:"risk"`  // std dev of periodic % changes
	Score         float64        `json:"score"` // AverageReturn / Risk, NaN when undefined
}

// HasScore reports whether the ranking score is defined
func (m *PeriodMetric) HasScore() bool {
	return !math.IsNaN(m.Score) && !math.IsInf(m.Score, 0)
}

// WindowReturn looks up a window return by label
func (m *PeriodMetric) WindowReturn(label string) (float64, bool) {
	for _, w := range m.Windows {
		if w.Label == label {
			return w.Return, true
		}
	}
	return math.NaN(), false
}
