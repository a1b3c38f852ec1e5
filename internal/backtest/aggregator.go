package backtest

import "math"

// PeriodReturn is the average top-K return of one period (NaN when undefined)
type PeriodReturn struct {
	Period string  `json:"period" csv:"period"`
	Return float64 `json:"return" csv:"return"`
}

// TopKMember is one selected ticker and its period return
type TopKMember struct {
	Rank   int     `json:"rank"`
	Ticker string  `json:"ticker"`
	Return float64 `json:"return"`
}

// TopKEntry is the top-K membership of one period
type TopKEntry struct {
	Period  string       `json:"period"`
	Members []TopKMember `json:"members"`
}

// ReturnGrid is a ticker x period matrix of individual period returns.
// Rows keep first-seen ticker order, columns keep period order.
type ReturnGrid struct {
	Tickers []string
	Periods []string
	values  map[string]map[string]float64
}

// NewReturnGrid creates an empty grid
func NewReturnGrid() *ReturnGrid {
	return &ReturnGrid{values: make(map[string]map[string]float64)}
}

// Set stores one cell
func (g *ReturnGrid) Set(ticker, period string, ret float64) {
	row, ok := g.values[ticker]
	if !ok {
		row = make(map[string]float64)
		g.values[ticker] = row
		g.Tickers = append(g.Tickers, ticker)
	}
	if !contains(g.Periods, period) {
		g.Periods = append(g.Periods, period)
	}
	row[period] = ret
}

// Get returns one cell. Missing cells are NaN with ok=false.
func (g *ReturnGrid) Get(ticker, period string) (float64, bool) {
	v, ok := g.values[ticker][period]
	if !ok {
		return math.NaN(), false
	}
	return v, true
}

// Row returns a ticker's returns aligned with Periods
func (g *ReturnGrid) Row(ticker string) []float64 {
	row := make([]float64, len(g.Periods))
	for i, p := range g.Periods {
		row[i], _ = g.Get(ticker, p)
	}
	return row
}

// TotalReturn compounds percentage returns: prod(1 + r/100) - 1, skipping NaN
func TotalReturn(returns []PeriodReturn) float64 {
	total := 1.0
	for _, r := range returns {
		if math.IsNaN(r.Return) {
			continue
		}
		total *= 1 + r.Return/100
	}
	return total - 1
}

// AggregateAmount is budget * periods * (1 + totalReturn)
func AggregateAmount(budget float64, periods int, totalReturn float64) float64 {
	return budget * float64(periods) * (1 + totalReturn)
}

// PeriodReturnOf computes (asof(end) - asof(start)) / asof(start) * 100
func PeriodReturnOf(startPrice, endPrice float64, startOK, endOK bool) float64 {
	if !startOK || !endOK || startPrice == 0 {
		return math.NaN()
	}
	return (endPrice - startPrice) / startPrice * 100
}

// meanDefined averages the non-NaN values, NaN when none exist
func meanDefined(xs []float64) float64 {
	var (
		sum float64
		n   int
	)
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		sum += x
		n++
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// ReturnMap converts ordered period returns into a label-keyed map
func ReturnMap(returns []PeriodReturn) map[string]float64 {
	out := make(map[string]float64, len(returns))
	for _, r := range returns {
		out[r.Period] = r.Return
	}
	return out
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
