package handlers

import (
	"math"
	"time"

	"github.com/Rahul711sharma/momentum-analysis/internal/audit"
	"github.com/Rahul711sharma/momentum-analysis/internal/backtest"
	"github.com/Rahul711sharma/momentum-analysis/internal/brain"
	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/internal/strategyconfig"
)

// encoding/json은 NaN/Inf를 거부하므로 응답 DTO는 미정의 값을 null로 표현

// num converts undefined values (NaN, ±Inf) to nil
func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// WindowDTO is one trailing window return
type WindowDTO struct {
	Label  string   `json:"label"`
	Return *float64 `json:"return"`
}

// MetricDTO is one ticker's ranking snapshot
type MetricDTO struct {
	Ticker        string      `json:"ticker"`
	Windows       []WindowDTO `json:"windows"`
	AverageReturn *float64    `json:"average_return"`
	Risk          *float64    `json:"risk"`
	Score         *float64    `json:"score"`
}

// MetricsResponse is the overall metrics table
type MetricsResponse struct {
	StrategyID  string      `json:"strategy_id"`
	Today       string      `json:"today"`
	Cadence     string      `json:"cadence"`
	Metrics     []MetricDTO `json:"metrics"`
	Unavailable []string    `json:"unavailable"`
}

// NewMetricDTOs converts metrics, keeping order
func NewMetricDTOs(ms []*contracts.PeriodMetric) []MetricDTO {
	out := make([]MetricDTO, 0, len(ms))
	for _, m := range ms {
		windows := make([]WindowDTO, len(m.Windows))
		for i, w := range m.Windows {
			windows[i] = WindowDTO{Label: w.Label, Return: num(w.Return)}
		}
		out = append(out, MetricDTO{
			Ticker:        m.Ticker,
			Windows:       windows,
			AverageReturn: num(m.AverageReturn),
			Risk:          num(m.Risk),
			Score:         num(m.Score),
		})
	}
	return out
}

// PeriodReturnDTO is one period's average top-K return
type PeriodReturnDTO struct {
	Period string   `json:"period"`
	Return *float64 `json:"return"`
}

// TopKMemberDTO is one selected ticker
type TopKMemberDTO struct {
	Rank   int      `json:"rank"`
	Ticker string   `json:"ticker"`
	Return *float64 `json:"return"`
}

// TopKDTO is one period's selection
type TopKDTO struct {
	Period  string          `json:"period"`
	Members []TopKMemberDTO `json:"members"`
}

// GridDTO is the ticker x period return matrix
type GridDTO struct {
	Periods []string              `json:"periods"`
	Rows    map[string][]*float64 `json:"rows"`
}

// PerformanceDTO mirrors audit.PerformanceReport with undefined ratios as null
type PerformanceDTO struct {
	Periods        int      `json:"periods"`
	DefinedPeriods int      `json:"defined_periods"`
	TotalReturn    *float64 `json:"total_return"`
	AnnualReturn   *float64 `json:"annual_return"`
	BestPeriod     *float64 `json:"best_period"`
	WorstPeriod    *float64 `json:"worst_period"`
	Volatility     *float64 `json:"volatility"`
	Sharpe         *float64 `json:"sharpe"`
	Sortino        *float64 `json:"sortino"`
	MaxDrawdown    *float64 `json:"max_drawdown"`
	VaR95          *float64 `json:"var_95"`
	CVaR95         *float64 `json:"cvar_95"`
	RoundTrips     int      `json:"round_trips"`
	WinRate        *float64 `json:"win_rate"`
	AvgWin         *float64 `json:"avg_win"`
	AvgLoss        *float64 `json:"avg_loss"`
	ProfitFactor   *float64 `json:"profit_factor"`
}

func newPerformanceDTO(p *audit.PerformanceReport) *PerformanceDTO {
	if p == nil {
		return nil
	}
	return &PerformanceDTO{
		Periods:        p.Periods,
		DefinedPeriods: p.DefinedPeriods,
		TotalReturn:    num(p.TotalReturn),
		AnnualReturn:   num(p.AnnualReturn),
		BestPeriod:     num(p.BestPeriod),
		WorstPeriod:    num(p.WorstPeriod),
		Volatility:     num(p.Volatility),
		Sharpe:         num(p.Sharpe),
		Sortino:        num(p.Sortino),
		MaxDrawdown:    num(p.MaxDrawdown),
		VaR95:          num(p.VaR95.VaR),
		CVaR95:         num(p.VaR95.CVaR),
		RoundTrips:     p.RoundTrips,
		WinRate:        num(p.WinRate),
		AvgWin:         num(p.AvgWin),
		AvgLoss:        num(p.AvgLoss),
		ProfitFactor:   num(p.ProfitFactor),
	}
}

// BacktestResponse is the full run report
type BacktestResponse struct {
	RunID       string   `json:"run_id"`
	StrategyID  string   `json:"strategy_id"`
	ConfigHash  string   `json:"config_hash"`
	Cadence     string   `json:"cadence"`
	Mode        string   `json:"mode"`
	Anchor      string   `json:"selection_anchor"`
	TopK        int      `json:"top_k"`
	Today       string   `json:"today"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Periods     int      `json:"periods"`
	Processed   int      `json:"processed"`
	DurationMS  int64    `json:"duration_ms"`
	TotalAmount *float64 `json:"total_amount"`

	Aggregate   *backtest.AggregateSummary `json:"aggregate,omitempty"`
	Positions   *backtest.PositionSummary  `json:"positions,omitempty"`
	Performance *PerformanceDTO            `json:"performance,omitempty"`

	PeriodReturns []PeriodReturnDTO        `json:"period_returns"`
	TopKHistory   []TopKDTO                `json:"topk"`
	ReturnGrid    GridDTO                  `json:"return_grid"`
	Buys          []contracts.Trade        `json:"buys"`
	Sells         []contracts.Trade        `json:"sells"`
	Skips         []contracts.SkipEvent    `json:"skips"`
	Unavailable   []string                 `json:"unavailable"`
	Warnings      []strategyconfig.Warning `json:"warnings"`
}

// NewBacktestResponse converts a run result
func NewBacktestResponse(cfg *strategyconfig.Config, r *brain.RunResult) BacktestResponse {
	bt := r.Backtest
	resp := BacktestResponse{
		RunID:       r.RunID,
		StrategyID:  cfg.Meta.StrategyID,
		ConfigHash:  r.Snapshot.ConfigHash,
		Cadence:     string(bt.Config.Cadence),
		Mode:        string(bt.Config.Mode),
		Anchor:      string(bt.Config.Anchor),
		TopK:        bt.Config.TopK,
		Today:       formatDate(r.Today),
		Start:       formatDate(bt.Start),
		End:         formatDate(bt.End),
		Periods:     len(bt.Periods),
		Processed:   bt.Processed,
		DurationMS:  r.Duration.Milliseconds(),
		TotalAmount: num(bt.TotalAmount),
		Aggregate:   bt.Aggregate,
		Positions:   bt.Positions,
		Performance: newPerformanceDTO(r.Performance),
		ReturnGrid:  GridDTO{Periods: bt.ReturnGrid.Periods, Rows: make(map[string][]*float64)},
		Buys:        nonNil(bt.Buys),
		Sells:       nonNil(bt.Sells),
		Skips:       nonNil(bt.Skips),
		Unavailable: nonNil(r.Unavailable),
		Warnings:    nonNil(r.Warnings),
	}

	resp.PeriodReturns = make([]PeriodReturnDTO, len(bt.PeriodReturns))
	for i, pr := range bt.PeriodReturns {
		resp.PeriodReturns[i] = PeriodReturnDTO{Period: pr.Period, Return: num(pr.Return)}
	}

	resp.TopKHistory = make([]TopKDTO, len(bt.TopK))
	for i, e := range bt.TopK {
		members := make([]TopKMemberDTO, len(e.Members))
		for j, m := range e.Members {
			members[j] = TopKMemberDTO{Rank: m.Rank, Ticker: m.Ticker, Return: num(m.Return)}
		}
		resp.TopKHistory[i] = TopKDTO{Period: e.Period, Members: members}
	}

	for _, ticker := range bt.ReturnGrid.Tickers {
		row := bt.ReturnGrid.Row(ticker)
		cells := make([]*float64, len(row))
		for i, v := range row {
			cells[i] = num(v)
		}
		resp.ReturnGrid.Rows[ticker] = cells
	}
	return resp
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
