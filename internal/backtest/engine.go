package backtest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/internal/s2_signals"
	"github.com/Rahul711sharma/momentum-analysis/internal/selection"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
	"github.com/Rahul711sharma/momentum-analysis/pkg/metrics"
)

// Mode selects which reporting variants a run produces
type Mode string

const (
	// ModeAggregate only compounds the average top-K return
	ModeAggregate Mode = "aggregate"
	// ModePositions tracks positions with buy/sell ledgers
	ModePositions Mode = "positions"
	// ModeBoth produces both variants from the same selections
	ModeBoth Mode = "both"
)

func (m Mode) aggregate() bool { return m == ModeAggregate || m == ModeBoth }
func (m Mode) positions() bool { return m == ModePositions || m == ModeBoth }

// Anchor selects when the top-K is ranked
type Anchor string

const (
	// AnchorRolling re-ranks at every period end
	AnchorRolling Anchor = "rolling"
	// AnchorFinal ranks once on metrics as of today and reuses that top-K
	AnchorFinal Anchor = "final"
)

// Config holds backtest configuration
type Config struct {
	Cadence       contracts.Cadence
	Mode          Mode
	Anchor        Anchor
	TopK          int
	Amount        float64 // base investment per month
	WeeklyDivisor float64 // weekly budget = Amount / WeeklyDivisor
	SpanYears     int
	Today         time.Time // backtest end anchor
}

// DefaultConfig returns the monthly, top-10, trailing one year configuration
func DefaultConfig(today time.Time) Config {
	return Config{
		Cadence:       contracts.CadenceMonthly,
		Mode:          ModeBoth,
		Anchor:        AnchorRolling,
		TopK:          10,
		Amount:        100000,
		WeeklyDivisor: 52,
		SpanYears:     1,
		Today:         today,
	}
}

// Validate rejects structurally invalid configuration before any period runs
func (c Config) Validate() error {
	if !c.Cadence.Valid() {
		return fmt.Errorf("invalid cadence %q", c.Cadence)
	}
	switch c.Mode {
	case ModeAggregate, ModePositions, ModeBoth:
	default:
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	switch c.Anchor {
	case AnchorRolling, AnchorFinal:
	default:
		return fmt.Errorf("invalid selection anchor %q", c.Anchor)
	}
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be >= 1, got %d", c.TopK)
	}
	if c.Amount <= 0 {
		return fmt.Errorf("amount must be positive, got %v", c.Amount)
	}
	if c.Cadence == contracts.CadenceWeekly && c.WeeklyDivisor <= 0 {
		return fmt.Errorf("weekly_divisor must be positive, got %v", c.WeeklyDivisor)
	}
	if c.SpanYears < 1 {
		return fmt.Errorf("span_years must be >= 1, got %d", c.SpanYears)
	}
	if c.Today.IsZero() {
		return fmt.Errorf("today anchor is required")
	}
	return nil
}

// Budget is the per-period investment
func (c Config) Budget() float64 {
	if c.Cadence == contracts.CadenceWeekly {
		return c.Amount / c.WeeklyDivisor
	}
	return c.Amount
}

// AggregateSummary is the rank-only variant
type AggregateSummary struct {
	TotalReturn float64 `json:"total_return"`
	TotalAmount float64 `json:"total_amount"`
}

// PositionSummary is the position-tracked variant
type PositionSummary struct {
	Ledger
	NetAssetValue float64    `json:"net_asset_value"`
	Holdings      []Position `json:"holdings"`
}

// Result holds backtest results
type Result struct {
	RunID       string
	Config      Config
	Start       time.Time
	End         time.Time
	Periods     []contracts.Period // generated periods
	Processed   int                // periods with a non-empty cross-section
	Duration    time.Duration
	TotalAmount float64 // positions LegacyTotal when tracked, else the aggregate amount

	PeriodReturns []PeriodReturn
	ReturnGrid    *ReturnGrid
	TopK          []TopKEntry
	Buys          []contracts.Trade
	Sells         []contracts.Trade
	Skips         []contracts.SkipEvent

	Aggregate *AggregateSummary
	Positions *PositionSummary
}

// Engine runs the periodic rebalancing loop
// ⭐ SSOT: 백테스팅 실행은 여기서만
type Engine struct {
	calculator *s2_signals.MomentumCalculator
	ranker     *selection.Ranker
	metrics    *metrics.Registry
	logger     *logger.Logger
}

// NewEngine creates a new backtest engine. reg may be nil.
func NewEngine(
	calculator *s2_signals.MomentumCalculator,
	ranker *selection.Ranker,
	reg *metrics.Registry,
	logger *logger.Logger,
) *Engine {
	return &Engine{
		calculator: calculator,
		ranker:     ranker,
		metrics:    reg,
		logger:     logger,
	}
}

// Run executes one backtest over universe. Periods run strictly in order
// because the portfolio carries forward; per-ticker skips never abort the run.
func (e *Engine) Run(ctx context.Context, cfg Config, universe *contracts.Universe) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}

	start, end := Window(cfg.Today, cfg.SpanYears)
	periods, err := GeneratePeriods(cfg.Cadence, start, end)
	if err != nil {
		return nil, err
	}

	result := &Result{
		RunID:      uuid.New().String(),
		Config:     cfg,
		Start:      start,
		End:        end,
		Periods:    periods,
		ReturnGrid: NewReturnGrid(),
	}

	log := e.logger.WithFields(map[string]interface{}{
		"run_id":  result.RunID,
		"cadence": string(cfg.Cadence),
		"mode":    string(cfg.Mode),
	})
	log.WithFields(map[string]interface{}{
		"start":   start.Format("2006-01-02"),
		"end":     end.Format("2006-01-02"),
		"periods": len(periods),
		"tickers": len(universe.Tickers),
		"top_k":   cfg.TopK,
	}).Info("Starting backtest")

	startTime := time.Now()

	var anchored *s2_signals.CrossSection
	if cfg.Anchor == AnchorFinal {
		anchored, err = e.calculator.CalculateAll(ctx, universe, end, cfg.Cadence)
		if err != nil {
			return nil, err
		}
		result.Skips = append(result.Skips, metricSkips("overall", anchored)...)
	}

	var sim *Simulator
	if cfg.Mode.positions() {
		sim = NewSimulator(e.logger)
	}
	budget := cfg.Budget()

	for _, period := range periods {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("backtest cancelled at %s: %w", period.Label, err)
		}

		cs := anchored
		if cs == nil {
			cs, err = e.calculator.CalculateAll(ctx, universe, period.End, cfg.Cadence)
			if err != nil {
				return nil, err
			}
			result.Skips = append(result.Skips, metricSkips(period.Label, cs)...)
		}

		if len(cs.Metrics) == 0 {
			result.Skips = append(result.Skips, contracts.SkipEvent{
				Period: period.Label,
				Phase:  contracts.PhasePeriod,
				Reason: contracts.ReasonOf(contracts.ErrEmptyCrossSection),
			})
			e.metrics.IncPeriod(string(cfg.Cadence), "empty")
			log.WithField("period", period.Label).Warn("Empty cross-section, period skipped")
			continue
		}

		// 개별 종목 기간 수익률 (선택과 무관하게 기록)
		returns := make(map[string]float64, len(cs.Metrics))
		for _, m := range cs.Metrics {
			startPrice, startOK := universe.AsOf(m.Ticker, period.Start)
			endPrice, endOK := universe.AsOf(m.Ticker, period.End)
			ret := PeriodReturnOf(startPrice, endPrice, startOK, endOK)
			returns[m.Ticker] = ret
			result.ReturnGrid.Set(m.Ticker, period.Label, ret)
		}

		top := e.ranker.SelectTopK(cs.Metrics, cfg.TopK)
		entry := TopKEntry{Period: period.Label, Members: make([]TopKMember, len(top))}
		topReturns := make([]float64, len(top))
		for i, r := range top {
			entry.Members[i] = TopKMember{Rank: r.Rank, Ticker: r.Ticker, Return: returns[r.Ticker]}
			topReturns[i] = returns[r.Ticker]
		}
		result.TopK = append(result.TopK, entry)
		result.PeriodReturns = append(result.PeriodReturns, PeriodReturn{
			Period: period.Label,
			Return: meanDefined(topReturns),
		})

		if sim != nil {
			skips := sim.Rebalance(period, selection.Tickers(top), universe, budget)
			result.Skips = append(result.Skips, skips...)
		}

		result.Processed++
		e.metrics.IncPeriod(string(cfg.Cadence), "processed")
	}

	if cfg.Mode.aggregate() {
		totalReturn := TotalReturn(result.PeriodReturns)
		result.Aggregate = &AggregateSummary{
			TotalReturn: totalReturn,
			TotalAmount: AggregateAmount(budget, len(periods), totalReturn),
		}
		result.TotalAmount = result.Aggregate.TotalAmount
	}
	if sim != nil {
		ledger := sim.Ledger()
		result.Positions = &PositionSummary{
			Ledger:        ledger,
			NetAssetValue: ledger.NetAssetValue(),
			Holdings:      sim.Holdings(),
		}
		result.Buys = sim.Buys()
		result.Sells = sim.Sells()
		result.TotalAmount = ledger.LegacyTotal
	}

	for _, s := range result.Skips {
		e.metrics.IncSkip(string(s.Phase), s.Reason)
	}
	result.Duration = time.Since(startTime)
	e.metrics.ObserveBacktest(string(cfg.Cadence), string(cfg.Mode), result.Duration)

	log.WithFields(map[string]interface{}{
		"duration":     result.Duration.String(),
		"processed":    result.Processed,
		"buys":         len(result.Buys),
		"sells":        len(result.Sells),
		"skips":        len(result.Skips),
		"total_amount": fmt.Sprintf("%.2f", result.TotalAmount),
	}).Info("Backtest completed")

	return result, nil
}

func metricSkips(label string, cs *s2_signals.CrossSection) []contracts.SkipEvent {
	out := make([]contracts.SkipEvent, 0, len(cs.Skipped))
	for _, s := range cs.Skipped {
		out = append(out, contracts.SkipEvent{
			Period: label,
			Ticker: s.Ticker,
			Phase:  contracts.PhaseMetrics,
			Reason: contracts.ReasonOf(s.Err),
		})
	}
	return out
}
