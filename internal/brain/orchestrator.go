package brain

import (
	"context"
	"fmt"
	"time"

	"github.com/Rahul711sharma/momentum-analysis/internal/audit"
	"github.com/Rahul711sharma/momentum-analysis/internal/backtest"
	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/internal/s2_signals"
	"github.com/Rahul711sharma/momentum-analysis/internal/selection"
	"github.com/Rahul711sharma/momentum-analysis/internal/strategyconfig"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
	"github.com/Rahul711sharma/momentum-analysis/pkg/metrics"
)

// UniverseLoader supplies the price series of a run
type UniverseLoader interface {
	LoadUniverse(ctx context.Context, tickers []string, from, to time.Time) (*contracts.Universe, error)
}

// Orchestrator coordinates load -> overall metrics -> backtest -> report
// ⭐ SSOT: 실행 조율은 여기서만
type Orchestrator struct {
	loader  UniverseLoader
	metrics *metrics.Registry
	logger  *logger.Logger
}

// RunConfig holds configuration for one run
type RunConfig struct {
	Strategy  *strategyconfig.Config
	RawYAML   []byte    // kept in the snapshot when set
	Now       time.Time // used when the strategy has no today anchor
	ExportDir string    // CSV report directory, empty to skip
}

// RunResult holds the results of a complete run
type RunResult struct {
	RunID       string
	Today       time.Time
	Snapshot    *strategyconfig.RunSnapshot
	Warnings    []strategyconfig.Warning
	Unavailable []string
	Overall     []*contracts.PeriodMetric
	Backtest    *backtest.Result
	Performance *audit.PerformanceReport
	Exported    []string
	Duration    time.Duration
}

// NewOrchestrator creates a new orchestrator. reg may be nil.
func NewOrchestrator(loader UniverseLoader, reg *metrics.Registry, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		loader:  loader,
		metrics: reg,
		logger:  log.WithModule("brain"),
	}
}

// BacktestConfig maps the strategy file onto the engine configuration
func BacktestConfig(cfg *strategyconfig.Config, today time.Time) backtest.Config {
	return backtest.Config{
		Cadence:       contracts.Cadence(cfg.Backtest.Cadence),
		Mode:          backtest.Mode(cfg.Backtest.Mode),
		Anchor:        backtest.Anchor(cfg.Backtest.SelectionAnchor),
		TopK:          cfg.Backtest.TopK,
		Amount:        cfg.Investment.Amount,
		WeeklyDivisor: cfg.Investment.WeeklyDivisor,
		SpanYears:     cfg.Backtest.SpanYears,
		Today:         today,
	}
}

// MetricsConfig maps the strategy file onto the calculator configuration
func MetricsConfig(cfg *strategyconfig.Config) s2_signals.Config {
	return s2_signals.Config{
		LookbackMonths:    append([]int(nil), cfg.Metrics.LookbackMonths...),
		TrailingBars:      cfg.Metrics.TrailingBars,
		AnnualizationDays: cfg.Metrics.AnnualizationDays,
	}
}

// DataWindow is the history needed to evaluate every period of the run:
// the backtest window plus the longest lookback and one spare month.
func DataWindow(cfg *strategyconfig.Config, today time.Time) (time.Time, time.Time) {
	start, end := backtest.Window(today, cfg.Backtest.SpanYears)
	longest := 0
	for _, n := range cfg.Metrics.LookbackMonths {
		if n > longest {
			longest = n
		}
	}
	return contracts.AddMonths(start, -(longest + 1)), end
}

// OverallMetrics loads the universe and computes one metric per ticker on the
// most recent data, in configured ticker order.
func (o *Orchestrator) OverallMetrics(ctx context.Context, cfg *strategyconfig.Config, now time.Time) ([]*contracts.PeriodMetric, *contracts.Universe, error) {
	if err := strategyconfig.Validate(cfg); err != nil {
		return nil, nil, err
	}
	today, err := cfg.Backtest.ResolveToday(now)
	if err != nil {
		return nil, nil, err
	}

	universe, err := o.loadUniverse(ctx, cfg, today)
	if err != nil {
		return nil, nil, err
	}

	calc := s2_signals.NewMomentumCalculator(MetricsConfig(cfg), o.logger)
	cs, err := calc.CalculateAll(ctx, universe, today, contracts.Cadence(cfg.Backtest.Cadence))
	if err != nil {
		return nil, nil, err
	}
	return cs.Metrics, universe, nil
}

// Run executes one complete backtest
func (o *Orchestrator) Run(ctx context.Context, rc RunConfig) (*RunResult, error) {
	startTime := time.Now()
	cfg := rc.Strategy

	if err := strategyconfig.Validate(cfg); err != nil {
		return nil, fmt.Errorf("strategy config: %w", err)
	}
	now := rc.Now
	if now.IsZero() {
		now = time.Now()
	}
	today, err := cfg.Backtest.ResolveToday(now)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		Today:    today,
		Warnings: strategyconfig.Warn(cfg),
	}
	for _, w := range result.Warnings {
		o.logger.WithField("code", w.Code).Warn(w.Message)
	}

	// 1. 가격 로딩
	universe, err := o.loadUniverse(ctx, cfg, today)
	if err != nil {
		return nil, err
	}
	result.Unavailable = universe.UnavailableTickers()

	// 2. 전체 지표 (최신 데이터 기준)
	calc := s2_signals.NewMomentumCalculator(MetricsConfig(cfg), o.logger)
	overall, err := calc.CalculateAll(ctx, universe, today, contracts.Cadence(cfg.Backtest.Cadence))
	if err != nil {
		return nil, err
	}
	result.Overall = overall.Metrics

	// 3. 백테스트
	engine := backtest.NewEngine(calc, selection.NewRanker(o.logger), o.metrics, o.logger)
	bt, err := engine.Run(ctx, BacktestConfig(cfg, today), universe)
	if err != nil {
		return nil, fmt.Errorf("backtest: %w", err)
	}
	result.Backtest = bt
	result.RunID = bt.RunID
	result.Performance = audit.NewAnalyzer(0, o.logger).Analyze(bt)

	cadence := cfg.Backtest.Cadence
	if bt.Aggregate != nil {
		o.metrics.SetTotal(cadence, "aggregate", bt.Aggregate.TotalAmount)
	}
	if bt.Positions != nil {
		o.metrics.SetTotal(cadence, "positions_legacy", bt.Positions.LegacyTotal)
		o.metrics.SetTotal(cadence, "positions_nav", bt.Positions.NetAssetValue)
	}

	result.Snapshot, err = strategyconfig.NewRunSnapshot(cfg, rc.RawYAML, bt.RunID)
	if err != nil {
		return nil, err
	}

	// 4. 리포트
	if rc.ExportDir != "" {
		result.Exported, err = backtest.Export(rc.ExportDir, bt, result.Overall)
		if err != nil {
			return result, fmt.Errorf("export: %w", err)
		}
		path := backtest.ReportPath(rc.ExportDir, bt, "performance")
		if err := audit.Export(path, result.Performance); err != nil {
			return result, fmt.Errorf("export: %w", err)
		}
		result.Exported = append(result.Exported, path)
	}

	result.Duration = time.Since(startTime)
	o.logger.WithFields(map[string]interface{}{
		"run_id":       result.RunID,
		"strategy_id":  cfg.Meta.StrategyID,
		"config_hash":  result.Snapshot.ConfigHash,
		"unavailable":  len(result.Unavailable),
		"total_amount": fmt.Sprintf("%.2f", bt.TotalAmount),
		"duration":     result.Duration.String(),
	}).Info("Run completed")

	return result, nil
}

func (o *Orchestrator) loadUniverse(ctx context.Context, cfg *strategyconfig.Config, today time.Time) (*contracts.Universe, error) {
	from, to := DataWindow(cfg, today)
	universe, err := o.loader.LoadUniverse(ctx, cfg.Universe.Tickers, from, to)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	return universe, nil
}
