package commands

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Rahul711sharma/momentum-analysis/internal/brain"
	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/internal/strategyconfig"
)

// backtestCmd represents the backtest command
var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "모멘텀 백테스트",
	Long: `전략 YAML에 정의된 유니버스로 top-K 모멘텀 백테스트를 실행합니다.

백테스트는 다음을 출력합니다:
- 기간별 top-K 평균 수익률
- 누적 수익률 (aggregate)
- 포지션 원장 (legacy total, NAV)
- 현재 시점 overall metrics

Example:
  go run ./cmd/quant backtest run
  go run ./cmd/quant backtest run --cadence weekly --top-k 5
  go run ./cmd/quant backtest metrics --today 2024-06-14`,
}

var (
	backtestRunCmd = &cobra.Command{
		Use:   "run",
		Short: "백테스트 실행",
		Long: `전략 파일 설정으로 백테스트를 실행합니다. 플래그는 파일 값을 덮어씁니다.

Flags:
  --cadence     monthly | weekly
  --mode        aggregate | positions | both
  --top-k       기간별 선택 종목 수
  --amount      기간별 투자 금액
  --today       기준일 (YYYY-MM-DD, 기본: 오늘 UTC)
  --export-dir  CSV 리포트 디렉토리

Example:
  go run ./cmd/quant backtest run --today 2024-06-14
  go run ./cmd/quant backtest run --cadence weekly --export-dir reports`,
		RunE: runBacktest,
	}

	backtestMetricsCmd = &cobra.Command{
		Use:   "metrics",
		Short: "현재 시점 overall metrics 조회",
		RunE:  runOverallMetrics,
	}

	// Flags
	backtestCadence   string
	backtestMode      string
	backtestTopK      int
	backtestAmount    float64
	backtestToday     string
	backtestExportDir string
)

func init() {
	rootCmd.AddCommand(backtestCmd)
	backtestCmd.AddCommand(backtestRunCmd)
	backtestCmd.AddCommand(backtestMetricsCmd)

	for _, c := range []*cobra.Command{backtestRunCmd, backtestMetricsCmd} {
		c.Flags().StringVar(&backtestCadence, "cadence", "", "monthly | weekly")
		c.Flags().StringVar(&backtestToday, "today", "", "기준일 (YYYY-MM-DD)")
	}
	backtestRunCmd.Flags().StringVar(&backtestMode, "mode", "", "aggregate | positions | both")
	backtestRunCmd.Flags().IntVar(&backtestTopK, "top-k", 0, "기간별 선택 종목 수")
	backtestRunCmd.Flags().Float64Var(&backtestAmount, "amount", 0, "기간별 투자 금액")
	backtestRunCmd.Flags().StringVar(&backtestExportDir, "export-dir", "", "CSV 리포트 디렉토리")
}

// applyBacktestFlags overlays the command line onto the strategy file
func applyBacktestFlags(base *strategyconfig.Config) *strategyconfig.Config {
	cfg := base.Clone()
	if backtestCadence != "" {
		cfg.Backtest.Cadence = backtestCadence
	}
	if backtestMode != "" {
		cfg.Backtest.Mode = backtestMode
	}
	if backtestTopK > 0 {
		cfg.Backtest.TopK = backtestTopK
	}
	if backtestAmount > 0 {
		cfg.Investment.Amount = backtestAmount
	}
	if backtestToday != "" {
		cfg.Backtest.Today = backtestToday
	}
	return cfg
}

// signalContext cancels on Ctrl+C
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	strategy := applyBacktestFlags(a.strategy)
	result, err := a.brain.Run(ctx, brain.RunConfig{
		Strategy:  strategy,
		RawYAML:   a.rawYAML,
		Now:       utcNow(),
		ExportDir: backtestExportDir,
	})
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	printRunResult(strategy, result)
	return nil
}

func runOverallMetrics(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	strategy := applyBacktestFlags(a.strategy)
	overall, universe, err := a.brain.OverallMetrics(ctx, strategy, utcNow())
	if err != nil {
		return fmt.Errorf("overall metrics: %w", err)
	}

	printBanner()
	fmt.Printf("  Overall Metrics (%s)\n", strategy.Backtest.Cadence)
	printRule()
	printMetricTable(overall)
	printUnavailable(universe.UnavailableTickers())
	return nil
}

func printRunResult(cfg *strategyconfig.Config, r *brain.RunResult) {
	bt := r.Backtest

	printBanner()
	fmt.Printf("  Momentum Backtest: %s\n", cfg.Meta.StrategyID)
	printRule()
	printField("Run ID", r.RunID, 12)
	printField("Config hash", r.Snapshot.ConfigHash[:12], 12)
	printField("Today", r.Today.Format("2006-01-02"), 12)
	printField("Cadence", cfg.Backtest.Cadence, 12)
	printField("Top K", fmt.Sprintf("%d", cfg.Backtest.TopK), 12)
	printField("Periods", fmt.Sprintf("%d (%d processed)", len(bt.Periods), bt.Processed), 12)
	printField("Duration", r.Duration.String(), 12)

	for _, w := range r.Warnings {
		printWarn(fmt.Sprintf("%s: %s", w.Code, w.Message))
	}

	fmt.Println()
	printHeaderRow([]string{"Period", "Return %", "Top K"}, []int{12, 10, 60})
	for i, pr := range bt.PeriodReturns {
		var members []string
		if i < len(bt.TopK) {
			for _, m := range bt.TopK[i].Members {
				members = append(members, m.Ticker)
			}
		}
		printRow([]string{pr.Period, formatPct(pr.Return), strings.Join(members, ",")}, []int{12, 10, 60})
	}

	fmt.Println()
	if bt.Aggregate != nil {
		printField("Total return", formatPct(bt.Aggregate.TotalReturn)+"%", 16)
		printField("Aggregate", formatAmount(bt.Aggregate.TotalAmount), 16)
	}
	if bt.Positions != nil {
		printField("Legacy total", formatAmount(bt.Positions.LegacyTotal), 16)
		printField("Contributed", formatAmount(bt.Positions.Contributed), 16)
		printField("NAV", formatAmount(bt.Positions.NetAssetValue), 16)
		printField("Open positions", fmt.Sprintf("%d", len(bt.Positions.Holdings)), 16)
	}
	if p := r.Performance; p != nil {
		printField("Annual return", formatRatio(p.AnnualReturn), 16)
		printField("Volatility", formatRatio(p.Volatility), 16)
		printField("Sharpe", formatFloat(p.Sharpe), 16)
		printField("Max drawdown", formatRatio(p.MaxDrawdown), 16)
		if p.RoundTrips > 0 {
			printField("Win rate", fmt.Sprintf("%s (%d trips)", formatRatio(p.WinRate), p.RoundTrips), 16)
		}
	}
	if len(bt.Skips) > 0 {
		printField("Skipped", fmt.Sprintf("%d events", len(bt.Skips)), 16)
	}

	printUnavailable(r.Unavailable)
	if len(r.Exported) > 0 {
		fmt.Println()
		printOK("Reports written:")
		printBullets(r.Exported)
	}
}

func printMetricTable(ms []*contracts.PeriodMetric) {
	widths := []int{16, 10, 10, 10}
	header := []string{"Ticker", "Avg %", "Risk", "Score"}
	if len(ms) > 0 {
		for _, w := range ms[0].Windows {
			header = append(header, w.Label+" %")
			widths = append(widths, 10)
		}
	}
	printHeaderRow(header, widths)

	for _, m := range ms {
		row := []string{m.Ticker, formatPct(m.AverageReturn), formatFloat(m.Risk), formatFloat(m.Score)}
		for _, w := range m.Windows {
			row = append(row, formatPct(w.Return))
		}
		printRow(row, widths)
	}
}

func printUnavailable(tickers []string) {
	if len(tickers) == 0 {
		return
	}
	printWarn(fmt.Sprintf("%d tickers unavailable", len(tickers)))
	printBullets(tickers)
}

func formatPct(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}

// formatRatio prints a fraction as a percentage
func formatRatio(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v)
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
