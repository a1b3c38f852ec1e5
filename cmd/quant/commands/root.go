package commands

import (
	"github.com/spf13/cobra"
)

// persistent flags shared by every subcommand
var (
	strategyFile string
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Momentum backtest - risk-adjusted top-K 전략 검증",
	Long: `위험 조정 모멘텀 점수(수익률/변동성)로 종목을 랭킹하고
월간/주간 리밸런싱 백테스트를 실행합니다.`,
	Example: `  quant backtest run --cadence weekly --top-k 5
  quant backtest metrics
  quant fetcher prices --range 2y
  quant api
  quant scheduler start`,
	SilenceUsage: true,
}

// Execute runs the command tree; main exits non-zero on error
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&strategyFile, "strategy", "", "strategy YAML (default: STRATEGY_FILE)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
