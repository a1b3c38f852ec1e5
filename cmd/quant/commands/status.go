package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rahul711sharma/momentum-analysis/internal/strategyconfig"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "전략 및 데이터 소스 상태 조회",
	Long: `전략 파일 검증 결과와 가격 소스 상태를 표시합니다.

표시 정보:
- 전략 ID, 설정 해시, 경고
- CSV 캐시: 오늘 날짜 파일 수
- Redis: 활성 여부
- PostgreSQL: 연결 상태, 티커별 최신 거래일

Example:
  go run ./cmd/quant status
  go run ./cmd/quant status --strategy config/strategy.yaml`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	hash, err := strategyconfig.Hash(a.strategy)
	if err != nil {
		return err
	}

	printBanner()
	fmt.Println("  Strategy")
	printRule()
	printField("ID", a.strategy.Meta.StrategyID, 10)
	printField("Version", a.strategy.Meta.Version, 10)
	printField("Hash", hash, 10)
	printField("Tickers", fmt.Sprintf("%d", len(a.strategy.Universe.Tickers)), 10)
	for _, w := range strategyconfig.Warn(a.strategy) {
		printWarn(fmt.Sprintf("%s: %s", w.Code, w.Message))
	}

	fmt.Println()
	printBanner()
	fmt.Println("  Price Sources")
	printRule()

	cached := 0
	for _, t := range a.strategy.Universe.Tickers {
		if _, err := os.Stat(a.csvCache.Path(t)); err == nil {
			cached++
		}
	}
	printField("CSV cache", fmt.Sprintf("%s (%d/%d for %s)", a.cfg.PriceCacheDir, cached,
		len(a.strategy.Universe.Tickers), a.csvCache.Day().Format("2006-01-02")), 10)
	printField("Redis", fmt.Sprintf("enabled=%t", a.cache.Enabled()), 10)

	if a.db == nil {
		printField("Postgres", "not configured", 10)
		return nil
	}
	health, err := a.db.Health(ctx)
	if err != nil {
		printField("Postgres", "unhealthy: "+err.Error(), 10)
		return nil
	}
	printField("Postgres", fmt.Sprintf("healthy (%s, %d/%d conns)",
		health.Latency.Round(time.Millisecond), health.Acquired, health.Max), 10)

	widths := []int{16, 12}
	fmt.Println()
	printHeaderRow([]string{"Ticker", "Latest"}, widths)
	for _, t := range a.strategy.Universe.Tickers {
		latest, ok, err := a.prices.LatestDate(ctx, t)
		switch {
		case err != nil:
			printRow([]string{t, "error"}, widths)
		case !ok:
			printRow([]string{t, "-"}, widths)
		default:
			printRow([]string{t, latest.Format("2006-01-02")}, widths)
		}
	}
	return nil
}
