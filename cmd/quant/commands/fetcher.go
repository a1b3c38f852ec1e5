package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rahul711sharma/momentum-analysis/internal/s0_data/collector"
)

// fetcherCmd represents the fetcher command
var fetcherCmd = &cobra.Command{
	Use:   "fetcher",
	Short: "가격 데이터 수집 도구",
	Long: `Yahoo chart API에서 일별 종가를 수집하여 캐시에 저장합니다.

저장 위치:
- CSV 캐시 (PRICE_CACHE_DIR/<TICKER>_<YYYY-MM-DD>.csv)
- Redis (REDIS_ENABLED=true)
- PostgreSQL (DATABASE_URL 설정 시)

Example:
  go run ./cmd/quant fetcher prices
  go run ./cmd/quant fetcher prices --tickers RELIANCE.NS,TCS.NS --range 5y`,
}

// fetcherPricesCmd represents the prices subcommand
var fetcherPricesCmd = &cobra.Command{
	Use:   "prices",
	Short: "종가 수집 실행",
	RunE:  runFetcherPrices,
}

var (
	// Fetcher flags
	fetcherTickers string
	fetcherRange   string
	fetcherWorkers int
)

func init() {
	rootCmd.AddCommand(fetcherCmd)
	fetcherCmd.AddCommand(fetcherPricesCmd)

	// Flags
	fetcherPricesCmd.Flags().StringVar(&fetcherTickers, "tickers", "", "쉼표로 구분된 티커 (기본: 전략 유니버스)")
	fetcherPricesCmd.Flags().StringVar(&fetcherRange, "range", "2y", "Yahoo range (1y, 2y, 5y, max)")
	fetcherPricesCmd.Flags().IntVar(&fetcherWorkers, "workers", 4, "동시 수집 워커 수")
}

// splitTickers parses a comma separated ticker list, dropping blanks
func splitTickers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func runFetcherPrices(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	tickers := splitTickers(fetcherTickers)
	if len(tickers) == 0 {
		tickers = a.strategy.Universe.Tickers
	}

	startTime := time.Now()
	printBanner()
	fmt.Println("  Price Collection")
	printRule()
	printField("Tickers", fmt.Sprintf("%d", len(tickers)), 8)
	printField("Range", fetcherRange, 8)
	printField("Cache", a.cfg.PriceCacheDir, 8)
	printRule()

	results, err := a.collector.FetchAllPrices(ctx, tickers, collector.Config{
		Workers: fetcherWorkers,
		Range:   fetcherRange,
	})
	if err != nil {
		return fmt.Errorf("collect prices: %w", err)
	}

	for i, r := range results {
		msg := fmt.Sprintf("%s: %d closes", r.Ticker, r.PriceCount)
		if r.Error != nil {
			msg = fmt.Sprintf("%s: %v", r.Ticker, r.Error)
		}
		printStep("Prices", msg, i+1, len(results))
	}

	failed := collector.FailedTickers(results)
	fmt.Println()
	if len(failed) > 0 {
		printWarn(fmt.Sprintf("%d of %d tickers failed", len(failed), len(results)))
		printBullets(failed)
	}
	printOK(fmt.Sprintf("Collected %d tickers in %.2fs", len(results)-len(failed), time.Since(startTime).Seconds()))
	return nil
}
