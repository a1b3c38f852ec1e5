package commands

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Rahul711sharma/momentum-analysis/internal/api"
	"github.com/Rahul711sharma/momentum-analysis/internal/api/handlers"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

  GET  /health               상태 확인
  GET  /metrics              Prometheus (METRICS_ENABLED)
  GET  /api/metrics/overall  현재 시점 모멘텀 지표
  POST /api/backtest         백테스트 실행 (전략 override 가능)
  POST /api/data/collect     가격 수집 트리거`,
	Example: "  quant api --port 8080",
	RunE:    runAPIServer,
}

var apiPort string

// shutdownGrace bounds draining of in-flight requests
const shutdownGrace = 30 * time.Second

func init() {
	rootCmd.AddCommand(apiCmd)
	apiCmd.Flags().StringVar(&apiPort, "port", "", "listen port (default: PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	var metricsHandler http.Handler
	if a.cfg.MetricsEnabled {
		metricsHandler = a.metrics.Handler()
	}
	router := api.NewRouter(
		handlers.NewBacktestHandler(a.brain, a.strategy, a.cache, a.log),
		handlers.NewDataHandler(a.collector, a.strategy.Universe.Tickers, a.log),
		metricsHandler,
		a.log,
	)
	server := api.New(a.cfg, a.log, router)

	// 서버 실행과 종료 대기를 하나의 그룹으로 묶음
	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	printOK(fmt.Sprintf("Serving strategy %s on :%s (Ctrl+C to stop)", a.strategy.Meta.StrategyID, a.cfg.Port))
	if err := g.Wait(); err != nil {
		return fmt.Errorf("api server: %w", err)
	}
	printOK("Server stopped")
	return nil
}
