package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Rahul711sharma/momentum-analysis/internal/s0_data/collector"
	"github.com/Rahul711sharma/momentum-analysis/internal/scheduler"
	"github.com/Rahul711sharma/momentum-analysis/internal/scheduler/jobs"
)

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long:  "cron 스케줄 작업(start/list/run)을 관리합니다.",
	Example: `  quant scheduler start --report-dir reports
  quant scheduler run price_refresh`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `등록된 작업을 cron 스케줄로 실행합니다 (Ctrl+C 종료).

  price_refresh    평일 16:30  유니버스 종가 수집
  backtest_report  평일 17:00  백테스트 CSV 리포트
  cache_cleanup    매일 03:00  오래된 CSV 캐시 삭제`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}

	schedulerReportDir string
	schedulerKeepDays  int
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)

	schedulerCmd.PersistentFlags().StringVar(&schedulerReportDir, "report-dir", "reports", "백테스트 리포트 디렉토리")
	schedulerCmd.PersistentFlags().IntVar(&schedulerKeepDays, "keep-days", 7, "CSV 캐시 보관 일수")
}

// initScheduler registers every job against the wired dependencies
func initScheduler(a *app) (*scheduler.Scheduler, error) {
	sched := scheduler.New(a.log)

	all := []scheduler.Job{
		jobs.NewPriceRefreshJob(a.collector, a.strategy.Universe.Tickers,
			collector.Config{Workers: 4, Range: "2y"}, "", a.log),
		jobs.NewBacktestReportJob(a.brain, a.strategy, a.rawYAML,
			filepath.Clean(schedulerReportDir), a.log),
		jobs.NewCacheCleanupJob(a.csvCache, schedulerKeepDays, a.log),
	}
	for _, job := range all {
		if err := sched.Register(job); err != nil {
			return nil, err
		}
	}
	return sched, nil
}

// withScheduler wires the app, builds the scheduler and hands both to fn
func withScheduler(fn func(ctx context.Context, sched *scheduler.Scheduler) error) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	return fn(ctx, sched)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	return withScheduler(func(ctx context.Context, sched *scheduler.Scheduler) error {
		printBanner()
		fmt.Println("Momentum scheduler")
		printRule()

		sched.Start()
		for _, name := range sched.Jobs() {
			next := "-"
			if t, ok := sched.NextRun(name); ok {
				next = t.Format("2006-01-02 15:04:05")
			}
			printField(name, "next "+next, 16)
		}
		printOK("Scheduler running, Ctrl+C to stop")

		<-ctx.Done()
		fmt.Println()
		sched.Stop()
		printOK("Scheduler stopped")
		return nil
	})
}

func listJobs(cmd *cobra.Command, args []string) error {
	return withScheduler(func(_ context.Context, sched *scheduler.Scheduler) error {
		fmt.Println("Registered jobs:")
		printBullets(sched.Jobs())
		return nil
	})
}

func runJob(cmd *cobra.Command, args []string) error {
	name := args[0]
	return withScheduler(func(_ context.Context, sched *scheduler.Scheduler) error {
		printStep("Scheduler", "running "+name, 1, 1)
		exec, err := sched.WithRetry(0, 0).Trigger(name)
		if err != nil {
			return err
		}
		if !exec.Succeeded() {
			printFail(fmt.Sprintf("%s failed: %s", name, exec.Err))
			return fmt.Errorf("job %s failed", name)
		}
		printOK(fmt.Sprintf("%s completed in %.2fs", name, exec.Elapsed().Seconds()))
		return nil
	})
}
