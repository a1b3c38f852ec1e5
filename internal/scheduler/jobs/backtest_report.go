package jobs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Rahul711sharma/momentum-analysis/internal/brain"
	"github.com/Rahul711sharma/momentum-analysis/internal/strategyconfig"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
)

// BacktestRunner runs a full strategy backtest
type BacktestRunner interface {
	Run(ctx context.Context, rc brain.RunConfig) (*brain.RunResult, error)
}

// BacktestReportJob reruns the strategy and writes its CSV reports under a dated directory
type BacktestReportJob struct {
	runner    BacktestRunner
	strategy  *strategyconfig.Config
	rawYAML   []byte
	exportDir string
	now       func() time.Time
	logger    *logger.Logger
}

// NewBacktestReportJob creates a new backtest report job
func NewBacktestReportJob(runner BacktestRunner, strategy *strategyconfig.Config, rawYAML []byte, exportDir string, log *logger.Logger) *BacktestReportJob {
	return &BacktestReportJob{
		runner:    runner,
		strategy:  strategy,
		rawYAML:   rawYAML,
		exportDir: exportDir,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    log,
	}
}

// Name returns the job name
func (j *BacktestReportJob) Name() string {
	return "backtest_report"
}

// Schedule returns the cron schedule (weekdays at 17:00, after the price refresh)
func (j *BacktestReportJob) Schedule() string {
	return "0 0 17 * * MON-FRI"
}

// Run executes the backtest and exports the report
func (j *BacktestReportJob) Run(ctx context.Context) error {
	now := j.now()
	dir := filepath.Join(j.exportDir, now.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	result, err := j.runner.Run(ctx, brain.RunConfig{
		Strategy:  j.strategy.Clone(),
		RawYAML:   j.rawYAML,
		Now:       now,
		ExportDir: dir,
	})
	if err != nil {
		return fmt.Errorf("backtest report: %w", err)
	}

	fields := map[string]interface{}{
		"run_id":      result.RunID,
		"dir":         dir,
		"files":       len(result.Exported),
		"unavailable": len(result.Unavailable),
	}
	if result.Backtest != nil && result.Backtest.Aggregate != nil {
		fields["total_return"] = result.Backtest.Aggregate.TotalReturn
	}
	j.logger.WithFields(fields).Info("Backtest report written")
	return nil
}
