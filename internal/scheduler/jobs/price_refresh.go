package jobs

import (
	"context"
	"fmt"

	"github.com/Rahul711sharma/momentum-analysis/internal/s0_data/collector"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
)

// PriceCollector is the part of the collector used by the refresh job
type PriceCollector interface {
	FetchAllPrices(ctx context.Context, tickers []string, cfg collector.Config) ([]collector.FetchResult, error)
}

// PriceRefreshJob downloads fresh closes for the universe after the market closes
type PriceRefreshJob struct {
	collector PriceCollector
	tickers   []string
	cfg       collector.Config
	schedule  string
	logger    *logger.Logger
}

// NewPriceRefreshJob creates a new price refresh job.
// An empty schedule defaults to 16:30 on weekdays.
func NewPriceRefreshJob(col PriceCollector, tickers []string, cfg collector.Config, schedule string, log *logger.Logger) *PriceRefreshJob {
	if schedule == "" {
		schedule = "0 30 16 * * MON-FRI"
	}
	return &PriceRefreshJob{
		collector: col,
		tickers:   tickers,
		cfg:       cfg,
		schedule:  schedule,
		logger:    log,
	}
}

// Name returns the job name
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Schedule returns the cron schedule
func (j *PriceRefreshJob) Schedule() string {
	return j.schedule
}

// Run executes the refresh. Partial failures are logged, a total failure is an error.
func (j *PriceRefreshJob) Run(ctx context.Context) error {
	results, err := j.collector.FetchAllPrices(ctx, j.tickers, j.cfg)
	if err != nil {
		return fmt.Errorf("price refresh: %w", err)
	}

	failed := collector.FailedTickers(results)
	if len(j.tickers) > 0 && len(failed) == len(j.tickers) {
		return fmt.Errorf("price refresh: all %d tickers failed", len(failed))
	}
	if len(failed) > 0 {
		j.logger.WithFields(map[string]interface{}{
			"failed": failed,
			"total":  len(j.tickers),
		}).Warn("Price refresh finished with failures")
	}
	return nil
}
