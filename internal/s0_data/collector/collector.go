package collector

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/internal/s0_data"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
	"github.com/Rahul711sharma/momentum-analysis/pkg/metrics"
)

// RangeFetcher downloads a ticker's closes for a range token such as "2y"
type RangeFetcher interface {
	Name() string
	FetchRange(ctx context.Context, ticker, rng string) (*contracts.PriceSeries, error)
}

// Collector refreshes the price caches from the remote source
// ⭐ SSOT: 가격 수집 오케스트레이션은 이 패키지에서만
type Collector struct {
	fetcher RangeFetcher
	sinks   []s0_data.SeriesSink
	metrics *metrics.Registry
	logger  *logger.Logger
}

// Config tunes one collection run. Zero values mean 4 workers and range "2y".
type Config struct {
	Workers int
	Range   string
}

func (cfg Config) withDefaults() Config {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Range == "" {
		cfg.Range = "2y"
	}
	return cfg
}

// NewCollector writes every fetched series to each of sinks
func NewCollector(fetcher RangeFetcher, sinks []s0_data.SeriesSink, reg *metrics.Registry, log *logger.Logger) *Collector {
	return &Collector{fetcher: fetcher, sinks: sinks, metrics: reg, logger: log.WithModule("collector")}
}

// FetchResult is the outcome for one ticker. Error joins fetch and save failures.
type FetchResult struct {
	Ticker     string
	PriceCount int
	Error      error
}

// FetchAllPrices fetches and stores closes for every ticker.
// Results come back in ticker order. A per-ticker failure never aborts the batch;
// the returned error is only the context's.
func (c *Collector) FetchAllPrices(ctx context.Context, tickers []string, cfg Config) ([]FetchResult, error) {
	cfg = cfg.withDefaults()
	log := c.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"range":   cfg.Range,
		"workers": cfg.Workers,
	})
	log.Info("Price collection started")

	results := make([]FetchResult, len(tickers))
	var g errgroup.Group
	g.SetLimit(cfg.Workers)
	for i, ticker := range tickers {
		i, ticker := i, ticker
		g.Go(func() error {
			results[i] = c.refresh(ctx, ticker, cfg.Range)
			return nil
		})
	}
	_ = g.Wait()

	failed := len(FailedTickers(results))
	log.WithFields(map[string]interface{}{
		"succeeded": len(results) - failed,
		"failed":    failed,
	}).Info("Price collection finished")

	return results, ctx.Err()
}

// refresh downloads one ticker and writes it through to every sink
func (c *Collector) refresh(ctx context.Context, ticker, rng string) FetchResult {
	res := FetchResult{Ticker: ticker}
	if res.Error = ctx.Err(); res.Error != nil {
		return res
	}

	source := c.fetcher.Name()
	series, err := c.fetcher.FetchRange(ctx, ticker, rng)
	if err != nil {
		c.metrics.IncSeriesLoad(source, "miss")
		c.logger.WithField("ticker", ticker).WithError(err).Warn("Price fetch failed")
		res.Error = err
		return res
	}
	c.metrics.IncSeriesLoad(source, "hit")
	res.PriceCount = series.Len()

	errs := make([]error, 0, len(c.sinks))
	for _, sink := range c.sinks {
		if err := sink.Save(ctx, series, source); err != nil {
			errs = append(errs, fmt.Errorf("save %s: %w", sink.Name(), err))
		}
	}
	res.Error = errors.Join(errs...)
	return res
}

// FailedTickers lists tickers whose fetch or save failed
func FailedTickers(results []FetchResult) []string {
	var out []string
	for _, r := range results {
		if r.Error != nil {
			out = append(out, r.Ticker)
		}
	}
	return out
}
