package s0_data

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
	"github.com/Rahul711sharma/momentum-analysis/pkg/metrics"
)

// SeriesSink persists a loaded series (cache write-back)
type SeriesSink interface {
	Name() string
	Save(ctx context.Context, series *contracts.PriceSeries, source string) error
}

// Loader resolves each ticker through an ordered chain of sources.
// The first non-empty series wins and is written back to every sink
// other than the source that produced it.
// ⭐ SSOT: S0 가격 로딩 체인은 여기서만
type Loader struct {
	sources []contracts.SeriesSource
	sinks   []SeriesSink
	workers int
	metrics *metrics.Registry
	logger  *logger.Logger
}

// NewLoader creates a loader over sources (tried in order) and sinks
func NewLoader(sources []contracts.SeriesSource, sinks []SeriesSink, reg *metrics.Registry, log *logger.Logger) *Loader {
	return &Loader{
		sources: sources,
		sinks:   sinks,
		workers: 4,
		metrics: reg,
		logger:  log.WithModule("s0_loader"),
	}
}

// WithWorkers sets the number of concurrent ticker loads
func (l *Loader) WithWorkers(n int) *Loader {
	if n > 0 {
		l.workers = n
	}
	return l
}

// LoadAll loads every ticker and returns one result per ticker in input order
func (l *Loader) LoadAll(ctx context.Context, tickers []string, from, to time.Time) []contracts.SeriesResult {
	results := make([]contracts.SeriesResult, len(tickers))

	type job struct {
		idx    int
		ticker string
	}
	jobCh := make(chan job, len(tickers))
	for i, t := range tickers {
		jobCh <- job{idx: i, ticker: t}
	}
	close(jobCh)

	workers := l.workers
	if workers > len(tickers) {
		workers = len(tickers)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				if err := ctx.Err(); err != nil {
					results[j.idx] = contracts.SeriesResult{Ticker: j.ticker, Err: err}
					continue
				}
				results[j.idx] = l.loadOne(ctx, j.ticker, from, to)
			}
		}()
	}
	wg.Wait()

	return results
}

// LoadUniverse loads tickers and assembles the run universe
func (l *Loader) LoadUniverse(ctx context.Context, tickers []string, from, to time.Time) (*contracts.Universe, error) {
	results := l.LoadAll(ctx, tickers, from, to)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	universe := contracts.NewUniverse(results)
	l.logger.WithFields(map[string]interface{}{
		"requested":   len(tickers),
		"loaded":      len(universe.Tickers),
		"unavailable": len(universe.Unavailable),
	}).Info("Universe loaded")

	if len(universe.Unavailable) > 0 {
		l.logger.WithField("tickers", universe.UnavailableTickers()).Warn("Tickers unavailable")
	}
	return universe, nil
}

// coverageSlack tolerates weekends and holidays at either edge of the window
const coverageSlack = 7 * 24 * time.Hour

// covers reports whether series spans [from, to] within coverageSlack.
// Zero bounds are open.
func covers(series *contracts.PriceSeries, from, to time.Time) bool {
	first, _ := series.First()
	last, _ := series.Last()
	if !from.IsZero() && first.Date.After(contracts.NormalizeDate(from).Add(coverageSlack)) {
		return false
	}
	return to.IsZero() || !last.Date.Before(contracts.NormalizeDate(to).Add(-coverageSlack))
}

// wider reports whether a reaches further back than b, or as far back and further forward
func wider(a, b *contracts.PriceSeries) bool {
	af, _ := a.First()
	bf, _ := b.First()
	if !af.Date.Equal(bf.Date) {
		return af.Date.Before(bf.Date)
	}
	al, _ := a.Last()
	bl, _ := b.Last()
	return al.Date.After(bl.Date)
}

// loadOne returns the first series covering [from, to]. A series that only
// partly covers the window does not stop the chain; when no source covers it,
// the widest partial series is used (e.g. a ticker listed inside the window).
func (l *Loader) loadOne(ctx context.Context, ticker string, from, to time.Time) contracts.SeriesResult {
	var (
		errs          []error
		partial       *contracts.PriceSeries
		partialSource string
	)
	for _, src := range l.sources {
		series, err := src.Load(ctx, ticker, from, to)
		if err == nil && series.Empty() {
			err = contracts.ErrInsufficientData
		}
		if err != nil {
			l.metrics.IncSeriesLoad(src.Name(), "miss")
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if !covers(series, from, to) {
			l.metrics.IncSeriesLoad(src.Name(), "partial")
			if partial == nil || wider(series, partial) {
				partial, partialSource = series, src.Name()
			}
			continue
		}

		l.metrics.IncSeriesLoad(src.Name(), "hit")
		l.writeBack(ctx, series, src.Name())
		return contracts.SeriesResult{Ticker: ticker, Series: series, Source: src.Name()}
	}

	if partial != nil {
		first, _ := partial.First()
		l.logger.WithFields(map[string]interface{}{
			"ticker": ticker,
			"source": partialSource,
			"first":  first.Date.Format("2006-01-02"),
		}).Debug("No source covers the window, using partial series")
		l.writeBack(ctx, partial, partialSource)
		return contracts.SeriesResult{Ticker: ticker, Series: partial, Source: partialSource}
	}

	l.logger.WithField("ticker", ticker).WithError(errors.Join(errs...)).Debug("No source supplied series")
	return contracts.SeriesResult{
		Ticker: ticker,
		Err:    fmt.Errorf("%w: %w", contracts.ErrSeriesUnavailable, errors.Join(errs...)),
	}
}

func (l *Loader) writeBack(ctx context.Context, series *contracts.PriceSeries, source string) {
	for _, sink := range l.sinks {
		if sink.Name() == source {
			continue
		}
		if err := sink.Save(ctx, series, source); err != nil {
			l.logger.WithFields(map[string]interface{}{
				"ticker": series.Ticker,
				"sink":   sink.Name(),
			}).WithError(err).Warn("Cache write-back failed")
		}
	}
}
