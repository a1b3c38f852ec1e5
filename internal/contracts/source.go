package contracts

import (
	"context"
	"time"
)

// SeriesSource supplies close series for tickers (CSV cache, database, remote API)
// ⭐ SSOT: S0 가격 공급자 인터페이스
type SeriesSource interface {
	Name() string
	Load(ctx context.Context, ticker string, from, to time.Time) (*PriceSeries, error)
}

// SeriesResult is the typed outcome of loading one ticker.
// Series is nil exactly when Err is non-nil.
type SeriesResult struct {
	Ticker string
	Series *PriceSeries
	Source string
	Err    error
}

// Available reports whether a usable series was loaded
func (r SeriesResult) Available() bool {
	return r.Err == nil && !r.Series.Empty()
}

// Universe is the set of series available for one run, in configured ticker order
type Universe struct {
	Tickers     []string
	Series      map[string]*PriceSeries
	Unavailable []SeriesResult
}

// NewUniverse assembles a universe from load results, preserving input order
func NewUniverse(results []SeriesResult) *Universe {
	u := &Universe{
		Tickers: make([]string, 0, len(results)),
		Series:  make(map[string]*PriceSeries, len(results)),
	}
	for _, r := range results {
		if !r.Available() {
			if r.Err == nil {
				r.Err = ErrSeriesUnavailable
			}
			u.Unavailable = append(u.Unavailable, r)
			continue
		}
		if _, dup := u.Series[r.Ticker]; dup {
			continue
		}
		u.Tickers = append(u.Tickers, r.Ticker)
		u.Series[r.Ticker] = r.Series
	}
	return u
}

// UnavailableTickers lists tickers that could not be loaded
func (u *Universe) UnavailableTickers() []string {
	out := make([]string, 0, len(u.Unavailable))
	for _, r := range u.Unavailable {
		out = append(out, r.Ticker)
	}
	return out
}

// AsOf returns the most recent close of ticker at or before t
func (u *Universe) AsOf(ticker string, t time.Time) (float64, bool) {
	series, ok := u.Series[ticker]
	if !ok {
		return 0, false
	}
	return series.AsOf(t)
}
