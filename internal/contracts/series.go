package contracts

import (
	"fmt"
	"sort"
	"time"
)

// PricePoint is one daily close observation
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// PriceSeries is an immutable, strictly increasing close series for one ticker
// ⭐ SSOT: S0 → S2 가격 시계열 전달
type PriceSeries struct {
	Ticker string
	points []PricePoint
}

// NewPriceSeries builds a series from points. Dates are normalized to
// timezone-naive midnight (UTC) and must be strictly increasing.
func NewPriceSeries(ticker string, points []PricePoint) (*PriceSeries, error) {
	normalized := make([]PricePoint, len(points))
	for i, p := range points {
		normalized[i] = PricePoint{Date: NormalizeDate(p.Date), Close: p.Close}
		if i > 0 && !normalized[i].Date.After(normalized[i-1].Date) {
			return nil, fmt.Errorf("series %s: dates not strictly increasing at %s",
				ticker, normalized[i].Date.Format("2006-01-02"))
		}
	}
	return &PriceSeries{Ticker: ticker, points: normalized}, nil
}

// SortedPriceSeries sorts points by date and keeps the last close for duplicate dates
func SortedPriceSeries(ticker string, points []PricePoint) (*PriceSeries, error) {
	sorted := make([]PricePoint, len(points))
	for i, p := range points {
		sorted[i] = PricePoint{Date: NormalizeDate(p.Date), Close: p.Close}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	deduped := sorted[:0]
	for _, p := range sorted {
		if n := len(deduped); n > 0 && deduped[n-1].Date.Equal(p.Date) {
			deduped[n-1] = p
			continue
		}
		deduped = append(deduped, p)
	}
	return NewPriceSeries(ticker, deduped)
}

// NormalizeDate drops the clock and zone, keeping the calendar date
func NormalizeDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Len returns the number of observations
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// Empty reports whether the series has no observations
func (s *PriceSeries) Empty() bool {
	return s.Len() == 0
}

// Points returns a copy of the observations
func (s *PriceSeries) Points() []PricePoint {
	out := make([]PricePoint, s.Len())
	if s != nil {
		copy(out, s.points)
	}
	return out
}

// First returns the earliest observation
func (s *PriceSeries) First() (PricePoint, bool) {
	if s.Empty() {
		return PricePoint{}, false
	}
	return s.points[0], true
}

// Last returns the latest observation
func (s *PriceSeries) Last() (PricePoint, bool) {
	if s.Empty() {
		return PricePoint{}, false
	}
	return s.points[len(s.points)-1], true
}

// AsOf returns the most recent close at or before t.
// ok is false when no observation exists at or before t.
func (s *PriceSeries) AsOf(t time.Time) (float64, bool) {
	idx := s.upperBound(t)
	if idx == 0 {
		return 0, false
	}
	return s.points[idx-1].Close, true
}

// Until returns the prefix of observations at or before t
func (s *PriceSeries) Until(t time.Time) *PriceSeries {
	if s == nil {
		return nil
	}
	return &PriceSeries{Ticker: s.Ticker, points: s.points[:s.upperBound(t)]}
}

// Between returns observations with from <= date <= to
func (s *PriceSeries) Between(from, to time.Time) *PriceSeries {
	if s == nil {
		return nil
	}
	from = NormalizeDate(from)
	lo := sort.Search(len(s.points), func(i int) bool {
		return !s.points[i].Date.Before(from)
	})
	hi := s.upperBound(to)
	if hi < lo {
		hi = lo
	}
	return &PriceSeries{Ticker: s.Ticker, points: s.points[lo:hi]}
}

// Tail returns the last n observations (or all when fewer exist)
func (s *PriceSeries) Tail(n int) *PriceSeries {
	if s == nil {
		return nil
	}
	if n < 0 {
		n = 0
	}
	start := len(s.points) - n
	if start < 0 {
		start = 0
	}
	return &PriceSeries{Ticker: s.Ticker, points: s.points[start:]}
}

// Closes returns the close values in date order
func (s *PriceSeries) Closes() []float64 {
	closes := make([]float64, s.Len())
	for i := range closes {
		closes[i] = s.points[i].Close
	}
	return closes
}

// WeekEndCloses resamples to weekly bars ending on Sunday, keeping the last
// close of each week. Weeks without observations between the first and last
// bar carry the previous close forward, so they read as 0% weeks.
func (s *PriceSeries) WeekEndCloses() []PricePoint {
	weekly := make([]PricePoint, 0, s.Len()/5+1)
	for i := 0; i < s.Len(); i++ {
		p := s.points[i]
		weekEnd := p.Date.AddDate(0, 0, (7-int(p.Date.Weekday()))%7)
		n := len(weekly)
		if n > 0 && weekly[n-1].Date.Equal(weekEnd) {
			weekly[n-1].Close = p.Close
			continue
		}
		if n > 0 {
			prev := weekly[n-1]
			for gap := prev.Date.AddDate(0, 0, 7); gap.Before(weekEnd); gap = gap.AddDate(0, 0, 7) {
				weekly = append(weekly, PricePoint{Date: gap, Close: prev.Close})
			}
		}
		weekly = append(weekly, PricePoint{Date: weekEnd, Close: p.Close})
	}
	return weekly
}

// upperBound returns the index of the first observation strictly after t
func (s *PriceSeries) upperBound(t time.Time) int {
	if s == nil {
		return 0
	}
	t = NormalizeDate(t)
	return sort.Search(len(s.points), func(i int) bool {
		return s.points[i].Date.After(t)
	})
}
