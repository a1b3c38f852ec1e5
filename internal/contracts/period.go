package contracts

import (
	"fmt"
	"time"
)

// Cadence is the rebalancing frequency
type Cadence string

const (
	CadenceMonthly Cadence = "monthly"
	CadenceWeekly  Cadence = "weekly"
)

// Valid reports whether the cadence is supported
func (c Cadence) Valid() bool {
	return c == CadenceMonthly || c == CadenceWeekly
}

// Period is one evaluation interval. End is inclusive for as-of lookups and
// clamped to the backtest end date.
type Period struct {
	Index int       `json:"index"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Label string    `json:"label"`
}

func (p Period) String() string {
	return fmt.Sprintf("%s [%s ~ %s]", p.Label, p.Start.Format("2006-01-02"), p.End.Format("2006-01-02"))
}

// AddMonths shifts t by n calendar months, clamping the day to the last day
// of the target month (Mar 31 - 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
