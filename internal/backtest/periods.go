package backtest

import (
	"fmt"
	"time"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
)

// Window returns the backtest range [today - spanYears, today] as calendar dates
func Window(today time.Time, spanYears int) (start, end time.Time) {
	end = contracts.NormalizeDate(today)
	start = contracts.AddMonths(end, -12*spanYears)
	return start, end
}

// GeneratePeriods lists evaluation periods in ascending order inside [start, end].
// Monthly periods begin on month starts, weekly periods on Mondays; every
// period end is clamped to end.
func GeneratePeriods(cadence contracts.Cadence, start, end time.Time) ([]contracts.Period, error) {
	start, end = contracts.NormalizeDate(start), contracts.NormalizeDate(end)
	if end.Before(start) {
		return nil, fmt.Errorf("backtest end %s before start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	switch cadence {
	case contracts.CadenceMonthly:
		return monthlyPeriods(start, end), nil
	case contracts.CadenceWeekly:
		return weeklyPeriods(start, end), nil
	default:
		return nil, fmt.Errorf("unknown cadence %q", cadence)
	}
}

func monthlyPeriods(start, end time.Time) []contracts.Period {
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	if first.Before(start) {
		first = first.AddDate(0, 1, 0)
	}

	var periods []contracts.Period
	for ms := first; !ms.After(end); ms = ms.AddDate(0, 1, 0) {
		periods = append(periods, contracts.Period{
			Index: len(periods),
			Start: ms,
			End:   clamp(ms.AddDate(0, 1, -1), end),
			Label: ms.Format("2006-01"),
		})
	}
	return periods
}

func weeklyPeriods(start, end time.Time) []contracts.Period {
	offset := (int(time.Monday) - int(start.Weekday()) + 7) % 7
	first := start.AddDate(0, 0, offset)

	var periods []contracts.Period
	for monday := first; !monday.After(end); monday = monday.AddDate(0, 0, 7) {
		periods = append(periods, contracts.Period{
			Index: len(periods),
			Start: monday,
			End:   clamp(monday.AddDate(0, 0, 6), end),
			Label: WeekLabel(monday),
		})
	}
	return periods
}

// WeekLabel formats "YYYY-WW" where week 01 starts on the year's first Monday
// and days before it fall in week 00.
func WeekLabel(t time.Time) string {
	mondayIndex := (int(t.Weekday()) + 6) % 7
	week := (t.YearDay() - 1 + 7 - mondayIndex) / 7
	return fmt.Sprintf("%d-%02d", t.Year(), week)
}

func clamp(t, limit time.Time) time.Time {
	if t.After(limit) {
		return limit
	}
	return t
}
