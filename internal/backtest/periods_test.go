package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestWindow(t *testing.T) {
	start, end := Window(time.Date(2024, 2, 29, 15, 30, 0, 0, time.UTC), 1)
	assert.Equal(t, d(2023, 2, 28), start)
	assert.Equal(t, d(2024, 2, 29), end)
}

func TestGeneratePeriods_Monthly(t *testing.T) {
	start, end := Window(d(2024, 6, 15), 1)
	periods, err := GeneratePeriods(contracts.CadenceMonthly, start, end)
	require.NoError(t, err)

	require.Len(t, periods, 12)
	assert.Equal(t, "2023-07", periods[0].Label)
	assert.Equal(t, d(2023, 7, 1), periods[0].Start)
	assert.Equal(t, d(2023, 7, 31), periods[0].End)
	assert.Equal(t, d(2024, 2, 29), periods[7].End)

	last := periods[11]
	assert.Equal(t, "2024-06", last.Label)
	assert.Equal(t, d(2024, 6, 15), last.End, "last period is clamped to the end date")

	for i, p := range periods {
		assert.Equal(t, i, p.Index)
		assert.False(t, p.End.Before(p.Start))
	}
}

func TestGeneratePeriods_MonthlyStartingOnFirst(t *testing.T) {
	start, end := Window(d(2024, 6, 1), 1)
	periods, err := GeneratePeriods(contracts.CadenceMonthly, start, end)
	require.NoError(t, err)

	require.Len(t, periods, 13)
	assert.Equal(t, "2023-06", periods[0].Label)
	assert.Equal(t, d(2024, 6, 1), periods[12].Start)
	assert.Equal(t, d(2024, 6, 1), periods[12].End)
}

func TestGeneratePeriods_Weekly(t *testing.T) {
	// 2024-01-03 is a Wednesday; first Monday is 2024-01-08
	periods, err := GeneratePeriods(contracts.CadenceWeekly, d(2024, 1, 3), d(2024, 1, 24))
	require.NoError(t, err)

	require.Len(t, periods, 3)
	assert.Equal(t, d(2024, 1, 8), periods[0].Start)
	assert.Equal(t, d(2024, 1, 14), periods[0].End)
	assert.Equal(t, d(2024, 1, 22), periods[2].Start)
	assert.Equal(t, d(2024, 1, 24), periods[2].End)
	assert.Equal(t, "2024-02", periods[0].Label)
}

func TestGeneratePeriods_Errors(t *testing.T) {
	_, err := GeneratePeriods(contracts.CadenceMonthly, d(2024, 2, 1), d(2024, 1, 1))
	assert.Error(t, err)

	_, err = GeneratePeriods(contracts.Cadence("daily"), d(2024, 1, 1), d(2024, 2, 1))
	assert.Error(t, err)
}

func TestWeekLabel(t *testing.T) {
	tests := []struct {
		in   time.Time
		want string
	}{
		{d(2024, 1, 1), "2024-01"},  // Monday
		{d(2023, 1, 1), "2023-00"},  // Sunday before the first Monday
		{d(2023, 1, 2), "2023-01"},  // first Monday
		{d(2023, 12, 25), "2023-52"},
		{d(2021, 1, 4), "2021-01"},
	}

	for _, tt := range tests {
		t.Run(tt.in.Format("2006-01-02"), func(t *testing.T) {
			assert.Equal(t, tt.want, WeekLabel(tt.in))
		})
	}
}
