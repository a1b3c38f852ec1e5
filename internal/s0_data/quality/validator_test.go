package quality

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
)

func TestClean(t *testing.T) {
	d := func(n int) time.Time { return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC) }
	points := []contracts.PricePoint{
		{Date: d(1), Close: 10},
		{Date: d(2), Close: math.NaN()},
		{Date: d(3), Close: 0},
		{Date: d(4), Close: math.Inf(1)},
		{Date: d(5), Close: -3},
		{Date: d(8), Close: 11},
	}

	kept, report := Clean("ABB.NS", points)

	assert.Equal(t, []contracts.PricePoint{{Date: d(1), Close: 10}, {Date: d(8), Close: 11}}, kept)
	assert.Equal(t, "ABB.NS", report.Ticker)
	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 2, report.Kept)
	assert.Equal(t, 2, report.NonFinite)
	assert.Equal(t, 2, report.NonPositive)
	assert.Equal(t, 4, report.Dropped())
	assert.InDelta(t, 1.0/3.0, report.Coverage(), 1e-12)
}

func TestClean_Empty(t *testing.T) {
	kept, report := Clean("X", nil)
	assert.Empty(t, kept)
	assert.Equal(t, 0.0, report.Coverage())
}
