package commands

import (
	"bytes"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Rahul711sharma/momentum-analysis/internal/strategyconfig"
)

func TestSplitTickers(t *testing.T) {
	assert.Equal(t, []string{"A.NS", "B.NS"}, splitTickers(" A.NS, ,B.NS,"))
	assert.Empty(t, splitTickers(""))
}

func TestApplyBacktestFlags(t *testing.T) {
	base := strategyconfig.Default()
	base.Universe.Tickers = []string{"A.NS"}

	backtestCadence, backtestTopK, backtestToday = "weekly", 3, "2024-06-14"
	defer func() { backtestCadence, backtestTopK, backtestToday = "", 0, "" }()

	cfg := applyBacktestFlags(base)
	assert.Equal(t, "weekly", cfg.Backtest.Cadence)
	assert.Equal(t, 3, cfg.Backtest.TopK)
	assert.Equal(t, "2024-06-14", cfg.Backtest.Today)
	assert.Equal(t, base.Backtest.Mode, cfg.Backtest.Mode)

	// 원본 전략은 변경되지 않아야 함
	assert.Equal(t, "monthly", base.Backtest.Cadence)
	assert.Equal(t, 10, base.Backtest.TopK)
}

func TestFormatPct(t *testing.T) {
	assert.Equal(t, "12.35", formatPct(12.3456))
	assert.Equal(t, "n/a", formatPct(math.NaN()))
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	stdout = &buf
	defer func() { stdout = os.Stdout }()

	printHeaderRow([]string{"Ticker", "Score"}, []int{8, 5})
	printRow([]string{"ABB.NS", "1.20"}, []int{8, 5})

	assert.Equal(t, "Ticker    Score\n"+strings.Repeat("─", 15)+"\nABB.NS    1.20 \n", buf.String())
}
