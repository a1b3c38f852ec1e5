package backtest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
)

// MetricRow is one line of the overall metrics table
type MetricRow struct {
	Ticker        string  `csv:"ticker"`
	AverageReturn float64 `csv:"average_return"`
	Risk          float64 `csv:"risk"`
	Score         float64 `csv:"score"`
}

// WindowRow is one trailing window return of one ticker
type WindowRow struct {
	Ticker string  `csv:"ticker"`
	Window string  `csv:"window"`
	Return float64 `csv:"return"`
}

// GridRow is one cell of the ticker x period return grid
type GridRow struct {
	Ticker string  `csv:"ticker"`
	Period string  `csv:"period"`
	Return float64 `csv:"return"`
}

// TopKRow is one member of one period's top-K
type TopKRow struct {
	Period string  `csv:"period"`
	Rank   int     `csv:"rank"`
	Ticker string  `csv:"ticker"`
	Return float64 `csv:"return"`
}

// MetricRows flattens metrics into table rows
func MetricRows(ms []*contracts.PeriodMetric) ([]MetricRow, []WindowRow) {
	rows := make([]MetricRow, 0, len(ms))
	windows := make([]WindowRow, 0, len(ms)*3)
	for _, m := range ms {
		rows = append(rows, MetricRow{
			Ticker:        m.Ticker,
			AverageReturn: m.AverageReturn,
			Risk:          m.Risk,
			Score:         m.Score,
		})
		for _, w := range m.Windows {
			windows = append(windows, WindowRow{Ticker: m.Ticker, Window: w.Label, Return: w.Return})
		}
	}
	return rows, windows
}

// GridRows flattens the return grid in row-major order
func (g *ReturnGrid) GridRows() []GridRow {
	rows := make([]GridRow, 0, len(g.Tickers)*len(g.Periods))
	for _, t := range g.Tickers {
		for _, p := range g.Periods {
			if v, ok := g.Get(t, p); ok {
				rows = append(rows, GridRow{Ticker: t, Period: p, Return: v})
			}
		}
	}
	return rows
}

// TopKRows flattens the top-K grid
func TopKRows(entries []TopKEntry) []TopKRow {
	var rows []TopKRow
	for _, e := range entries {
		for _, m := range e.Members {
			rows = append(rows, TopKRow{Period: e.Period, Rank: m.Rank, Ticker: m.Ticker, Return: m.Return})
		}
	}
	return rows
}

// Export writes the report tables of a run as CSV files into dir and returns
// the written paths. overall may be nil.
func Export(dir string, result *Result, overall []*contracts.PeriodMetric) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	tables := []table{
		{"period_returns", ensure(result.PeriodReturns)},
		{"return_grid", result.ReturnGrid.GridRows()},
		{"topk", ensure(TopKRows(result.TopK))},
		{"buys", ensure(result.Buys)},
		{"sells", ensure(result.Sells)},
		{"skips", ensure(result.Skips)},
	}
	if overall != nil {
		rows, windows := MetricRows(overall)
		tables = append(tables, table{"metrics", rows}, table{"metric_windows", windows})
	}

	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		path := ReportPath(dir, result, t.name)
		if err := writeCSV(path, t.rows); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// ReportPath names a report table: <dir>/<cadence>_<end>_<name>.csv
func ReportPath(dir string, result *Result, name string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s.csv", result.Config.Cadence, result.End.Format("2006-01-02"), name))
}

type table struct {
	name string
	rows interface{}
}

func writeCSV(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(rows, f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ensure turns nil slices into empty ones so gocsv still writes a header
func ensure[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}
