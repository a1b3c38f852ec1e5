package s0_data

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/internal/s0_data/quality"
)

// ErrCacheMiss is returned by caches that hold no entry for a ticker
var ErrCacheMiss = errors.New("cache miss")

// csvDate accepts the timestamp layouts written by common price exporters.
// The offset is discarded and the local calendar date is kept.
type csvDate time.Time

var csvDateLayouts = []string{
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05Z07:00",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (d *csvDate) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*d = csvDate(contracts.NormalizeDate(t))
			return nil
		}
	}
	return fmt.Errorf("unrecognized date %q", s)
}

func (d csvDate) MarshalCSV() (string, error) {
	return time.Time(d).Format("2006-01-02"), nil
}

// csvClose parses blank and "nan" cells as NaN so quality.Clean can drop them
type csvClose float64

func (c *csvClose) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*c = csvClose(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("close %q: %w", s, err)
	}
	*c = csvClose(v)
	return nil
}

func (c csvClose) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(c), 'f', -1, 64), nil
}

// csvRow is one line of a cached price file. Other columns are ignored on read.
type csvRow struct {
	Date  csvDate  `csv:"Date"`
	Close csvClose `csv:"Close"`
}

// CSVCache reads and writes per-ticker price files named <TICKER>_<YYYY-MM-DD>.csv,
// stamped with the run day.
type CSVCache struct {
	dir   string
	clock func() time.Time
}

// NewCSVCache creates a cache rooted at dir for files stamped with day
func NewCSVCache(dir string, day time.Time) *CSVCache {
	day = contracts.NormalizeDate(day)
	return &CSVCache{dir: dir, clock: func() time.Time { return day }}
}

// WithClock stamps files with the current day of clock (long-running processes)
func (c *CSVCache) WithClock(clock func() time.Time) *CSVCache {
	c.clock = clock
	return c
}

// Day returns the stamp used for file names
func (c *CSVCache) Day() time.Time {
	return contracts.NormalizeDate(c.clock())
}

// Name identifies the source in load results
func (c *CSVCache) Name() string { return "csv" }

// Path returns the cache file path of ticker
func (c *CSVCache) Path(ticker string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.csv", ticker, c.Day().Format("2006-01-02")))
}

// Load reads the ticker's file and keeps observations within [from, to].
// Zero bounds are open.
func (c *CSVCache) Load(ctx context.Context, ticker string, from, to time.Time) (*contracts.PriceSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := c.Path(ticker)
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrCacheMiss, path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var rows []*csvRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	points := make([]contracts.PricePoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, contracts.PricePoint{Date: time.Time(row.Date), Close: float64(row.Close)})
	}
	points, _ = quality.Clean(ticker, points)

	series, err := contracts.SortedPriceSeries(ticker, points)
	if err != nil {
		return nil, err
	}
	if from.IsZero() && to.IsZero() {
		return series, nil
	}
	if to.IsZero() {
		to = c.Day()
	}
	return series.Between(from, to), nil
}

// Save writes the full series to the ticker's file, replacing it atomically
func (c *CSVCache) Save(ctx context.Context, series *contracts.PriceSeries, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	points := series.Points()
	rows := make([]*csvRow, len(points))
	for i, p := range points {
		rows[i] = &csvRow{Date: csvDate(p.Date), Close: csvClose(p.Close)}
	}

	path := c.Path(series.Ticker)
	tmp, err := os.CreateTemp(c.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gocsv.MarshalFile(&rows, tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Prune removes cache files stamped before the given day and returns how many were removed.
// Files that do not follow the naming scheme are left alone.
func (c *CSVCache) Prune(before time.Time) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}

	before = contracts.NormalizeDate(before)
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		base := strings.TrimSuffix(name, ".csv")
		sep := strings.LastIndex(base, "_")
		if sep < 0 {
			continue
		}
		stamp, err := time.Parse("2006-01-02", base[sep+1:])
		if err != nil || !stamp.Before(before) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}
