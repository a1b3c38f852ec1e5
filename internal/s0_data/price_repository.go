package s0_data

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rahul711sharma/momentum-analysis/internal/contracts"
	"github.com/Rahul711sharma/momentum-analysis/internal/s0_data/quality"
)

// PriceRepository stores daily closes in market.daily_closes
// ⭐ SSOT: 가격 데이터 저장소는 여기서만
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// Name identifies the source in load results
func (r *PriceRepository) Name() string { return "postgres" }

// Load retrieves closes for a ticker within [from, to]
func (r *PriceRepository) Load(ctx context.Context, ticker string, from, to time.Time) (*contracts.PriceSeries, error) {
	query := `
		SELECT trade_date, close_price
		FROM market.daily_closes
		WHERE ticker = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, ticker, from, to)
	if err != nil {
		return nil, fmt.Errorf("query closes %s: %w", ticker, err)
	}
	defer rows.Close()

	var points []contracts.PricePoint
	for rows.Next() {
		var p contracts.PricePoint
		if err := rows.Scan(&p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("scan close %s: %w", ticker, err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	points, _ = quality.Clean(ticker, points)
	return contracts.NewPriceSeries(ticker, points)
}

// LatestDate returns the most recent stored trade date for a ticker
func (r *PriceRepository) LatestDate(ctx context.Context, ticker string) (time.Time, bool, error) {
	var latest *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT MAX(trade_date) FROM market.daily_closes WHERE ticker = $1`, ticker,
	).Scan(&latest)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("latest date %s: %w", ticker, err)
	}
	if latest == nil {
		return time.Time{}, false, nil
	}
	return *latest, true, nil
}

// Save upserts every observation of series, tagged with source
func (r *PriceRepository) Save(ctx context.Context, series *contracts.PriceSeries, source string) error {
	if series.Empty() {
		return nil
	}

	query := `
		INSERT INTO market.daily_closes (ticker, trade_date, close_price, source, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (ticker, trade_date) DO UPDATE SET
			close_price = EXCLUDED.close_price,
			source = EXCLUDED.source,
			updated_at = NOW()
	`

	// Batch insert using transactions
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range series.Points() {
		if _, err := tx.Exec(ctx, query, series.Ticker, p.Date, p.Close, source); err != nil {
			return fmt.Errorf("upsert close %s %s: %w", series.Ticker, p.Date.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
