package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Rahul711sharma/momentum-analysis/pkg/config"
)

// ErrNotConfigured is returned by Open when DATABASE_URL is empty
var ErrNotConfigured = errors.New("database: DATABASE_URL is not set")

// DB owns the pgx pool backing the daily close store
// ⭐ SSOT: DB 연결은 이 패키지에서만 생성
type DB struct {
	Pool *pgxpool.Pool
}

// schema is applied by Migrate. Closes are keyed by (ticker, trade_date).
const schema = `
CREATE SCHEMA IF NOT EXISTS market;

CREATE TABLE IF NOT EXISTS market.daily_closes (
    ticker      TEXT        NOT NULL,
    trade_date  DATE        NOT NULL,
    close_price DOUBLE PRECISION NOT NULL,
    source      TEXT        NOT NULL DEFAULT 'yahoo',
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (ticker, trade_date)
);

CREATE INDEX IF NOT EXISTS idx_daily_closes_date ON market.daily_closes (trade_date);
`

// pingTimeout bounds the connectivity check in Open
const pingTimeout = 5 * time.Second

// Open builds the pool from dbCfg and verifies connectivity
// ⭐ SSOT: 유일하게 pgxpool.NewWithConfig()를 호출하는 함수
func Open(ctx context.Context, dbCfg config.DatabaseConfig) (*DB, error) {
	if !dbCfg.Enabled() {
		return nil, ErrNotConfigured
	}

	pc, err := pgxpool.ParseConfig(dbCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("database: parse url: %w", err)
	}
	pc.MaxConns = int32(dbCfg.MaxConns)
	pc.MinConns = int32(dbCfg.MinConns)
	pc.MaxConnLifetime = dbCfg.MaxConnLifetime
	pc.MaxConnIdleTime = dbCfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("database: create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database: ping: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Migrate creates the price tables when missing. It is idempotent.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	return nil
}

// Close is safe on a nil DB
func (db *DB) Close() {
	if db == nil || db.Pool == nil {
		return
	}
	db.Pool.Close()
}

// Health is a point-in-time view of the pool
type Health struct {
	Latency  time.Duration `json:"latency"`
	Acquired int32         `json:"acquired_conns"`
	Idle     int32         `json:"idle_conns"`
	Max      int32         `json:"max_conns"`
}

// Health pings the server and reports pool usage
func (db *DB) Health(ctx context.Context) (Health, error) {
	start := time.Now()
	if err := db.Pool.Ping(ctx); err != nil {
		return Health{}, fmt.Errorf("database: ping: %w", err)
	}
	st := db.Pool.Stat()
	return Health{
		Latency:  time.Since(start),
		Acquired: st.AcquiredConns(),
		Idle:     st.IdleConns(),
		Max:      st.MaxConns(),
	}, nil
}
