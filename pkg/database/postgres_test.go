package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rahul711sharma/momentum-analysis/pkg/config"
)

func TestOpen_RequiresURL(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClose_NilSafe(t *testing.T) {
	var db *DB
	assert.NotPanics(t, db.Close)
}

func TestOpenAndMigrate(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := Open(ctx, cfg.Database)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migration must be idempotent")

	health, err := db.Health(ctx)
	require.NoError(t, err)
	assert.Greater(t, health.Max, int32(0))
}
