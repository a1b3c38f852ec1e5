package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rahul711sharma/momentum-analysis/pkg/config"
)

func TestConnect_Disabled(t *testing.T) {
	client, err := Connect(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(Disabled(), "momentum")
	ctx := context.Background()

	assert.NoError(t, cache.Set(ctx, "k", []float64{1, 2}, TTLShort))

	var got []float64
	found, err := cache.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, "k"))
}

func TestKeys(t *testing.T) {
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "series:ABB.NS:2024-03-05", SeriesKey("ABB.NS", day))
	assert.Equal(t, "metrics:abc:2024-03-05", MetricsKey("abc", day))
	assert.Equal(t, "momentum:cache:x", NewCache(Disabled(), "momentum").key("x"))
}

func TestCache_GetSet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := NewCache(Wrap(db), "momentum")
	ctx := context.Background()
	key := "momentum:cache:k"

	t.Run("hit", func(t *testing.T) {
		mock.ExpectGet(key).SetVal(`[1,2]`)

		var got []float64
		found, err := cache.Get(ctx, "k", &got)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []float64{1, 2}, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("miss", func(t *testing.T) {
		mock.ExpectGet(key).RedisNil()

		var got []float64
		found, err := cache.Get(ctx, "k", &got)
		require.NoError(t, err)
		assert.False(t, found)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error", func(t *testing.T) {
		mock.ExpectGet(key).SetErr(errors.New("connection reset"))

		var got []float64
		_, err := cache.Get(ctx, "k", &got)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("set", func(t *testing.T) {
		mock.ExpectSet(key, []byte(`[1,2]`), TTLShort).SetVal("OK")

		assert.NoError(t, cache.Set(ctx, "k", []float64{1, 2}, TTLShort))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete", func(t *testing.T) {
		mock.ExpectDel(key, "momentum:cache:j").SetVal(1)

		assert.NoError(t, cache.Delete(ctx, "k", "j"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
