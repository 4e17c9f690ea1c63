package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, "")
}

func TestRedisStoreLoadEmpty(t *testing.T) {
	store := newTestRedisStore(t)
	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Signals)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleDocument()))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Contains(t, loaded.Signals, "BTCUSDT_1700000000")
	assert.Equal(t, "BTCUSDT", loaded.Signals["BTCUSDT_1700000000"].Symbol)
	assert.Equal(t, 1, loaded.Stats.CheckedSignals)
}

func TestRedisStoreCorruptPayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	require.NoError(t, mr.Set(defaultRedisKey, "{not json"))

	store := NewRedisStore(client, "")
	_, err := store.Load(context.Background())
	assert.Error(t, err)
}

func TestRedisStorePing(t *testing.T) {
	store := newTestRedisStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
