package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/speech-translator/internal/config"
	"github.com/magabrotheeeer/speech-translator/internal/models"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	cache, err := InitServer(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestSetAndGet(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	end := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	expected := models.Account{
		ID:                  "acc-1",
		Email:               "user@example.com",
		TrialEndDate:        time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC),
		SubscriptionEndDate: &end,
		IsSubscribed:        true,
	}
	require.NoError(t, cache.Set(ctx, "account:acc-1", expected, time.Minute))

	var actual models.Account
	found, err := cache.Get(ctx, "account:acc-1", &actual)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, expected.ID, actual.ID)
	assert.True(t, expected.TrialEndDate.Equal(actual.TrialEndDate))
	require.NotNil(t, actual.SubscriptionEndDate)
	assert.True(t, end.Equal(*actual.SubscriptionEndDate))
}

func TestGetNotFound(t *testing.T) {
	cache, _ := setupTestCache(t)

	var out models.Account
	found, err := cache.Get(context.Background(), "no_such_key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSetExpires(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "revoked:jti", true, time.Minute))
	mr.FastForward(2 * time.Minute)

	ok, err := cache.Exists(ctx, "revoked:jti")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetNX(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	ok, err := cache.SetNX(ctx, "charge:acc-1:2025-03", "pay-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cache.SetNX(ctx, "charge:acc-1:2025-03", "pay-2", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	var stored string
	found, err := cache.Get(ctx, "charge:acc-1:2025-03", &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "pay-1", stored)
}

func TestInvalidate(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key", "value", time.Minute))
	require.NoError(t, cache.Invalidate(ctx, "key"))

	var out string
	found, err := cache.Get(ctx, "key", &out)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetInvalidJSON(t *testing.T) {
	cache, _ := setupTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Db.Set(ctx, "bad", []byte("not-json"), time.Minute).Err())

	var out models.Account
	found, err := cache.Get(ctx, "bad", &out)
	assert.False(t, found)
	assert.Error(t, err)
}

func TestInitServerInvalidAddr(t *testing.T) {
	cfg := config.RedisConnection{
		AddressRedis: "127.0.0.1:1",
		DialTimeout:  200 * time.Millisecond,
	}

	cache, err := InitServer(context.Background(), cfg)
	assert.Nil(t, cache)
	assert.Error(t, err)
}

func TestIncr(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	n, err := c.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = c.Incr(ctx, "counter")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var got int64
	found, err := c.Get(ctx, "counter", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, int64(2), got)

	mr.Close()
	_, err = c.Incr(ctx, "counter")
	require.Error(t, err)
}
