package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCacheSetGet(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheFromClient(client, "finsignal")
	ctx := context.Background()

	mock.ExpectSet("finsignal:k", []byte(`{"name":"a","value":2}`), time.Minute).SetVal("OK")
	require.NoError(t, c.Set(ctx, "k", sample{Name: "a", Value: 2}, time.Minute))

	mock.ExpectGet("finsignal:k").SetVal(`{"name":"a","value":2}`)
	var got sample
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "a", got.Name)

	mock.ExpectGet("finsignal:none").RedisNil()
	assert.ErrorIs(t, c.Get(ctx, "none", &got), ErrCacheMiss)

	mock.ExpectUnlink("finsignal:k").SetVal(1)
	require.NoError(t, c.Delete(ctx, "k"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheLockUsesToken(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheFromClient(client, "")
	c.token = func() string { return "tok-1" }
	ctx := context.Background()

	mock.ExpectSetNX("finsignal:lock", "tok-1", time.Minute).SetVal(true)
	ok, err := c.TryLock(ctx, "lock", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectEval(unlockScript, []string{"finsignal:lock"}, "tok-1").SetVal(int64(1))
	require.NoError(t, c.Unlock(ctx, "lock"))

	// a second unlock has no token left and does not reach Redis
	require.NoError(t, c.Unlock(ctx, "lock"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCacheLockHeldElsewhere(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := NewRedisCacheFromClient(client, "fs")
	c.token = func() string { return "tok-2" }
	ctx := context.Background()

	mock.ExpectSetNX("fs:lock", "tok-2", time.Second).SetVal(false)
	ok, err := c.TryLock(ctx, "lock", time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Unlock(ctx, "lock"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
