package client

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestTokenCacheServesMemoWithinTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}

	fetches := 0
	cache := NewTokenCache(func(ctx context.Context) (string, error) {
		fetches++
		return "token-1", nil
	}, WithCacheTimeSource(clock.Now))

	token, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, 1, fetches)

	clock.Advance(29 * time.Second)
	token, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, 1, fetches, "second call within TTL should not fetch")

	clock.Advance(2 * time.Second)
	_, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetches, "call past TTL should fetch")
}

func TestTokenCacheFailureClearsMemoAndAdvancesClock(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}

	fetchErr := errors.New("endpoint down", errors.CategoryOperation)
	fetches := 0
	responses := []struct {
		token string
		err   error
	}{
		{token: "token-1"},
		{err: fetchErr},
		{token: ""},
	}

	cache := NewTokenCache(func(ctx context.Context) (string, error) {
		r := responses[fetches]
		fetches++
		return r.token, r.err
	}, WithCacheTimeSource(clock.Now))

	_, err := cache.Token(context.Background())
	require.NoError(t, err)

	clock.Advance(31 * time.Second)
	_, err = cache.Token(context.Background())
	require.ErrorIs(t, err, fetchErr)

	// The failure advanced the memo timestamp: within the TTL the cache serves
	// the (now empty) memo instead of hammering the failing endpoint.
	token, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Equal(t, 2, fetches)
}

func TestTokenCacheEmptyTokenMeansLoggedOut(t *testing.T) {
	cache := NewTokenCache(func(ctx context.Context) (string, error) {
		return "", nil
	})

	token, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestTokenCacheSeedStartsClockAtConsumeTime(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}

	fetches := 0
	cache := NewTokenCache(func(ctx context.Context) (string, error) {
		fetches++
		return "fetched-token", nil
	}, WithCacheTimeSource(clock.Now))

	cache.Seed("seeded-token")

	clock.Advance(29 * time.Second)
	token, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "seeded-token", token)
	assert.Zero(t, fetches)

	clock.Advance(2 * time.Second)
	token, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fetched-token", token)
	assert.Equal(t, 1, fetches)
}

func TestTokenCacheInvalidate(t *testing.T) {
	fetches := 0
	cache := NewTokenCache(func(ctx context.Context) (string, error) {
		fetches++
		return "token", nil
	})

	cache.Seed("seeded")
	cache.Invalidate()

	token, err := cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token", token)
	assert.Equal(t, 1, fetches)
}
