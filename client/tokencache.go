package client

import (
	"context"
	"sync"
	"time"
)

// DefaultTokenTTL bounds how long a fetched access token is served from
// memory before a fresh session fetch is mandatory.
const DefaultTokenTTL = 30 * time.Second

// TokenFetchFunc fetches a fresh access token. An empty token with a nil
// error means "no token": the caller is logged out.
type TokenFetchFunc func(ctx context.Context) (string, error)

// TokenCache memoizes the last fetched access token. The dependent
// connection's auth callback can fire on every outbound request; without this
// memo each call would be a redundant round trip to the session endpoint.
type TokenCache struct {
	mu        sync.Mutex
	fetch     TokenFetchFunc
	ttl       time.Duration
	token     string
	fetchedAt time.Time
	timeNow   func() time.Time
}

type TokenCacheOption func(*TokenCache)

// WithTokenTTL overrides the cache TTL.
func WithTokenTTL(ttl time.Duration) TokenCacheOption {
	return func(c *TokenCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheTimeSource overrides the clock, for tests.
func WithCacheTimeSource(now func() time.Time) TokenCacheOption {
	return func(c *TokenCache) {
		if now != nil {
			c.timeNow = now
		}
	}
}

func NewTokenCache(fetch TokenFetchFunc, opts ...TokenCacheOption) *TokenCache {
	c := &TokenCache{
		fetch:   fetch,
		ttl:     DefaultTokenTTL,
		timeNow: time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// Token returns the memoized token while it is younger than the TTL,
// otherwise performs one fresh fetch. The memo timestamp advances
// unconditionally, on failure too, so a failing endpoint is not hammered by
// every consumer in the window.
func (c *TokenCache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	if !c.fetchedAt.IsZero() && c.timeNow().Sub(c.fetchedAt) < c.ttl {
		token := c.token
		c.mu.Unlock()
		return token, nil
	}
	c.mu.Unlock()

	token, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.fetchedAt = c.timeNow()
	if err != nil {
		c.token = ""
		return "", err
	}

	c.token = token
	return token, nil
}

// Seed installs a token obtained out of band (hydration transfer). The TTL
// clock starts now, not at token issuance.
func (c *TokenCache) Seed(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	c.fetchedAt = c.timeNow()
}

// Invalidate drops the memo; the next Token call fetches.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = ""
	c.fetchedAt = time.Time{}
}
