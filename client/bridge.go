package client

import (
	"context"
	"sync"

	"github.com/goliatone/go-authkit"
)

// Connection is the dependent realtime connection's auth contract: a token
// fetcher plus a callback the connection invokes once it has validated (or
// rejected) the token against its own provider integration.
//
// The connection has no clear-auth call. Clearing means setting a fetcher
// that returns no token, which is why the bridge always invokes SetAuth, even
// on the signed-out path.
type Connection interface {
	SetAuth(fetch TokenFetchFunc, onChange func(isAuthenticated bool))
}

// BridgeState tracks the bridge's position in the handshake.
type BridgeState int

const (
	// BridgeUnauthenticated: no credential is propagated.
	BridgeUnauthenticated BridgeState = iota

	// BridgeBridging: a fetcher has been handed to the connection and the
	// confirmation callback has not fired yet.
	BridgeBridging

	// BridgeAuthenticated: the connection confirmed the credential.
	BridgeAuthenticated
)

// Bridge propagates a validated access token into a dependent Connection and
// mirrors the connection's confirmation callback. Its two flags are only ever
// written by that callback; application code cannot set them directly.
type Bridge struct {
	mu            sync.Mutex
	conn          Connection
	cache         *TokenCache
	state         BridgeState
	loading       bool
	authenticated bool
	logger        authkit.Logger
}

type BridgeOption func(*Bridge)

func WithBridgeLogger(logger authkit.Logger) BridgeOption {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBridge creates a bridge for the given connection. A nil connection is
// tolerated: the bridge logs it and resolves to a loaded, unauthenticated
// state instead of blocking the application.
func NewBridge(conn Connection, cache *TokenCache, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		conn:    conn,
		cache:   cache,
		loading: true,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	return b
}

// Bind applies the current identity and re-applies on every identity change.
func (b *Bridge) Bind(state *AuthState) {
	state.OnUserChange(func(user *authkit.UserProfile) {
		b.Apply(user != nil)
	})
	b.Apply(state.GetUser() != nil)
}

// Apply hands the connection a token fetcher when authenticated, or a
// none-returning fetcher otherwise so any residual credential the connection
// holds is actively cleared, never left stale.
func (b *Bridge) Apply(authenticated bool) {
	b.mu.Lock()

	if b.conn == nil {
		b.state = BridgeUnauthenticated
		b.authenticated = false
		b.loading = false
		b.mu.Unlock()
		b.logger.Info("skipping auth bridge", "error", authkit.ErrConnectionUnavailable)
		return
	}

	if authenticated {
		b.state = BridgeBridging
	} else {
		b.state = BridgeUnauthenticated
	}
	conn := b.conn
	b.mu.Unlock()

	if authenticated {
		conn.SetAuth(b.cache.Token, b.onAuthChange)
		return
	}

	conn.SetAuth(func(ctx context.Context) (string, error) {
		return "", nil
	}, b.onAuthChange)
}

func (b *Bridge) onAuthChange(isAuthenticated bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.authenticated = isAuthenticated
	b.loading = false

	if isAuthenticated {
		b.state = BridgeAuthenticated
	} else {
		b.state = BridgeUnauthenticated
	}
}

// IsAuthenticated reports whether the connection confirmed the credential.
func (b *Bridge) IsAuthenticated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.authenticated
}

// IsLoading reports whether the first confirmation callback is still pending.
func (b *Bridge) IsLoading() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading
}

// State returns the current bridge state.
func (b *Bridge) State() BridgeState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
