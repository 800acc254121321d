package client

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/goliatone/go-authkit"
)

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTHKIT "+format+"\n", args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTHKIT "+format+"\n", args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTHKIT "+format+"\n", args...)
}

// Navigator sends the browser (or whatever hosts this runtime) to a URL.
// Sign-in, sign-up, and sign-out are redirect flows; nothing is exchanged
// locally.
type Navigator func(target string) error

// AuthState is the canonical in-memory projection of the session:
// {IsLoading, User} plus an access token handle. It is derived state; UI code
// never mutates it directly, only through the operations below.
type AuthState struct {
	mu         sync.Mutex
	loading    bool
	user       *authkit.UserProfile
	generation uint64
	resolver   SessionResolver
	cache      *TokenCache
	navigate   Navigator
	signInURL  string
	signUpURL  string
	signOutURL string
	logger     authkit.Logger
	watchers   []func(user *authkit.UserProfile)
}

type AuthStateOption func(*AuthState)

func WithLogger(logger authkit.Logger) AuthStateOption {
	return func(a *AuthState) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithNavigator sets the redirect callback for sign-in/out flows.
func WithNavigator(navigate Navigator) AuthStateOption {
	return func(a *AuthState) {
		if navigate != nil {
			a.navigate = navigate
		}
	}
}

// WithAuthRoutes overrides the sign-in, sign-up, and sign-out URLs.
func WithAuthRoutes(signIn, signUp, signOut string) AuthStateOption {
	return func(a *AuthState) {
		if signIn != "" {
			a.signInURL = signIn
		}
		if signUp != "" {
			a.signUpURL = signUp
		}
		if signOut != "" {
			a.signOutURL = signOut
		}
	}
}

// WithTokenCacheOptions configures the owned token cache.
func WithTokenCacheOptions(opts ...TokenCacheOption) AuthStateOption {
	return func(a *AuthState) {
		a.cache = NewTokenCache(a.fetchAccessToken, opts...)
	}
}

// New creates an AuthState in the loading state. Call Start (or Hydrate) to
// perform the first resolution.
func New(resolver SessionResolver, opts ...AuthStateOption) *AuthState {
	a := &AuthState{
		loading:    true,
		resolver:   resolver,
		navigate:   func(string) error { return nil },
		signInURL:  "/auth/sign-in",
		signUpURL:  "/auth/sign-up",
		signOutURL: "/auth/sign-out",
		logger:     defLogger{},
	}
	a.cache = NewTokenCache(a.fetchAccessToken)

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// Start performs the first session resolution. A state seeded through
// Hydrate skips the fetch entirely. IsLoading flips to false exactly once,
// on every path including resolver failure.
func (a *AuthState) Start(ctx context.Context) {
	a.mu.Lock()
	if !a.loading {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	a.Refresh(ctx)
}

// Refresh re-resolves the session and applies the result, unless a newer
// resolution or hydration has landed in the meantime (stale responses are
// discarded by generation).
func (a *AuthState) Refresh(ctx context.Context) {
	a.mu.Lock()
	a.generation++
	generation := a.generation
	a.mu.Unlock()

	payload, err := a.resolver.Resolve(ctx)
	if err != nil {
		a.logger.Error("session resolution failed", "error", err)
		// A failed resolution still terminates loading; hanging in a loading
		// state is worse than a transiently wrong "logged out".
		payload = &authkit.SessionPayload{}
	}

	a.apply(generation, payload)
}

func (a *AuthState) apply(generation uint64, payload *authkit.SessionPayload) {
	a.mu.Lock()

	if generation != a.generation {
		a.mu.Unlock()
		return
	}

	previous := a.user
	a.user = payload.User
	a.loading = false

	changed := identityChanged(previous, payload.User)
	watchers := a.watchers
	user := a.user

	a.mu.Unlock()

	if changed {
		for _, watch := range watchers {
			watch(user)
		}
	}
}

func identityChanged(previous, current *authkit.UserProfile) bool {
	switch {
	case previous == nil && current == nil:
		return false
	case previous == nil || current == nil:
		return true
	default:
		return previous.ID != current.ID
	}
}

// IsLoading reports whether the first session resolution is still pending.
func (a *AuthState) IsLoading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// GetUser returns the current identity without blocking, or nil.
func (a *AuthState) GetUser() *authkit.UserProfile {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.user
}

// TokenCache exposes the owned cache so a Bridge can share it.
func (a *AuthState) TokenCache() *TokenCache {
	return a.cache
}

// GetAccessToken returns a current access token, fetching (or reusing the
// cached value) as needed. Fails with ErrUnauthenticated when the resolved
// session has no token; it never masks that state with another error type.
func (a *AuthState) GetAccessToken(ctx context.Context) (string, error) {
	token, err := a.cache.Token(ctx)
	if err != nil {
		return "", authkit.ErrUnauthenticated
	}
	if token == "" {
		return "", authkit.ErrUnauthenticated
	}
	return token, nil
}

func (a *AuthState) fetchAccessToken(ctx context.Context) (string, error) {
	payload, err := a.resolver.Resolve(ctx)
	if err != nil {
		return "", err
	}
	return payload.AccessToken, nil
}

// OnUserChange registers a watcher invoked whenever the user identity
// changes value (sign-in after being signed out, or sign-out).
func (a *AuthState) OnUserChange(watch func(user *authkit.UserProfile)) {
	if watch == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.watchers = append(a.watchers, watch)
}

// SignIn redirects to the sign-in endpoint with optional hints.
func (a *AuthState) SignIn(opts authkit.AuthorizationURLOptions) error {
	return a.navigate(hintedURL(a.signInURL, opts))
}

// SignUp redirects to the sign-up endpoint with optional hints.
func (a *AuthState) SignUp(opts authkit.AuthorizationURLOptions) error {
	return a.navigate(hintedURL(a.signUpURL, opts))
}

// SignOut redirects to the sign-out endpoint, which clears the server held
// session before completing. Local state catches up on the next resolution.
func (a *AuthState) SignOut() error {
	a.cache.Invalidate()
	return a.navigate(a.signOutURL)
}

func hintedURL(base string, opts authkit.AuthorizationURLOptions) string {
	params := url.Values{}
	if opts.OrganizationID != "" {
		params.Set("organization_id", opts.OrganizationID)
	}
	if opts.LoginHint != "" {
		params.Set("login_hint", opts.LoginHint)
	}
	if len(params) == 0 {
		return base
	}
	return base + "?" + params.Encode()
}
