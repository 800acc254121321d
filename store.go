package authkit

import (
	"time"

	"github.com/goliatone/go-router"
)

const (
	// DefaultCookieName is the sealed session cookie.
	DefaultCookieName = "authkit-session"

	// DefaultIndicatorCookieName is a non HTTP-only marker cookie kept in sync
	// with the sealed cookie so client side code can cheaply decide whether a
	// session restoration attempt is worth making.
	DefaultIndicatorCookieName = "authkit-has-session"

	// DefaultCookieMaxAge is the cookie container lifetime. Deliberately much
	// longer than any access token: the embedded ExpiresAt decides validity.
	DefaultCookieMaxAge = 400 * 24 * time.Hour
)

// CookieStore persists one SessionRecord per browser context as a sealed
// cookie and transparently refreshes expired tokens through the provider.
//
// Concurrent requests that both observe an expired token can each trigger a
// refresh exchange; the race is accepted and resolves last-writer-wins on the
// cookie.
type CookieStore struct {
	sealer        *Sealer
	identity      IdentityClient
	cookieName    string
	indicatorName string
	cookiePath    string
	cookieMaxAge  time.Duration
	cookieSecure  bool
	logger        Logger
	timeNow       func() time.Time
}

var _ SessionManager = (*CookieStore)(nil)

type CookieStoreOption func(*CookieStore)

func WithStoreLogger(logger Logger) CookieStoreOption {
	return func(s *CookieStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithCookieName(name string) CookieStoreOption {
	return func(s *CookieStore) {
		if name != "" {
			s.cookieName = name
		}
	}
}

func WithIndicatorCookieName(name string) CookieStoreOption {
	return func(s *CookieStore) {
		s.indicatorName = name
	}
}

func WithCookieMaxAge(maxAge time.Duration) CookieStoreOption {
	return func(s *CookieStore) {
		if maxAge > 0 {
			s.cookieMaxAge = maxAge
		}
	}
}

// WithCookieSecure toggles the Secure attribute. Only disable for local
// development over plain HTTP.
func WithCookieSecure(secure bool) CookieStoreOption {
	return func(s *CookieStore) {
		s.cookieSecure = secure
	}
}

// WithTimeSource overrides the clock used for expiry checks.
func WithTimeSource(now func() time.Time) CookieStoreOption {
	return func(s *CookieStore) {
		if now != nil {
			s.timeNow = now
		}
	}
}

// NewCookieStore creates a session store backed by a sealed cookie.
func NewCookieStore(identity IdentityClient, sealer *Sealer, opts ...CookieStoreOption) *CookieStore {
	s := &CookieStore{
		sealer:        sealer,
		identity:      identity,
		cookieName:    DefaultCookieName,
		indicatorName: DefaultIndicatorCookieName,
		cookiePath:    "/",
		cookieMaxAge:  DefaultCookieMaxAge,
		cookieSecure:  true,
		logger:        defLogger{},
		timeNow:       time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// GetSession resolves the session for the current request.
//
//  1. No cookie: ErrNoSession.
//  2. Undecodable cookie: ErrSessionDecode; the caller clears the cookie.
//  3. Expired token: one refresh exchange. Success persists a new record that
//     carries the same user identity with the expiry decoded from the new
//     token's own claims. Failure clears the cookie; no synchronous retry.
//  4. Otherwise the unsealed record, unchanged.
func (s *CookieStore) GetSession(c router.Context) (*SessionRecord, error) {
	sealed := c.Cookies(s.cookieName)
	if sealed == "" {
		return nil, ErrNoSession
	}

	record, err := s.sealer.Unseal(sealed)
	if err != nil {
		return nil, err
	}

	if !record.Expired(s.timeNow()) {
		return record, nil
	}

	auth, err := s.identity.AuthenticateWithRefreshToken(c.Context(), record.RefreshToken)
	if err != nil {
		s.logger.Info("session refresh rejected, clearing session", "error", err)
		s.ClearSession(c)
		return nil, ErrRefreshFailed
	}

	expiresAt, err := AccessTokenExpiry(auth.AccessToken)
	if err != nil {
		s.logger.Error("refreshed access token has no usable expiry", "error", err)
		s.ClearSession(c)
		return nil, ErrRefreshFailed
	}

	refreshed := &SessionRecord{
		AccessToken:  auth.AccessToken,
		RefreshToken: auth.RefreshToken,
		User:         record.User,
		ExpiresAt:    expiresAt,
	}

	if err := s.SetSession(c, refreshed); err != nil {
		return nil, err
	}

	return refreshed, nil
}

// SetSession seals the record and writes the session cookie.
func (s *CookieStore) SetSession(c router.Context, record *SessionRecord) error {
	sealed, err := s.sealer.Seal(record)
	if err != nil {
		return err
	}

	expires := s.timeNow().Add(s.cookieMaxAge)

	c.Cookie(&router.Cookie{
		Name:     s.cookieName,
		Value:    sealed,
		Path:     s.cookiePath,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   s.cookieSecure,
		SameSite: "Lax",
	})

	if s.indicatorName != "" {
		c.Cookie(&router.Cookie{
			Name:     s.indicatorName,
			Value:    "1",
			Path:     s.cookiePath,
			Expires:  expires,
			Secure:   s.cookieSecure,
			SameSite: "Lax",
		})
	}

	return nil
}

// ClearSession deletes the session cookie. The delete mirrors every attribute
// used at set time; browsers silently ignore deletions whose path, SameSite,
// or Secure attributes differ.
func (s *CookieStore) ClearSession(c router.Context) {
	expired := s.timeNow().Add(-time.Hour * 24 * 365)

	c.Cookie(&router.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     s.cookiePath,
		Expires:  expired,
		HTTPOnly: true,
		Secure:   s.cookieSecure,
		SameSite: "Lax",
	})

	if s.indicatorName != "" {
		c.Cookie(&router.Cookie{
			Name:     s.indicatorName,
			Value:    "",
			Path:     s.cookiePath,
			Expires:  expired,
			Secure:   s.cookieSecure,
			SameSite: "Lax",
		})
	}
}
